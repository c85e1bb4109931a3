package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/handler"
	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/service/appointment"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
	"github.com/aleisley/ta-backend/pkg/httputil"
)

const dateLayout = "2006-01-02"

type Handler struct {
	handler.BaseHandler
	service *appointment.Service
}

func NewHandler(service *appointment.Service, base handler.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.AppointmentRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.CreateAppointment(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.GetAppointment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithPagination(c, appointments, filter.Page, len(appointments))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.AppointmentRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	apt, err := h.service.UpdateAppointment(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.DeleteAppointment(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseFilter reads the list query. start_date keeps appointments starting on
// or after that day; end_date keeps those ending before the following day.
// Dates are calendar days in UTC.
func (h *Handler) parseFilter(c *gin.Context) (*model.AppointmentFilter, error) {
	page, err := h.Page(c)
	if err != nil {
		return nil, err
	}
	filter := &model.AppointmentFilter{Page: page}
	var fields []apperrors.FieldError

	if raw := c.Query("start_date"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
		} else {
			filter.From = &day
		}
	}

	if raw := c.Query("end_date"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"})
		} else {
			until := day.AddDate(0, 0, 1)
			filter.Until = &until
		}
	}

	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "doctor_id", Message: "must be a valid UUID"})
		} else {
			filter.DoctorID = &id
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.Validation(fields, nil)
	}
	return filter, nil
}
