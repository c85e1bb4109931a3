package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aleisley/ta-backend/internal/handler"
	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/service/doctor"
	"github.com/aleisley/ta-backend/pkg/httputil"
)

type Handler struct {
	handler.BaseHandler
	service *doctor.Service
}

func NewHandler(service *doctor.Service, base handler.BaseHandler) *Handler {
	return &Handler{BaseHandler: base, service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("", h.ListDoctors)
		doctors.POST("", h.CreateDoctor)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PUT("/:id", h.UpdateDoctor)
		doctors.DELETE("/:id", h.DeleteDoctor)
		doctors.GET("/:id/appointments", h.ListAppointments)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.DoctorRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	doctor, err := h.service.CreateDoctor(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, doctor)
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	doctor, err := h.service.GetDoctor(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, doctor)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	page, err := h.Page(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithPagination(c, doctors, page, len(doctors))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.DoctorRequest
	if err := handler.Bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	doctor, err := h.service.UpdateDoctor(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, doctor)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.DeleteDoctor(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointments, err := h.service.ListAppointments(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}
