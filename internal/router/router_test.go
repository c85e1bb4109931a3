package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/repository/memory"
	"github.com/aleisley/ta-backend/internal/service/appointment"
	"github.com/aleisley/ta-backend/internal/service/doctor"
	"github.com/aleisley/ta-backend/internal/service/event"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Skip  int `json:"skip"`
		Limit int `json:"limit"`
		Count int `json:"count"`
	} `json:"pagination"`
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
	TraceID string `json:"trace_id"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.RateLimit.Enabled = false

	policy, err := cfg.Clinic.Policy()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	store := memory.NewStore()
	events := event.NewService()

	r := NewRouter(cfg, Dependencies{
		Store:        store,
		Doctors:      doctor.NewService(store, events, nil),
		Appointments: appointment.NewService(store, policy, events, m, nil),
		Metrics:      m,
		Gatherer:     reg,
	})
	return &api{t: t, engine: r.Engine()}
}

func (a *api) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

type doctorBody struct {
	ID           string            `json:"id"`
	FirstName    string            `json:"first_name"`
	Email        string            `json:"email"`
	Appointments []appointmentBody `json:"appointments"`
}

type appointmentBody struct {
	ID          string  `json:"id"`
	PatientName string  `json:"patient_name"`
	Comment     *string `json:"comment"`
	StartDT     string  `json:"start_dt"`
	EndDT       string  `json:"end_dt"`
	DoctorID    string  `json:"doctor_id"`
}

func (a *api) createDoctor(email string) doctorBody {
	a.t.Helper()
	w, env := a.do(http.MethodPost, "/doctors", map[string]string{
		"first_name": "Ana",
		"last_name":  "Cruz",
		"email":      email,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var d doctorBody
	require.NoError(a.t, json.Unmarshal(env.Data, &d))
	return d
}

// Timestamps are naive UTC; Manila is UTC+8, so 01:00Z is 09:00 local.
func appointmentRequest(doctorID, start, end string) map[string]interface{} {
	return map[string]interface{}{
		"patient_name": "Juan Dela Cruz",
		"start_dt":     start,
		"end_dt":       end,
		"doctor_id":    doctorID,
	}
}

func TestDoctorEndpoints(t *testing.T) {
	a := newAPI(t)

	d := a.createDoctor("Ana@Clinic.test")
	assert.Equal(t, "ana@clinic.test", d.Email)
	assert.NotNil(t, d.Appointments)

	w, env := a.do(http.MethodPost, "/doctors", map[string]string{"first_name": "B", "last_name": "C", "email": "ana@clinic.test"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_email", env.Reason)

	w, env = a.do(http.MethodPost, "/doctors", map[string]string{"first_name": " ", "last_name": "C", "email": "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["first_name"])
	assert.True(t, fields["email"])

	w, env = a.do(http.MethodPost, "/doctors", `{"first_name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
	assert.NotEmpty(t, env.TraceID)

	w, env = a.do(http.MethodGet, "/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var got doctorBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, d.ID, got.ID)

	w, _ = a.do(http.MethodPut, "/doctors/"+d.ID, map[string]string{"first_name": "Anna", "last_name": "Cruz", "email": "anna@clinic.test"})
	assert.Equal(t, http.StatusOK, w.Code)

	a.createDoctor("ben@clinic.test")
	w, env = a.do(http.MethodGet, "/doctors?skip=1&limit=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Skip)
	assert.Equal(t, 1, env.Pagination.Limit)
	assert.Equal(t, 1, env.Pagination.Count)

	w, _ = a.do(http.MethodGet, "/doctors?limit=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env = a.do(http.MethodGet, "/doctors/not-a-uuid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "id", env.Errors[0].Field)

	w, _ = a.do(http.MethodDelete, "/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w, env = a.do(http.MethodGet, "/doctors/"+d.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Reason)
}

func TestAppointmentScheduling(t *testing.T) {
	a := newAPI(t)
	d := a.createDoctor("ana@clinic.test")

	// Monday 2024-03-04, 10:00-11:00 Manila
	w, env := a.do(http.MethodPost, "/appointments", appointmentRequest(d.ID, "2024-03-04T02:00:00", "2024-03-04T03:00:00"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first appointmentBody
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, "2024-03-04T02:00:00", first.StartDT)
	assert.Equal(t, "2024-03-04T03:00:00", first.EndDT)
	assert.Nil(t, first.Comment)

	tests := []struct {
		name   string
		start  string
		end    string
		status int
		reason string
	}{
		{"overlap", "2024-03-04T02:30:00", "2024-03-04T03:30:00", http.StatusUnprocessableEntity, "overlapping_appointment"},
		{"touching is allowed", "2024-03-04T03:00:00", "2024-03-04T04:00:00", http.StatusCreated, ""},
		{"sunday", "2024-03-03T02:00:00", "2024-03-03T03:00:00", http.StatusUnprocessableEntity, "non_operating_day"},
		{"before opening", "2024-03-04T00:00:00", "2024-03-04T01:30:00", http.StatusUnprocessableEntity, "outside_business_hours"},
		{"after closing", "2024-03-04T08:30:00", "2024-03-04T09:30:00", http.StatusUnprocessableEntity, "outside_business_hours"},
		{"inverted", "2024-03-04T05:00:00", "2024-03-04T04:00:00", http.StatusUnprocessableEntity, "inverted_window"},
		{"cross day", "2024-03-04T08:00:00", "2024-03-05T02:00:00", http.StatusUnprocessableEntity, "cross_day_appointment"},
		{"offset input rejected", "2024-03-04T13:00:00+08:00", "2024-03-04T14:00:00+08:00", http.StatusUnprocessableEntity, "invalid_request"},
		{"rfc3339 utc input", "2024-03-04T05:00:00Z", "2024-03-04T06:00:00Z", http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := a.do(http.MethodPost, "/appointments", appointmentRequest(d.ID, tt.start, tt.end))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.reason, env.Reason)
			if tt.reason != "" {
				assert.NotEmpty(t, env.Message)
			}
		})
	}

	w, env = a.do(http.MethodPost, "/appointments", appointmentRequest("1b4e28ba-2fa1-11d2-883f-0016d3cca427", "2024-03-04T02:00:00", "2024-03-04T03:00:00"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "doctor not found", env.Message)

	w, env = a.do(http.MethodPost, "/appointments", map[string]interface{}{"patient_name": "x", "doctor_id": d.ID, "start_dt": "yesterday", "end_dt": "2024-03-04T03:00:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, env = a.do(http.MethodPost, "/appointments", map[string]interface{}{"patient_name": "x", "doctor_id": d.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, env.Errors, 2)

	w, env = a.do(http.MethodGet, "/doctors/"+d.ID+"/appointments", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var own []appointmentBody
	require.NoError(t, json.Unmarshal(env.Data, &own))
	require.Len(t, own, 3)
	assert.Equal(t, first.ID, own[0].ID)
	assert.Equal(t, "2024-03-04T05:00:00", own[2].StartDT)
}

func TestAppointmentUpdateAndDelete(t *testing.T) {
	a := newAPI(t)
	ana := a.createDoctor("ana@clinic.test")
	ben := a.createDoctor("ben@clinic.test")

	_, env := a.do(http.MethodPost, "/appointments", appointmentRequest(ana.ID, "2024-03-04T02:00:00", "2024-03-04T03:00:00"))
	var apt appointmentBody
	require.NoError(t, json.Unmarshal(env.Data, &apt))

	w, _ := a.do(http.MethodPost, "/appointments", appointmentRequest(ben.ID, "2024-03-04T02:00:00", "2024-03-04T03:00:00"))
	require.Equal(t, http.StatusCreated, w.Code)

	// shifting within its own slot does not conflict with itself
	w, env = a.do(http.MethodPut, "/appointments/"+apt.ID, appointmentRequest(ana.ID, "2024-03-04T02:30:00", "2024-03-04T03:30:00"))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// moving onto ben's booked slot does
	w, env = a.do(http.MethodPut, "/appointments/"+apt.ID, appointmentRequest(ben.ID, "2024-03-04T02:30:00", "2024-03-04T03:30:00"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "overlapping_appointment", env.Reason)

	w, _ = a.do(http.MethodPut, "/appointments/"+apt.ID, appointmentRequest(ben.ID, "2024-03-04T05:00:00", "2024-03-04T06:00:00"))
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = a.do(http.MethodGet, "/appointments/"+apt.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var moved appointmentBody
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, ben.ID, moved.DoctorID)

	w, _ = a.do(http.MethodPut, "/appointments/1b4e28ba-2fa1-11d2-883f-0016d3cca427", appointmentRequest(ben.ID, "2024-03-04T07:00:00", "2024-03-04T08:00:00"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = a.do(http.MethodDelete, "/appointments/"+apt.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = a.do(http.MethodDelete, "/appointments/"+apt.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAppointmentsFilters(t *testing.T) {
	a := newAPI(t)
	ana := a.createDoctor("ana@clinic.test")
	ben := a.createDoctor("ben@clinic.test")

	for _, req := range []map[string]interface{}{
		appointmentRequest(ana.ID, "2024-03-04T02:00:00", "2024-03-04T03:00:00"),
		appointmentRequest(ana.ID, "2024-03-05T02:00:00", "2024-03-05T03:00:00"),
		appointmentRequest(ben.ID, "2024-03-06T02:00:00", "2024-03-06T03:00:00"),
	} {
		w, _ := a.do(http.MethodPost, "/appointments", req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	tests := []struct {
		query string
		count int
	}{
		{"", 3},
		{"?start_date=2024-03-05", 2},
		{"?end_date=2024-03-05", 2},
		{"?start_date=2024-03-05&end_date=2024-03-05", 1},
		{"?doctor_id=" + ben.ID, 1},
		{"?limit=2", 2},
		{"?skip=2", 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, env := a.do(http.MethodGet, "/appointments"+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var list []appointmentBody
			require.NoError(t, json.Unmarshal(env.Data, &list))
			assert.Len(t, list, tt.count)
			assert.Equal(t, tt.count, env.Pagination.Count)
		})
	}

	w, env := a.do(http.MethodGet, "/appointments?start_date=03/05/2024&doctor_id=x", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Len(t, env.Errors, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w, _ := a.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = a.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())

	w, _ = a.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")

	w, _ = a.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
