package doctor

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository/memory"
	"github.com/aleisley/ta-backend/internal/service/event"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
)

func request(email string) *model.DoctorRequest {
	return &model.DoctorRequest{FirstName: " Ana ", LastName: "Cruz", Email: email}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode()
}

func TestCreateDoctor(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, event.NewService(), nil)

	d, err := svc.CreateDoctor(ctx, request("Ana@Clinic.test"))
	require.NoError(t, err)
	assert.Equal(t, "Ana", d.FirstName)
	assert.Equal(t, "ana@clinic.test", d.Email)
	assert.NotNil(t, d.Appointments)
	assert.False(t, d.CreatedAt.IsZero())

	_, err = svc.CreateDoctor(ctx, request("ana@clinic.test"))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	events, err := store.Outbox().GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(event.DoctorCreated), events[0].EventType)
	assert.Equal(t, d.ID, events[0].AggregateID)
}

func TestGetDoctorEmbedsAppointments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil, nil)

	d, err := svc.CreateDoctor(ctx, request("ana@clinic.test"))
	require.NoError(t, err)

	start := time.Date(2024, time.March, 4, 1, 0, 0, 0, time.UTC)
	apt := &model.Appointment{
		PatientName: "Juan",
		StartDT:     model.NewDateTime(start),
		EndDT:       model.NewDateTime(start.Add(time.Hour)),
		DoctorID:    d.ID,
	}
	apt.Touch(time.Now().UTC())
	require.NoError(t, store.Appointments().Create(ctx, apt))

	got, err := svc.GetDoctor(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, got.Appointments, 1)
	assert.Equal(t, apt.ID, got.Appointments[0].ID)

	list, err := svc.ListDoctors(ctx, model.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Appointments, 1)

	appointments, err := svc.ListAppointments(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)

	_, err = svc.GetDoctor(ctx, uuid.New())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	_, err = svc.ListAppointments(ctx, uuid.New())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	// nil event service records nothing
	events, err := store.Outbox().GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateDoctor(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), nil, nil)

	ana, err := svc.CreateDoctor(ctx, request("ana@clinic.test"))
	require.NoError(t, err)
	_, err = svc.CreateDoctor(ctx, request("ben@clinic.test"))
	require.NoError(t, err)

	updated, err := svc.UpdateDoctor(ctx, ana.ID, &model.DoctorRequest{FirstName: "Anna", LastName: "Reyes", Email: "ana@clinic.test"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.FirstName)
	assert.Equal(t, ana.CreatedAt, updated.CreatedAt)
	assert.NotNil(t, updated.Appointments)

	_, err = svc.UpdateDoctor(ctx, ana.ID, request("ben@clinic.test"))
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = svc.UpdateDoctor(ctx, uuid.New(), request("new@clinic.test"))
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDeleteDoctorCascades(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil, nil)

	d, err := svc.CreateDoctor(ctx, request("ana@clinic.test"))
	require.NoError(t, err)

	start := time.Date(2024, time.March, 4, 1, 0, 0, 0, time.UTC)
	apt := &model.Appointment{PatientName: "Juan", StartDT: model.NewDateTime(start), EndDT: model.NewDateTime(start.Add(time.Hour)), DoctorID: d.ID}
	apt.Touch(time.Now().UTC())
	require.NoError(t, store.Appointments().Create(ctx, apt))

	require.NoError(t, svc.DeleteDoctor(ctx, d.ID))
	_, err = store.Appointments().Get(ctx, apt.ID)
	assert.Error(t, err)

	err = svc.DeleteDoctor(ctx, d.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
