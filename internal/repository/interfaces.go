package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
)

var (
	// ErrNotFound is returned when a lookup or write targets a missing row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a doctor's email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrMissingDoctor is returned when an appointment references an unknown doctor.
	ErrMissingDoctor = errors.New("referenced doctor does not exist")
)

// All repository interfaces in one file
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, page model.Page) ([]*model.Doctor, error)
		// Lock blocks other writers of the doctor until the transaction ends.
		Lock(ctx context.Context, id uuid.UUID) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error)
		// ListByDoctor returns a doctor's appointments ordered by start.
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		// ListByDoctors groups appointments by doctor id.
		ListByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID][]*model.Appointment, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		IncrementRetry(ctx context.Context, id uuid.UUID) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store groups the repositories over one backend. Repositories returned
	// from the Store passed to WithTx's callback share its transaction.
	Store interface {
		Doctors() DoctorRepository
		Appointments() AppointmentRepository
		Outbox() OutboxRepository
		WithTx(ctx context.Context, fn func(Store) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
