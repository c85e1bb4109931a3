package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/internal/service/event"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
	"github.com/aleisley/ta-backend/pkg/logger"
)

type Service struct {
	store  repository.Store
	events *event.Service
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store repository.Store, events *event.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:  store,
		events: events,
		logger: log.With("doctor-service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.DoctorRequest) (*model.Doctor, error) {
	doctor := &model.Doctor{}
	req.Apply(doctor)
	doctor.Touch(s.now())

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Doctors().Create(ctx, doctor); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx.Outbox(), event.DoctorCreated, doctor.ID, doctor)
	})
	if err != nil {
		return nil, translate(err, "create")
	}

	doctor.Appointments = []*model.Appointment{}
	s.logger.Info("doctor created", "doctor_id", doctor.ID.String())
	return doctor, nil
}

// GetDoctor returns the doctor with its appointments attached.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.store.Doctors().Get(ctx, id)
	if err != nil {
		return nil, translate(err, "get")
	}

	doctor.Appointments, err = s.store.Appointments().ListByDoctor(ctx, id)
	if err != nil {
		return nil, translate(err, "get")
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, page model.Page) ([]*model.Doctor, error) {
	doctors, err := s.store.Doctors().List(ctx, page)
	if err != nil {
		return nil, translate(err, "list")
	}

	ids := make([]uuid.UUID, len(doctors))
	for i, d := range doctors {
		ids[i] = d.ID
	}
	grouped, err := s.store.Appointments().ListByDoctors(ctx, ids)
	if err != nil {
		return nil, translate(err, "list")
	}

	for _, d := range doctors {
		d.Appointments = grouped[d.ID]
		if d.Appointments == nil {
			d.Appointments = []*model.Appointment{}
		}
	}
	return doctors, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.DoctorRequest) (*model.Doctor, error) {
	var doctor *model.Doctor
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		doctor, err = tx.Doctors().Get(ctx, id)
		if err != nil {
			return err
		}
		req.Apply(doctor)
		doctor.Touch(s.now())

		if err := tx.Doctors().Update(ctx, doctor); err != nil {
			return err
		}
		if err := s.events.Emit(ctx, tx.Outbox(), event.DoctorUpdated, doctor.ID, doctor); err != nil {
			return err
		}

		doctor.Appointments, err = tx.Appointments().ListByDoctor(ctx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "update")
	}

	s.logger.Info("doctor updated", "doctor_id", id.String())
	return doctor, nil
}

// DeleteDoctor removes the doctor and, by cascade, its appointments.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Doctors().Delete(ctx, id); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx.Outbox(), event.DoctorDeleted, id, nil)
	})
	if err != nil {
		return translate(err, "delete")
	}

	s.logger.Info("doctor deleted", "doctor_id", id.String())
	return nil
}

// ListAppointments returns a doctor's appointments ordered by start.
func (s *Service) ListAppointments(ctx context.Context, id uuid.UUID) ([]*model.Appointment, error) {
	if _, err := s.store.Doctors().Get(ctx, id); err != nil {
		return nil, translate(err, "get")
	}

	appointments, err := s.store.Appointments().ListByDoctor(ctx, id)
	if err != nil {
		return nil, translate(err, "list appointments for")
	}
	return appointments, nil
}

func translate(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("doctor", err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.Conflict("duplicate_email", "a doctor with this email already exists", err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return fmt.Errorf("failed to %s doctor: %w", op, err)
}
