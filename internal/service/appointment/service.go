package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/internal/schedule"
	"github.com/aleisley/ta-backend/internal/service/event"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
	"github.com/aleisley/ta-backend/pkg/logger"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

type Service struct {
	store   repository.Store
	policy  schedule.Policy
	events  *event.Service
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(store repository.Store, policy schedule.Policy, events *event.Service, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   store,
		policy:  policy,
		events:  events,
		metrics: m,
		logger:  log.With("appointment-service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateAppointment(ctx context.Context, req *model.AppointmentRequest) (*model.Appointment, error) {
	apt := &model.Appointment{}
	req.Apply(apt)

	if err := s.validateWindow(apt); err != nil {
		return nil, err
	}

	apt.Touch(s.now())
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := s.checkConflicts(ctx, tx, apt, nil); err != nil {
			return err
		}
		if err := tx.Appointments().Create(ctx, apt); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx.Outbox(), event.AppointmentCreated, apt.ID, apt)
	})
	if err != nil {
		return nil, s.translate(err, "create")
	}

	s.metrics.ObserveWrite("create")
	s.logger.Info("appointment created",
		"appointment_id", apt.ID.String(),
		"doctor_id", apt.DoctorID.String())
	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.store.Appointments().Get(ctx, id)
	if err != nil {
		return nil, s.translate(err, "get")
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	appointments, err := s.store.Appointments().List(ctx, filter)
	if err != nil {
		return nil, s.translate(err, "list")
	}
	return appointments, nil
}

// UpdateAppointment replaces every field of an appointment. The conflict
// check runs against the schedule of the doctor named in req, which may
// differ from the current owner, and ignores the appointment itself.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.AppointmentRequest) (*model.Appointment, error) {
	candidate := &model.Appointment{}
	req.Apply(candidate)

	if err := s.validateWindow(candidate); err != nil {
		return nil, err
	}

	var apt *model.Appointment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		apt, err = tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}

		req.Apply(apt)
		if err := s.checkConflicts(ctx, tx, apt, &apt.ID); err != nil {
			return err
		}

		apt.Touch(s.now())
		if err := tx.Appointments().Update(ctx, apt); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx.Outbox(), event.AppointmentUpdated, apt.ID, apt)
	})
	if err != nil {
		return nil, s.translate(err, "update")
	}

	s.metrics.ObserveWrite("update")
	s.logger.Info("appointment updated",
		"appointment_id", apt.ID.String(),
		"doctor_id", apt.DoctorID.String())
	return apt, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Appointments().Delete(ctx, id); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx.Outbox(), event.AppointmentDeleted, id, nil)
	})
	if err != nil {
		return s.translate(err, "delete")
	}

	s.metrics.ObserveWrite("delete")
	s.logger.Info("appointment deleted", "appointment_id", id.String())
	return nil
}

func (s *Service) validateWindow(apt *model.Appointment) error {
	if err := s.policy.ValidateWindow(apt.StartDT.Time, apt.EndDT.Time); err != nil {
		return s.reject(err, apt)
	}
	return nil
}

// checkConflicts locks the target doctor so concurrent writers for the same
// doctor serialise, then scans its schedule.
func (s *Service) checkConflicts(ctx context.Context, tx repository.Store, apt *model.Appointment, exclude *uuid.UUID) error {
	if err := tx.Doctors().Lock(ctx, apt.DoctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("doctor", err)
		}
		return err
	}

	existing, err := tx.Appointments().ListByDoctor(ctx, apt.DoctorID)
	if err != nil {
		return err
	}

	if err := schedule.CheckConflict(existing, schedule.WindowOf(apt), exclude); err != nil {
		return s.reject(err, apt)
	}
	return nil
}

func (s *Service) reject(err error, apt *model.Appointment) error {
	var se *schedule.Error
	if !errors.As(err, &se) {
		return err
	}

	s.metrics.ObserveRejection(string(se.Kind))
	s.logger.Debug("appointment rejected",
		"reason", string(se.Kind),
		"doctor_id", apt.DoctorID.String(),
		"start_dt", apt.StartDT.String(),
		"end_dt", apt.EndDT.String())

	return apperrors.Unprocessable(string(se.Kind), se.Message, err)
}

func (s *Service) translate(err error, op string) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	case errors.Is(err, repository.ErrMissingDoctor):
		return apperrors.NotFound("doctor", err)
	}
	return fmt.Errorf("failed to %s appointment: %w", op, err)
}
