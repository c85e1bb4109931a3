package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
)

type appointmentRepository struct {
	store *Store
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return r.store.locked(func(st *state) error {
		if _, ok := st.doctors[appointment.DoctorID]; !ok {
			return repository.ErrMissingDoctor
		}
		st.appointments[appointment.ID] = copyAppointment(appointment)
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment *model.Appointment
	err := r.store.locked(func(st *state) error {
		a, ok := st.appointments[id]
		if !ok {
			return repository.ErrNotFound
		}
		appointment = copyAppointment(a)
		return nil
	})
	return appointment, err
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	return r.store.locked(func(st *state) error {
		existing, ok := st.appointments[appointment.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.doctors[appointment.DoctorID]; !ok {
			return repository.ErrMissingDoctor
		}
		updated := copyAppointment(appointment)
		updated.CreatedAt = existing.CreatedAt
		st.appointments[appointment.ID] = updated
		return nil
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.locked(func(st *state) error {
		if _, ok := st.appointments[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.appointments, id)
		return nil
	})
}

func (r *appointmentRepository) List(ctx context.Context, filter *model.AppointmentFilter) ([]*model.Appointment, error) {
	if filter == nil {
		filter = &model.AppointmentFilter{}
	}
	var appointments []*model.Appointment
	err := r.store.locked(func(st *state) error {
		matched := make([]*model.Appointment, 0)
		for _, a := range st.appointments {
			if filter.Matches(a) {
				matched = append(matched, copyAppointment(a))
			}
		}
		sortAppointments(matched)
		appointments = paginate(matched, filter.Page)
		return nil
	})
	return appointments, err
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	grouped, err := r.ListByDoctors(ctx, []uuid.UUID{doctorID})
	if err != nil {
		return nil, err
	}
	list := grouped[doctorID]
	if list == nil {
		list = []*model.Appointment{}
	}
	return list, nil
}

func (r *appointmentRepository) ListByDoctors(ctx context.Context, doctorIDs []uuid.UUID) (map[uuid.UUID][]*model.Appointment, error) {
	wanted := make(map[uuid.UUID]bool, len(doctorIDs))
	for _, id := range doctorIDs {
		wanted[id] = true
	}
	grouped := make(map[uuid.UUID][]*model.Appointment)
	err := r.store.locked(func(st *state) error {
		for _, a := range st.appointments {
			if wanted[a.DoctorID] {
				grouped[a.DoctorID] = append(grouped[a.DoctorID], copyAppointment(a))
			}
		}
		return nil
	})
	for _, list := range grouped {
		sortAppointments(list)
	}
	return grouped, err
}
