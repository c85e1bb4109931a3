package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
)

type doctorRepository struct {
	store *Store
}

func emailTaken(st *state, email string, except uuid.UUID) bool {
	for id, d := range st.doctors {
		if id != except && strings.EqualFold(d.Email, email) {
			return true
		}
	}
	return false
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	return r.store.locked(func(st *state) error {
		if emailTaken(st, doctor.Email, uuid.Nil) {
			return repository.ErrDuplicateEmail
		}
		st.doctors[doctor.ID] = copyDoctor(doctor)
		return nil
	})
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor *model.Doctor
	err := r.store.locked(func(st *state) error {
		d, ok := st.doctors[id]
		if !ok {
			return repository.ErrNotFound
		}
		doctor = copyDoctor(d)
		return nil
	})
	return doctor, err
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	return r.store.locked(func(st *state) error {
		existing, ok := st.doctors[doctor.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if emailTaken(st, doctor.Email, doctor.ID) {
			return repository.ErrDuplicateEmail
		}
		updated := copyDoctor(doctor)
		updated.CreatedAt = existing.CreatedAt
		st.doctors[doctor.ID] = updated
		return nil
	})
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.locked(func(st *state) error {
		if _, ok := st.doctors[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.doctors, id)
		for aid, a := range st.appointments {
			if a.DoctorID == id {
				delete(st.appointments, aid)
			}
		}
		return nil
	})
}

func (r *doctorRepository) List(ctx context.Context, page model.Page) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	err := r.store.locked(func(st *state) error {
		all := make([]*model.Doctor, 0, len(st.doctors))
		for _, d := range st.doctors {
			all = append(all, copyDoctor(d))
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
			return all[i].ID.String() < all[j].ID.String()
		})
		doctors = paginate(all, page)
		return nil
	})
	return doctors, err
}

// Lock only checks existence; the transaction already holds the store mutex.
func (r *doctorRepository) Lock(ctx context.Context, id uuid.UUID) error {
	return r.store.locked(func(st *state) error {
		if _, ok := st.doctors[id]; !ok {
			return repository.ErrNotFound
		}
		return nil
	})
}
