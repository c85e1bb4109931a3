// Package memory is a process-local repository.Store. Transactions run one
// at a time under a single mutex and are rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
)

type state struct {
	doctors      map[uuid.UUID]*model.Doctor
	appointments map[uuid.UUID]*model.Appointment
	outbox       map[uuid.UUID]*model.OutboxEvent
}

func newState() *state {
	return &state{
		doctors:      make(map[uuid.UUID]*model.Doctor),
		appointments: make(map[uuid.UUID]*model.Appointment),
		outbox:       make(map[uuid.UUID]*model.OutboxEvent),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, d := range s.doctors {
		c.doctors[id] = copyDoctor(d)
	}
	for id, a := range s.appointments {
		c.appointments[id] = copyAppointment(a)
	}
	for id, e := range s.outbox {
		c.outbox[id] = copyEvent(e)
	}
	return c
}

type Store struct {
	mu   *sync.Mutex
	data **state
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, data: &st}
}

// locked runs fn with the store mutex held, unless the caller is already
// inside WithTx and therefore holds it.
func (s *Store) locked(fn func(st *state) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(*s.data)
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{store: s}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{store: s}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{store: s}
}

// WithTx runs fn with exclusive access to the store. If fn returns an error
// or panics every change it made is discarded.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := (*s.data).clone()
	defer func() {
		if p := recover(); p != nil {
			*s.data = snapshot
			panic(p)
		}
		if err != nil {
			*s.data = snapshot
		}
	}()

	tx := &Store{mu: s.mu, data: s.data, inTx: true}
	return fn(tx)
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func paginate[T any](items []T, page model.Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	items = items[page.Skip:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func sortAppointments(list []*model.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartDT.Equal(list[j].StartDT.Time) {
			return list[i].StartDT.Before(list[j].StartDT.Time)
		}
		return list[i].ID.String() < list[j].ID.String()
	})
}

func copyDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	c.Appointments = nil
	return &c
}

func copyAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	if a.Comment != nil {
		comment := *a.Comment
		c.Comment = &comment
	}
	return &c
}

func copyEvent(e *model.OutboxEvent) *model.OutboxEvent {
	c := *e
	c.Payload = append([]byte(nil), e.Payload...)
	if e.ErrorMessage != nil {
		msg := *e.ErrorMessage
		c.ErrorMessage = &msg
	}
	if e.ProcessedAt != nil {
		at := *e.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}
