package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
)

type outboxRepository struct {
	store *Store
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}
	return r.store.locked(func(st *state) error {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now().UTC()
		}
		event.UpdatedAt = event.CreatedAt
		if event.Status == "" {
			event.Status = model.OutboxStatusPending
		}
		st.outbox[event.ID] = copyEvent(event)
		return nil
	})
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	var events []*model.OutboxEvent
	err := r.store.locked(func(st *state) error {
		for _, e := range st.outbox {
			if e.Status == model.OutboxStatusPending {
				events = append(events, copyEvent(e))
			}
		}
		return nil
	})
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, err
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	return r.store.locked(func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		now := time.Now().UTC()
		e.Status = status
		e.ErrorMessage = errorMessage
		e.UpdatedAt = now
		if status == model.OutboxStatusProcessed {
			e.ProcessedAt = &now
		}
		return nil
	})
}

func (r *outboxRepository) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	return r.store.locked(func(st *state) error {
		e, ok := st.outbox[id]
		if !ok {
			return repository.ErrNotFound
		}
		e.RetryCount++
		e.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := r.store.locked(func(st *state) error {
		for id, e := range st.outbox {
			if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
				delete(st.outbox, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}
