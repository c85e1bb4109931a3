package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
)

type Type string

const (
	DoctorCreated      Type = "doctor.created"
	DoctorUpdated      Type = "doctor.updated"
	DoctorDeleted      Type = "doctor.deleted"
	AppointmentCreated Type = "appointment.created"
	AppointmentUpdated Type = "appointment.updated"
	AppointmentDeleted Type = "appointment.deleted"
)

// Envelope is the JSON body stored in the outbox and published as is.
type Envelope struct {
	ID          uuid.UUID   `json:"id"`
	Type        Type        `json:"type"`
	AggregateID uuid.UUID   `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data,omitempty"`
}

// Service records change events in the outbox. A nil *Service records
// nothing, which is how the relay is switched off.
type Service struct {
	now func() time.Time
}

func NewService() *Service {
	return &Service{now: func() time.Time { return time.Now().UTC() }}
}

// Emit writes an event through outbox, which should belong to the same
// transaction as the change it describes.
func (s *Service) Emit(ctx context.Context, outbox repository.OutboxRepository, eventType Type, aggregateID uuid.UUID, data interface{}) error {
	if s == nil {
		return nil
	}

	env := Envelope{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  s.now(),
		Data:        data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:          env.ID,
		EventType:   string(eventType),
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      model.OutboxStatusPending,
		CreatedAt:   env.OccurredAt,
	}
	if err := outbox.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
