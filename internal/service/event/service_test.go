package event

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository/memory"
)

func TestEmitWritesEnvelope(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewStore().Outbox()

	s := NewService()
	fixed := time.Date(2024, time.March, 4, 1, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	id := uuid.New()
	require.NoError(t, s.Emit(ctx, outbox, DoctorCreated, id, map[string]string{"email": "ana@clinic.test"}))

	events, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, "doctor.created", e.EventType)
	assert.Equal(t, id, e.AggregateID)
	assert.Equal(t, model.OutboxStatusPending, e.Status)

	var env struct {
		ID          uuid.UUID         `json:"id"`
		Type        string            `json:"type"`
		AggregateID uuid.UUID         `json:"aggregate_id"`
		OccurredAt  time.Time         `json:"occurred_at"`
		Data        map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(e.Payload, &env))
	assert.Equal(t, e.ID, env.ID)
	assert.Equal(t, "doctor.created", env.Type)
	assert.True(t, fixed.Equal(env.OccurredAt))
	assert.Equal(t, "ana@clinic.test", env.Data["email"])
}

func TestNilServiceIsNoop(t *testing.T) {
	ctx := context.Background()
	outbox := memory.NewStore().Outbox()

	var s *Service
	require.NoError(t, s.Emit(ctx, outbox, DoctorDeleted, uuid.New(), nil))

	events, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
