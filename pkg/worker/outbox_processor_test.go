package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aleisley/ta-backend/internal/model"
	"github.com/aleisley/ta-backend/internal/repository"
	"github.com/aleisley/ta-backend/internal/repository/memory"
	"github.com/aleisley/ta-backend/pkg/metrics"
)

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}

func (m *mockBroker) Close() error {
	return m.Called().Error(0)
}

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		MaxRetries:    2,
	}
}

func seedEvent(t *testing.T, repo repository.OutboxRepository, eventType string) *model.OutboxEvent {
	t.Helper()
	e := &model.OutboxEvent{
		EventType:   eventType,
		AggregateID: uuid.New(),
		Payload:     json.RawMessage(`{"type":"` + eventType + `"}`),
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func newProcessor(t *testing.T, repo repository.OutboxRepository, broker *mockBroker) (*OutboxProcessor, *metrics.Metrics) {
	t.Helper()
	m := metrics.New("test", prometheus.NewRegistry())
	p, err := NewOutboxProcessor(repo, broker, testConfig(), nil, m)
	require.NoError(t, err)
	return p, m
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BatchSize = 0
	_, err := NewOutboxProcessor(memory.NewStore().Outbox(), &mockBroker{}, cfg, nil, nil)
	assert.Error(t, err)
}

func TestProcessBatchWithoutMetrics(t *testing.T) {
	repo := memory.NewStore().Outbox()
	event := seedEvent(t, repo, "appointment.created")

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "appointment.created", []byte(event.Payload)).Return(nil).Once()

	p, err := NewOutboxProcessor(repo, broker, testConfig(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, p.ProcessBatch(context.Background()))
	broker.AssertExpectations(t)
}

func TestProcessBatchPublishes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Outbox()
	event := seedEvent(t, repo, "doctor.created")

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "doctor.created", []byte(event.Payload)).Return(nil).Once()

	p, m := newProcessor(t, repo, broker)
	require.NoError(t, p.ProcessBatch(ctx))

	broker.AssertExpectations(t)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsProcessed))

	pending, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessBatchRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Outbox()
	seedEvent(t, repo, "appointment.created")

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "appointment.created", mock.Anything).Return(errors.New("redis down"))

	p, m := newProcessor(t, repo, broker)

	// first poll: two attempts, event stays pending with one recorded retry
	require.NoError(t, p.ProcessBatch(ctx))
	broker.AssertNumberOfCalls(t, "Publish", 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxRetries.WithLabelValues("appointment.created")))

	pending, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	require.NotNil(t, pending[0].ErrorMessage)
	assert.Contains(t, *pending[0].ErrorMessage, "redis down")

	// second poll exhausts MaxRetries
	require.NoError(t, p.ProcessBatch(ctx))
	pending, err = repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OutboxEventsFailed))
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Outbox()
	seedEvent(t, repo, "doctor.deleted")
	seedEvent(t, repo, "doctor.updated")

	broker := &mockBroker{}
	broker.On("Publish", mock.Anything, "doctor.deleted", mock.Anything).Return(errors.New("boom"))
	broker.On("Publish", mock.Anything, "doctor.updated", mock.Anything).Return(nil)

	p, m := newProcessor(t, repo, broker)
	require.NoError(t, p.ProcessBatch(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestRetryStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		return errors.New("fail")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestOutboxCleanupWorker(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStore().Outbox()
	e := seedEvent(t, repo, "doctor.created")
	require.NoError(t, repo.UpdateStatus(ctx, e.ID, model.OutboxStatusProcessed, nil))
	seedEvent(t, repo, "doctor.updated")

	w := NewOutboxCleanupWorker(repo, time.Hour, time.Minute, nil)
	assert.Equal(t, int64(0), w.RunOnce(ctx))

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, int64(1), w.RunOnce(ctx))

	pending, err := repo.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
