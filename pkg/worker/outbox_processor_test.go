package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glamparlor/booking-api/internal/model"
	"github.com/glamparlor/booking-api/pkg/logger"
	"github.com/glamparlor/booking-api/pkg/messaging"
	"github.com/glamparlor/booking-api/pkg/metrics"
)

// Prometheus collectors register globally; one set serves every test here.
var testMetrics = metrics.NewMetrics("booking_worker_test")

type fakeOutboxRepo struct {
	batches   [][]*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
}

func (r *fakeOutboxRepo) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.batches) == 0 {
		return nil, nil
	}
	batch := r.batches[0]
	r.batches = r.batches[1:]
	return batch, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error {
	if r.failed == nil {
		r.failed = make(map[uuid.UUID]string)
	}
	r.failed[id] = msg
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	published []messaging.Message
	err       error
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message.(messaging.Message))
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func event(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   []byte(`{"appointment_id":"1e09c7a2-0000-0000-0000-000000000000"}`),
		Status:    model.OutboxStatusProcessing,
	}
}

func newProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), testMetrics)
}

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	created := event(model.EventAppointmentCreated)
	cancelled := event(model.EventAppointmentCancelled)
	repo := &fakeOutboxRepo{batches: [][]*model.OutboxEvent{{created, cancelled}}}
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 2)
	assert.Equal(t, model.EventAppointmentCreated, broker.published[0].Type)
	assert.Equal(t, model.EventAppointmentCancelled, broker.published[1].Type)
	assert.Equal(t, []uuid.UUID{created.ID, cancelled.ID}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessEventsPublishFailureMarksFailed(t *testing.T) {
	ev := event(model.EventAppointmentCreated)
	repo := &fakeOutboxRepo{batches: [][]*model.OutboxEvent{{ev}}}
	broker := &fakeBroker{err: errors.New("broker unavailable")}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, repo.processed)
	require.Contains(t, repo.failed, ev.ID)
	assert.Equal(t, "broker unavailable", repo.failed[ev.ID])
}

func TestProcessEventsEmptyBatch(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := &fakeBroker{}
	p := newProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))
	assert.Empty(t, broker.published)
}
