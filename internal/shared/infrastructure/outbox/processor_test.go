package outbox_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
)

type mockPublisher struct {
	mu          sync.Mutex
	published   []publishedMessage
	failForKeys map[string]bool
}

type publishedMessage struct {
	RoutingKey string
	Payload    []byte
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failForKeys: make(map[string]bool)}
}

func (p *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failForKeys[routingKey] {
		return errors.New("publish failed")
	}

	p.published = append(p.published, publishedMessage{
		RoutingKey: routingKey,
		Payload:    payload,
	})
	return nil
}

func (p *mockPublisher) Close() error {
	return nil
}

func (p *mockPublisher) PublishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func stagedMessage(routingKey string) *outbox.Message {
	payload, _ := json.Marshal(map[string]string{"appointment_id": uuid.NewString()})
	return &outbox.Message{
		AggregateType: "Appointment",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.appointment.scheduled")))
	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.appointment.cancelled")))

	err := processor.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, publisher.PublishedCount())
	for _, msg := range repo.Messages() {
		assert.True(t, msg.IsPublished())
	}

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
	assert.NotNil(t, stats.OldestMessageAt)
	assert.GreaterOrEqual(t, stats.LagSeconds, 0.0)
}

func TestProcessor_ProcessOnce_PublishFailure(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	publisher.failForKeys["rota.appointment.invalidated"] = true
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.appointment.scheduled")))
	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.appointment.invalidated")))

	err := processor.ProcessOnce(context.Background())

	require.NoError(t, err) // a publish failure never fails the batch
	assert.Equal(t, 1, publisher.PublishedCount())

	var failed *outbox.Message
	for _, msg := range repo.Messages() {
		if msg.RoutingKey == "rota.appointment.invalidated" {
			failed = msg
		}
	}
	require.NotNil(t, failed)
	assert.False(t, failed.IsPublished())
	assert.Equal(t, 1, failed.RetryCount)
	assert.NotNil(t, failed.NextRetryAt)
	require.NotNil(t, failed.LastError)
	assert.Contains(t, *failed.LastError, "publish failed")

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.PublishedCount)
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.NotNil(t, stats.LastErrorAt)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	publisher.failForKeys["rota.appointment.scheduled"] = true
	config := outbox.DefaultProcessorConfig()
	config.MaxRetries = 1
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.appointment.scheduled")))

	err := processor.ProcessOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, publisher.PublishedCount())

	msgs := repo.Messages()
	require.Len(t, msgs, 1)
	assert.NotNil(t, msgs[0].DeadLetteredAt)
	require.NotNil(t, msgs[0].DeadLetterReason)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.DeadCount)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	config := outbox.ProcessorConfig{
		PollInterval:     10 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: 1 * time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
	}
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	err := processor.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, processor.IsRunning())

	require.NoError(t, repo.Save(context.Background(), stagedMessage("rota.schedule.run_completed")))

	time.Sleep(50 * time.Millisecond)

	processor.Stop()
	assert.False(t, processor.IsRunning())

	assert.GreaterOrEqual(t, publisher.PublishedCount(), 1)
}

func TestProcessor_StartAndStopAreIdempotent(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	require.NoError(t, processor.Start(context.Background()))
	require.NoError(t, processor.Start(context.Background()))

	processor.Stop()
	processor.Stop()
	assert.False(t, processor.IsRunning())
}

func TestProcessor_GetStats(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	publisher := newMockPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	stats := processor.GetStats()
	assert.False(t, stats.IsRunning)

	require.NoError(t, processor.Start(context.Background()))
	stats = processor.GetStats()
	assert.True(t, stats.IsRunning)

	processor.Stop()
	stats = processor.GetStats()
	assert.False(t, stats.IsRunning)
}
