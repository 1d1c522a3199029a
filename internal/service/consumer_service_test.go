package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *recordingForwarder) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *recordingForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestConsumerRecordsAuditAndForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	db := newMemDB()
	fwd := &recordingForwarder{}
	consumer := NewConsumerService(pubSub, "turns", fakeFactory{db: db}, fwd, logger.NewNop())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("turns", pubSub)

	require.NoError(t, publisher.Publish(ctx, []byte("not json")))

	payload, err := json.Marshal(events.TurnCompleted{
		EventID:      "e-1",
		ThreadID:     "thread-9",
		DomainStream: "scm",
		QuestionType: "non-general",
		Succeeded:    false,
		ErrorKind:    "execution",
		ErrorMessage: "Error executing query: timeout",
		OccurredAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, payload))

	assert.Eventually(t, func() bool { return db.auditCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return fwd.count() == 1 }, time.Second, 10*time.Millisecond)

	audits, err := fakeFactory{db: db}.NewUnitOfWork(ctx).TurnAuditRepository().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, "thread-9", audits[0].ThreadId)
	assert.Equal(t, "execution", audits[0].ErrorKind)
	assert.Equal(t, "Error executing query: timeout", audits[0].Details["error_message"])
}
