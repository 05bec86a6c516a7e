package queue

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// CampaignSends is the queue carrying delivery tasks.
const CampaignSends = "campaign_sends"

// Task identifies one delivery attempt. The (campaign, recipient) pair is the
// exactly-once key end to end: the dispatcher pre-checks it and the delivery
// log's unique constraint enforces it.
type Task struct {
	CampaignID  int `json:"campaign_id"`
	RecipientID int `json:"recipient_id"`
}

type Handler func(Task) error

// Queue decouples the dispatcher from the workers executing delivery tasks.
// Subscribe blocks for broker-backed implementations and only registers the
// handler for the in-memory one; both deliver each published task to the
// handler at least once, and the delivery log constraint absorbs any extra.
type Queue interface {
	Publish(queueName string, task Task) error
	Subscribe(ctx context.Context, queueName string, handler Handler) error
	Close() error
}

// InMemoryQueue hands published tasks straight to the registered handlers.
// The handler is expected to do its own buffering (the worker pool does), so
// Publish applies backpressure rather than spawning a goroutine per task.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	log      *zap.Logger
}

func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Publish sends a task to every subscriber of the queue.
func (q *InMemoryQueue) Publish(queueName string, task Task) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[queueName]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for queue %s", queueName)
	}

	for _, handler := range handlers {
		if err := handler(task); err != nil {
			q.log.Error("task handler failed",
				zap.String("queue", queueName),
				zap.Int("campaign_id", task.CampaignID),
				zap.Int("recipient_id", task.RecipientID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Subscribe adds a handler for a queue and returns immediately.
func (q *InMemoryQueue) Subscribe(_ context.Context, queueName string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[queueName] = append(q.handlers[queueName], handler)
	return nil
}

func (q *InMemoryQueue) Close() error { return nil }

var _ Queue = (*InMemoryQueue)(nil)
