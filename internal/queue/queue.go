package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DispatchJob asks a consumer to run a dispatch pass for one campaign.
type DispatchJob struct {
	CampaignID int64 `json:"campaign_id"`
}

// Queue hands dispatch jobs from the API server to whoever runs the
// dispatcher. The in-memory implementation runs jobs in-process; the AMQP
// one hands them to the worker binary.
type Queue interface {
	Publish(ctx context.Context, job DispatchJob) error
	Subscribe(handler func(ctx context.Context, job DispatchJob) error) error
	Close() error
}

// InMemoryQueue runs dispatch jobs on goroutines in the publishing process.
// Used for single-process deployments and tests.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   []func(ctx context.Context, job DispatchJob) error
	maxRetries int
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{maxRetries: 3}
}

func (q *InMemoryQueue) Publish(ctx context.Context, job DispatchJob) error {
	q.mu.Lock()
	handlers := make([]func(ctx context.Context, job DispatchJob) error, len(q.handlers))
	copy(handlers, q.handlers)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for dispatch jobs")
	}

	for _, handler := range handlers {
		go q.processJob(handler, job)
	}
	return nil
}

func (q *InMemoryQueue) processJob(handler func(ctx context.Context, job DispatchJob) error, job DispatchJob) {
	for attempt := 0; ; attempt++ {
		err := handler(context.Background(), job)
		if err == nil {
			return
		}
		if attempt >= q.maxRetries {
			return
		}
		// Backoff grows with each attempt before the job is retried.
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
}

func (q *InMemoryQueue) Subscribe(handler func(ctx context.Context, job DispatchJob) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
	return nil
}

func (q *InMemoryQueue) Close() error { return nil }

var _ Queue = (*InMemoryQueue)(nil)
