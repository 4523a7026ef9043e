package scheduler

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"logistica_backend/platform/config"
)

// Enqueuer pushes scheduler jobs onto the Redis queue.
type Enqueuer struct {
	client *asynq.Client
	queue  string
}

// NewEnqueuer creates an enqueuer from the scheduler configuration.
func NewEnqueuer(cfg config.SchedulerConfig) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Enqueuer{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
	}, nil
}

// EnqueueOverdueScan queues one overdue scan run.
func (e *Enqueuer) EnqueueOverdueScan(ctx context.Context) error {
	_, err := e.client.EnqueueContext(ctx, NewOverdueScanTask(), asynq.Queue(e.queue))
	if err != nil {
		return fmt.Errorf("enqueue overdue scan: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
