package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/reelmint/reelmint/internal/generation"
)

const (
	DefaultQueue = "generation"
	// Retries resume polling thanks to the run reference guard; they only
	// resubmit when the first attempt died before recording the reference.
	MaxJobRetries = 3

	maxWorkers = 32
)

// Client wraps the River client and is the durable-suspend front door: a
// dispatched job survives process restarts and is picked up again by any
// worker.
type Client struct {
	*river.Client[pgx.Tx]
}

var _ generation.Trigger = (*Client)(nil)

func NewClient(ctx context.Context, pool *pgxpool.Pool, orchestrator *generation.Orchestrator) (*Client, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewGenerationWorker(orchestrator))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			DefaultQueue: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, err
	}

	return &Client{Client: riverClient}, nil
}

func (c *Client) Dispatch(ctx context.Context, jobID uuid.UUID) error {
	_, err := c.Insert(ctx, GenerationArgs{JobID: jobID}, &river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	})
	return err
}
