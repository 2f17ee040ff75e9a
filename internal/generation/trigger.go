package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Trigger starts an orchestration run for a job. Implementations must return
// before the job reaches a terminal state; the two front doors (durable queue
// and in-process background) produce identical orchestration semantics and a
// client reading job records cannot tell which one ran.
type Trigger interface {
	Dispatch(ctx context.Context, jobID uuid.UUID) error
}

// BackgroundTrigger runs the orchestrator in-process on a context detached
// from the request. It does not survive a process restart; deployments that
// need that use the durable queue trigger instead.
type BackgroundTrigger struct {
	orchestrator *Orchestrator
	grace        time.Duration
}

var _ Trigger = (*BackgroundTrigger)(nil)

// NewBackgroundTrigger creates the bounded-execution front door. grace bounds
// the whole run and must exceed the poll deadline, otherwise the host kills
// the run before the poll loop can declare its own timeout.
func NewBackgroundTrigger(orchestrator *Orchestrator, grace time.Duration) *BackgroundTrigger {
	return &BackgroundTrigger{
		orchestrator: orchestrator,
		grace:        grace,
	}
}

func (t *BackgroundTrigger) Dispatch(_ context.Context, jobID uuid.UUID) error {
	// deliberately not the request context: the handler returns immediately
	// and the run must outlive it
	runCtx, cancel := context.WithTimeout(context.Background(), t.grace)

	go func() {
		defer cancel()
		if err := t.orchestrator.Run(runCtx, jobID); err != nil {
			zap.S().Named("background_trigger").Errorw("orchestration run failed", "job_id", jobID, "error", err)
		}
	}()

	return nil
}
