package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/reelmint/reelmint/internal/generation"
)

const (
	// JobTimeout bounds one orchestration attempt. It sits above the poll
	// deadline so the timeout failure is always the poll loop's, with its
	// own classified reason, never River's.
	JobTimeout = 20 * time.Minute
	JobKind    = "generation_run"
)

type GenerationArgs struct {
	JobID uuid.UUID `json:"job_id"`
}

func (GenerationArgs) Kind() string {
	return JobKind
}

func (GenerationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       DefaultQueue,
		MaxAttempts: MaxJobRetries,
	}
}

// GenerationWorker re-enters the orchestrator from the durable queue. The
// queue persists the run across process restarts; on retry the orchestrator
// finds the recorded run reference and resumes polling instead of
// resubmitting.
type GenerationWorker struct {
	river.WorkerDefaults[GenerationArgs]
	orchestrator *generation.Orchestrator
}

func NewGenerationWorker(orchestrator *generation.Orchestrator) *GenerationWorker {
	return &GenerationWorker{orchestrator: orchestrator}
}

func (w *GenerationWorker) Timeout(job *river.Job[GenerationArgs]) time.Duration {
	return JobTimeout
}

func (w *GenerationWorker) Work(ctx context.Context, job *river.Job[GenerationArgs]) error {
	return w.orchestrator.Run(ctx, job.Args.JobID)
}
