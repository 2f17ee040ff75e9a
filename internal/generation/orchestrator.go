package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelmint/reelmint/internal/artifacts"
	"github.com/reelmint/reelmint/internal/provider"
	"github.com/reelmint/reelmint/internal/store"
	"github.com/reelmint/reelmint/internal/store/model"
	"github.com/reelmint/reelmint/pkg/metrics"
)

// ProviderClient is everything the orchestrator needs from the generation
// provider.
type ProviderClient interface {
	StatusPoller
	Submit(ctx context.Context, req provider.SubmitRequest) (string, error)
	FetchResult(ctx context.Context, runRef string) (*provider.Result, error)
	Download(ctx context.Context, url string) (io.ReadCloser, int64, error)
}

// Orchestrator drives one generation job from submission to its terminal
// state. It is safe to run it again for the same job: an already recorded
// run reference skips submission, an already terminal job is left untouched.
type Orchestrator struct {
	records    store.Job
	client     ProviderClient
	artifacts  artifacts.Store
	classifier *Classifier
	notifier   Notifier

	pollInterval time.Duration
	pollDeadline time.Duration
}

func NewOrchestrator(
	records store.Job,
	client ProviderClient,
	artifactStore artifacts.Store,
	classifier *Classifier,
	notifier Notifier,
	pollInterval time.Duration,
	pollDeadline time.Duration,
) *Orchestrator {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Orchestrator{
		records:      records,
		client:       client,
		artifacts:    artifactStore,
		classifier:   classifier,
		notifier:     notifier,
		pollInterval: pollInterval,
		pollDeadline: pollDeadline,
	}
}

// Run executes the state machine for the given job. A nil return means the
// job reached a terminal state (either one); a non-nil return means an
// infrastructure problem prevented reaching one and the run may be retried.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID) error {
	logger := zap.S().Named("orchestrator").With("job_id", jobID)

	metrics.IncreaseGenerationJobsInFlightMetric()
	defer metrics.DecreaseGenerationJobsInFlightMetric()

	job, err := o.records.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("loading job %s: %w", jobID, err)
	}

	if job.IsTerminal() {
		logger.Infow("job already terminal, nothing to do", "status", job.Status)
		return nil
	}

	runRef, job, err := o.ensureSubmitted(ctx, job, logger)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		// submission failed and was recorded
		return nil
	}

	loop := NewPollLoop(o.client, o.pollInterval, o.pollDeadline)
	status, err := loop.Run(ctx, runRef)
	if err != nil {
		if errors.Is(err, ErrPollDeadline) {
			logger.Warnw("poll deadline exceeded", "run_ref", runRef)
			return o.fail(ctx, job, o.classifier.Classify(err), logger)
		}
		// cancelled or host shutting down: leave the job non-terminal so a
		// retriggered run resumes polling
		return fmt.Errorf("polling job %s: %w", jobID, err)
	}

	if status == provider.StatusFailed {
		logger.Warnw("provider reported failure", "run_ref", runRef)
		return o.fail(ctx, job, FailureReason{
			Kind:     KindProviderError,
			Message:  "provider reported the generation run as failed",
			Provider: o.classifier.ProviderName,
			Model:    o.classifier.Model,
			Code:     CodeGenerationFailed,
		}, logger)
	}

	return o.complete(ctx, job, runRef, logger)
}

// ensureSubmitted submits the job to the provider unless a run reference is
// already recorded. The record store arbitrates which reference wins, so a
// duplicate trigger never ends up polling a dangling run.
func (o *Orchestrator) ensureSubmitted(ctx context.Context, job *model.Job, logger *zap.SugaredLogger) (string, *model.Job, error) {
	if job.ProviderRunRef != nil {
		logger.Infow("run reference already recorded, resuming", "run_ref", *job.ProviderRunRef)
		return *job.ProviderRunRef, job, nil
	}

	runRef, err := o.client.Submit(ctx, provider.SubmitRequest{
		SourceVideoURL:    job.InputVideoURL,
		CharacterImageURL: job.CharacterImageURL,
	})
	if err != nil {
		logger.Warnw("submission failed", "error", err)
		if failErr := o.fail(ctx, job, o.classifier.Classify(err), logger); failErr != nil {
			return "", job, failErr
		}
		terminal, getErr := o.records.Get(ctx, job.ID)
		if getErr != nil {
			return "", job, getErr
		}
		return "", terminal, nil
	}

	updated, err := o.records.MarkSubmitted(ctx, job.ID, runRef)
	if err != nil {
		// the provider run is now orphaned until the next trigger re-submits;
		// an at-least-once gap we accept
		return "", job, fmt.Errorf("recording run reference for job %s: %w", job.ID, err)
	}
	if updated.ProviderRunRef == nil {
		return "", updated, fmt.Errorf("job %s has no run reference after submission", job.ID)
	}

	logger.Infow("job submitted", "run_ref", *updated.ProviderRunRef)
	return *updated.ProviderRunRef, updated, nil
}

// complete fetches the provider result, persists the artifact and writes the
// terminal complete state. The record is only marked complete after the
// artifact store acknowledged the write; a provider-side success with a
// failed upload surfaces to the user as a failure.
func (o *Orchestrator) complete(ctx context.Context, job *model.Job, runRef string, logger *zap.SugaredLogger) error {
	result, err := o.client.FetchResult(ctx, runRef)
	if err != nil {
		logger.Warnw("fetching result failed", "run_ref", runRef, "error", err)
		return o.fail(ctx, job, o.classifier.Classify(err), logger)
	}

	body, size, err := o.client.Download(ctx, result.Video.Url)
	if err != nil {
		logger.Warnw("downloading artifact failed", "url", result.Video.Url, "error", err)
		return o.fail(ctx, job, o.classifier.Classify(err), logger)
	}
	defer body.Close()

	key := artifacts.ObjectKey(job.ID, time.Now())
	publicURL, err := o.artifacts.Store(ctx, key, body, size, result.Video.ContentType)
	if err != nil {
		logger.Errorw("storing artifact failed", "key", key, "error", err)
		return o.fail(ctx, job, FailureReason{
			Kind:     KindStorageError,
			Message:  "generated video could not be stored",
			Provider: o.classifier.ProviderName,
			Model:    o.classifier.Model,
			Details:  err.Error(),
		}, logger)
	}

	updated, err := o.records.MarkComplete(ctx, job.ID, publicURL)
	if err != nil {
		return fmt.Errorf("marking job %s complete: %w", job.ID, err)
	}

	if updated.Status != model.JobStatusComplete || updated.ResultURL == nil || *updated.ResultURL != publicURL {
		logger.Infow("terminal state already recorded elsewhere", "status", updated.Status)
		return nil
	}

	logger.Infow("job completed", "result_url", publicURL)
	metrics.IncreaseGenerationJobsTotalMetric("complete", "")
	metrics.ObserveGenerationDurationMetric("complete", time.Since(job.CreatedAt))

	o.notifier.JobCompleted(ctx, updated)
	return nil
}

// fail writes the terminal failed state. The store ignores the write if
// another attempt already recorded a terminal state, in which case no
// notification is sent from here either.
func (o *Orchestrator) fail(ctx context.Context, job *model.Job, reason FailureReason, logger *zap.SugaredLogger) error {
	updated, err := o.records.MarkFailed(ctx, job.ID, reason.Marshal())
	if err != nil {
		return fmt.Errorf("marking job %s failed: %w", job.ID, err)
	}

	if updated.Status != model.JobStatusFailed {
		logger.Infow("terminal state already recorded elsewhere", "status", updated.Status)
		return nil
	}

	logger.Warnw("job failed", "kind", reason.Kind, "message", reason.Message)
	metrics.IncreaseGenerationJobsTotalMetric("failed", reason.Kind)
	metrics.ObserveGenerationDurationMetric("failed", time.Since(job.CreatedAt))

	o.notifier.JobFailed(ctx, updated, reason)
	return nil
}
