package generation

import (
	"context"
	"errors"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/reelmint/reelmint/internal/provider"
	"github.com/reelmint/reelmint/pkg/metrics"
)

// ErrPollDeadline is returned when no terminal provider status was observed
// before the deadline. It is distinct from a provider-reported failure: the
// provider never answered, so the timeout is not attributed to it.
var ErrPollDeadline = errors.New("no terminal status from provider within deadline")

// PollLoop drives repeated status checks at a fixed cadence until the
// provider reports a terminal state or the deadline passes. Transport errors
// during polling are absorbed as StatusUnknown: they neither fail the job nor
// reset the deadline clock.
type PollLoop struct {
	client   StatusPoller
	interval time.Duration
	deadline time.Duration
}

// StatusPoller is the single provider capability the loop needs.
type StatusPoller interface {
	PollStatus(ctx context.Context, runRef string) (provider.Status, error)
}

func NewPollLoop(client StatusPoller, interval, deadline time.Duration) *PollLoop {
	return &PollLoop{
		client:   client,
		interval: interval,
		deadline: deadline,
	}
}

// Run polls until COMPLETED or FAILED, returning ErrPollDeadline once the
// deadline (measured from the first poll) expires. The wait between polls is
// a plain timer select, so in the durable front door the worker goroutine is
// parked without holding anything else.
func (l *PollLoop) Run(ctx context.Context, runRef string) (provider.Status, error) {
	deadline := time.NewTimer(l.deadline)
	defer deadline.Stop()

	ticker := jitterbug.New(l.interval, &jitterbug.Norm{Stdev: l.interval / 20})
	defer ticker.Stop()

	for {
		status := l.pollOnce(ctx, runRef)
		switch status {
		case provider.StatusCompleted, provider.StatusFailed:
			return status, nil
		}

		select {
		case <-ctx.Done():
			return provider.StatusUnknown, ctx.Err()
		case <-deadline.C:
			return provider.StatusUnknown, ErrPollDeadline
		case <-ticker.C:
		}
	}
}

func (l *PollLoop) pollOnce(ctx context.Context, runRef string) provider.Status {
	status, err := l.client.PollStatus(ctx, runRef)
	if err != nil {
		// still processing as far as we know
		zap.S().Named("poll_loop").Debugw("status poll failed", "run_ref", runRef, "error", err)
		metrics.IncreaseProviderPollsTotalMetric(string(provider.StatusUnknown))
		return provider.StatusUnknown
	}

	metrics.IncreaseProviderPollsTotalMetric(string(status))
	return status
}
