package generation

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/reelmint/reelmint/internal/events"
	"github.com/reelmint/reelmint/internal/store/model"
	"github.com/reelmint/reelmint/pkg/metrics"
)

// Notifier delivers terminal-state notifications. Delivery is best effort:
// implementations log failures and swallow them, a lost notification never
// changes a job's outcome.
type Notifier interface {
	JobCompleted(ctx context.Context, job *model.Job)
	JobFailed(ctx context.Context, job *model.Job, reason FailureReason)
}

// EventNotifier publishes terminal-state events through the event producer.
// The mailer downstream turns completed events into user emails.
type EventNotifier struct {
	producer *events.EventProducer
}

var _ Notifier = (*EventNotifier)(nil)

func NewEventNotifier(producer *events.EventProducer) *EventNotifier {
	return &EventNotifier{producer: producer}
}

func (n *EventNotifier) JobCompleted(ctx context.Context, job *model.Job) {
	if job.UserEmail == nil || job.ResultURL == nil {
		return
	}

	n.publish(ctx, events.JobCompletedKind, events.JobCompletedEvent{
		JobID:         job.ID.String(),
		UserID:        job.UserID,
		UserEmail:     job.UserEmail,
		CharacterName: job.CharacterName,
		ResultURL:     *job.ResultURL,
	})
}

func (n *EventNotifier) JobFailed(ctx context.Context, job *model.Job, reason FailureReason) {
	if job.UserEmail == nil {
		return
	}

	n.publish(ctx, events.JobFailedKind, events.JobFailedEvent{
		JobID:         job.ID.String(),
		UserID:        job.UserID,
		UserEmail:     job.UserEmail,
		CharacterName: job.CharacterName,
		Kind:          reason.Kind,
		Message:       reason.Message,
	})
}

func (n *EventNotifier) publish(ctx context.Context, kind string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		zap.S().Named("notifier").Errorw("failed to encode notification", "kind", kind, "error", err)
		metrics.IncreaseNotificationsTotalMetric("error")
		return
	}

	if err := n.producer.Write(ctx, kind, bytes.NewReader(data)); err != nil {
		zap.S().Named("notifier").Errorw("failed to publish notification", "kind", kind, "error", err)
		metrics.IncreaseNotificationsTotalMetric("error")
		return
	}

	metrics.IncreaseNotificationsTotalMetric("ok")
}

// NoopNotifier is used when no notification target is configured.
type NoopNotifier struct{}

var _ Notifier = (*NoopNotifier)(nil)

func (NoopNotifier) JobCompleted(context.Context, *model.Job) {}

func (NoopNotifier) JobFailed(context.Context, *model.Job, FailureReason) {}
