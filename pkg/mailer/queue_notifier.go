package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/pkg/jobs"
)

const jobTypeMail = "mail"

// QueueNotifier hands messages to the background queue instead of delivering
// inline, keeping SMTP latency and failures off the request path.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueue builds the mail delivery queue around the given notifier.
func NewQueue(delegate Notifier, cfg jobs.QueueConfig) *jobs.Queue {
	return jobs.NewQueue("mail", func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(Message)
		if !ok {
			return nil
		}
		return delegate.Send(ctx, msg)
	}, cfg)
}

// NewQueueNotifier wraps a started queue as a Notifier.
func NewQueueNotifier(queue *jobs.Queue, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: queue, logger: logger}
}

// Send enqueues the message. Enqueue failures are logged and swallowed so the
// triggering business transaction never aborts on mail trouble.
func (n *QueueNotifier) Send(ctx context.Context, msg Message) error {
	err := n.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeMail,
		Payload: msg,
	})
	if err != nil {
		n.logger.Warn("failed to enqueue mail",
			zap.String("template", msg.Template),
			zap.String("to", msg.To),
			zap.Error(err))
	}
	return nil
}
