package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prestamax/loan-review-api/pkg/jobs"
	"github.com/prestamax/loan-review-api/pkg/realtime"
)

// realtimePublisher is the outbound push contract.
type realtimePublisher interface {
	Publish(ctx context.Context, applicationID string, eventType realtime.EventType, actorID string)
}

type notificationPayload struct {
	ApplicationID string
	EventType     realtime.EventType
	ActorID       string
}

// Notifier decouples review mutations from push delivery: Publish enqueues
// and returns immediately, the queue workers do the actual Redis publish
// with retries. Mutations never block on or fail because of notification
// delivery.
type Notifier struct {
	queue     *jobs.Queue
	publisher realtimePublisher
	logger    *zap.Logger
}

// NewNotifier builds the notifier and its backing queue.
func NewNotifier(publisher realtimePublisher, cfg jobs.QueueConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{publisher: publisher, logger: logger}
	n.queue = jobs.NewQueue("realtime-notify", n.deliver, cfg)
	return n
}

// Start begins queue consumption.
func (n *Notifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *Notifier) Stop() {
	n.queue.Stop()
}

// Publish enqueues a push notification. Best effort: a full queue is
// logged and dropped rather than surfaced to the mutation path.
func (n *Notifier) Publish(ctx context.Context, applicationID string, eventType realtime.EventType, actorID string) {
	err := n.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: string(eventType),
		Payload: notificationPayload{
			ApplicationID: applicationID,
			EventType:     eventType,
			ActorID:       actorID,
		},
	})
	if err != nil {
		n.logger.Warn("failed to enqueue realtime notification",
			zap.String("application_id", applicationID),
			zap.String("event", string(eventType)),
			zap.Error(err))
	}
}

func (n *Notifier) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	n.publisher.Publish(ctx, payload.ApplicationID, payload.EventType, payload.ActorID)
	return nil
}
