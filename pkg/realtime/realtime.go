// Package realtime carries the push events that tell review clients an
// application changed. Consumers do not patch state incrementally: the one
// obligation on receipt is to drop any cached view of the application and
// reload it in full. That trades a round-trip for immunity to
// order-of-operations bugs from partial patches.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventType enumerates the push events emitted after successful mutations.
type EventType string

const (
	EventApplicationStatusChanged EventType = "ApplicationStatusChanged"
	EventDocumentStatusChanged    EventType = "DocumentStatusChanged"
	EventDocumentUploaded         EventType = "DocumentUploaded"
	EventDocumentDeleted          EventType = "DocumentDeleted"
	EventFieldVerificationChanged EventType = "FieldVerificationChanged"
	EventReferenceVerified        EventType = "ReferenceVerified"
	EventBankAccountVerified      EventType = "BankAccountVerified"
)

// Event is the wire payload published on the application channel.
type Event struct {
	Type          EventType `json:"type"`
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	ActorID       string    `json:"actor_id,omitempty"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// Publisher pushes events onto per-application redis channels.
type Publisher struct {
	client   *redis.Client
	prefix   string
	tenantID string
	logger   *zap.Logger
}

// NewPublisher constructs a Publisher scoped to one tenant.
func NewPublisher(client *redis.Client, prefix, tenantID string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, prefix: prefix, tenantID: tenantID, logger: logger}
}

func (p *Publisher) channel(applicationID string) string {
	return fmt.Sprintf("%s:tenant:%s:application:%s", p.prefix, p.tenantID, applicationID)
}

// Publish emits an event for the application. Failures are logged, not
// returned: push delivery is best-effort and the mutation already committed.
func (p *Publisher) Publish(ctx context.Context, applicationID string, eventType EventType, actorID string) {
	if p == nil || p.client == nil {
		return
	}
	event := Event{
		Type:          eventType,
		TenantID:      p.tenantID,
		ApplicationID: applicationID,
		ActorID:       actorID,
		EmittedAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal realtime event", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, p.channel(applicationID), payload).Err(); err != nil {
		p.logger.Warn("publish realtime event",
			zap.String("application_id", applicationID),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}

// ReloadFunc is invoked once per received event with the application whose
// state may have changed.
type ReloadFunc func(ctx context.Context, applicationID string)

// Subscriber listens on the tenant's application channels and triggers the
// invalidate-and-reload contract.
type Subscriber struct {
	client   *redis.Client
	prefix   string
	tenantID string
	reload   ReloadFunc
	logger   *zap.Logger
}

// NewSubscriber constructs a Subscriber for the tenant's channel pattern.
func NewSubscriber(client *redis.Client, prefix, tenantID string, reload ReloadFunc, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{client: client, prefix: prefix, tenantID: tenantID, reload: reload, logger: logger}
}

// Run consumes events until the context is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	pattern := fmt.Sprintf("%s:tenant:%s:application:*", s.prefix, s.tenantID)
	sub := s.client.PSubscribe(ctx, pattern)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("unmarshal realtime event", zap.Error(err))
				continue
			}
			if event.ApplicationID == "" {
				continue
			}
			s.logger.Debug("realtime event received",
				zap.String("application_id", event.ApplicationID),
				zap.String("type", string(event.Type)))
			s.reload(ctx, event.ApplicationID)
		}
	}
}
