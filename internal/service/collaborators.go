package service

import (
	"context"

	"github.com/prestamax/loan-review-api/internal/models"
	"github.com/prestamax/loan-review-api/pkg/realtime"
)

// Collaborator contracts shared by the review services. Concrete
// implementations live in internal/repository, pkg/realtime and this
// package; tests substitute in-memory fakes.

type timelineAppender interface {
	Append(ctx context.Context, event *models.TimelineEvent) error
}

type eventPublisher interface {
	Publish(ctx context.Context, applicationID string, eventType realtime.EventType, actorID string)
}

type permissionProvider interface {
	Permissions(ctx context.Context, actor models.Actor) (models.Permissions, error)
	AllowedStatusTargets(ctx context.Context, actor models.Actor, current models.ApplicationStatus) (map[models.ApplicationStatus]struct{}, error)
}

type applicationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
}

// noopPublisher satisfies eventPublisher when realtime push is disabled.
type noopPublisher struct{}

// NoopPublisher returns a publisher that drops every event.
func NoopPublisher() eventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, string, realtime.EventType, string) {}
