package service

import (
	"context"

	"github.com/prestamax/loan-review-api/internal/models"
)

// PermissionService resolves actor capabilities for review commands. It is
// consulted on every command; callers must not hold results across requests
// since a role change takes effect on the next resolution.
type PermissionService struct{}

// NewPermissionService constructs the provider.
func NewPermissionService() *PermissionService {
	return &PermissionService{}
}

// Permissions returns the capability set for the actor's role.
func (s *PermissionService) Permissions(ctx context.Context, actor models.Actor) (models.Permissions, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return models.Permissions{
			CanAssignApplications:        true,
			CanChangeApplicationStatus:   true,
			CanApproveRejectApplications: true,
			CanReviewDocuments:           true,
			CanVerifyFields:              true,
			CanVerifyReferences:          true,
			CanManageUsers:               true,
		}, nil
	case models.RoleSupervisor:
		return models.Permissions{
			CanAssignApplications:        true,
			CanChangeApplicationStatus:   true,
			CanApproveRejectApplications: true,
			CanReviewDocuments:           true,
			CanVerifyFields:              true,
			CanVerifyReferences:          true,
		}, nil
	case models.RoleAnalyst:
		return models.Permissions{
			CanChangeApplicationStatus: true,
			CanReviewDocuments:         true,
			CanVerifyFields:            true,
			CanVerifyReferences:        true,
		}, nil
	}
	return models.Permissions{}, nil
}

// AllowedStatusTargets returns the set of statuses the actor may move an
// application into from the current status. Analysts can route applications
// through review but cannot decide them; decisions belong to supervisors
// and admins.
func (s *PermissionService) AllowedStatusTargets(ctx context.Context, actor models.Actor, current models.ApplicationStatus) (map[models.ApplicationStatus]struct{}, error) {
	if current.IsTerminal() {
		return map[models.ApplicationStatus]struct{}{}, nil
	}

	targets := map[models.ApplicationStatus]struct{}{}
	add := func(statuses ...models.ApplicationStatus) {
		for _, st := range statuses {
			if st != current {
				targets[st] = struct{}{}
			}
		}
	}

	switch actor.Role {
	case models.RoleAnalyst:
		add(models.StatusInReview, models.StatusDocsPending, models.StatusCorrectionsPending)
	case models.RoleSupervisor:
		add(models.StatusInReview, models.StatusDocsPending, models.StatusCorrectionsPending,
			models.StatusCounterOffered, models.StatusApproved, models.StatusRejected,
			models.StatusCancelled)
		if current == models.StatusApproved {
			add(models.StatusDisbursed)
		}
	case models.RoleAdmin:
		for _, st := range models.AllApplicationStatuses() {
			if st == models.StatusDisbursed && current != models.StatusApproved {
				continue
			}
			add(st)
		}
	}
	return targets, nil
}
