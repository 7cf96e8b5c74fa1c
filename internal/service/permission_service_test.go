package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prestamax/loan-review-api/internal/models"
)

func TestPermissionsByRole(t *testing.T) {
	svc := NewPermissionService()
	ctx := context.Background()

	analyst, err := svc.Permissions(ctx, analystActor())
	require.NoError(t, err)
	assert.True(t, analyst.CanVerifyFields)
	assert.True(t, analyst.CanReviewDocuments)
	assert.False(t, analyst.CanAssignApplications)
	assert.False(t, analyst.CanApproveRejectApplications)
	assert.False(t, analyst.CanManageUsers)

	supervisor, err := svc.Permissions(ctx, supervisorActor())
	require.NoError(t, err)
	assert.True(t, supervisor.CanAssignApplications)
	assert.True(t, supervisor.CanApproveRejectApplications)
	assert.False(t, supervisor.CanManageUsers)

	admin, err := svc.Permissions(ctx, models.Actor{ID: "u-admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, admin.CanManageUsers)

	unknown, err := svc.Permissions(ctx, models.Actor{ID: "u-x", Role: models.UserRole("AUDITOR")})
	require.NoError(t, err)
	assert.Equal(t, models.Permissions{}, unknown)
}

func TestAllowedStatusTargetsTerminal(t *testing.T) {
	svc := NewPermissionService()
	for _, terminal := range []models.ApplicationStatus{
		models.StatusRejected, models.StatusCancelled, models.StatusDisbursed,
	} {
		targets, err := svc.AllowedStatusTargets(context.Background(), models.Actor{Role: models.RoleAdmin}, terminal)
		require.NoError(t, err)
		assert.Empty(t, targets, string(terminal))
	}
}

func TestAllowedStatusTargetsAnalyst(t *testing.T) {
	svc := NewPermissionService()
	targets, err := svc.AllowedStatusTargets(context.Background(), analystActor(), models.StatusInReview)
	require.NoError(t, err)

	assert.Contains(t, targets, models.StatusDocsPending)
	assert.Contains(t, targets, models.StatusCorrectionsPending)
	assert.NotContains(t, targets, models.StatusApproved)
	assert.NotContains(t, targets, models.StatusRejected)
	assert.NotContains(t, targets, models.StatusInReview)
}

func TestAllowedStatusTargetsSupervisor(t *testing.T) {
	svc := NewPermissionService()

	targets, err := svc.AllowedStatusTargets(context.Background(), supervisorActor(), models.StatusInReview)
	require.NoError(t, err)
	assert.Contains(t, targets, models.StatusApproved)
	assert.Contains(t, targets, models.StatusRejected)
	assert.NotContains(t, targets, models.StatusDisbursed)

	fromApproved, err := svc.AllowedStatusTargets(context.Background(), supervisorActor(), models.StatusApproved)
	require.NoError(t, err)
	assert.Contains(t, fromApproved, models.StatusDisbursed)
}

func TestAllowedStatusTargetsAdminGatesDisbursal(t *testing.T) {
	svc := NewPermissionService()
	admin := models.Actor{ID: "u-admin", Role: models.RoleAdmin}

	for _, current := range []models.ApplicationStatus{
		models.StatusDraft, models.StatusInReview, models.StatusCounterOffered,
	} {
		targets, err := svc.AllowedStatusTargets(context.Background(), admin, current)
		require.NoError(t, err)
		assert.NotContains(t, targets, models.StatusDisbursed, string(current))
		assert.Contains(t, targets, models.StatusApproved)
	}

	fromApproved, err := svc.AllowedStatusTargets(context.Background(), admin, models.StatusApproved)
	require.NoError(t, err)
	assert.Contains(t, fromApproved, models.StatusDisbursed)
}
