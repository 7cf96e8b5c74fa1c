package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/realtime"
)

func newReferenceService(refs *mockReferenceRepo, accounts *mockBankAccountRepo, timeline *mockTimeline, events *mockEvents) *ReferenceService {
	apps := newMockApplicationRepo(reviewApplication(models.StatusInReview))
	return NewReferenceService(refs, accounts, apps, NewPermissionService(), timeline, events, zap.NewNop())
}

func TestRecordReferenceOutcome(t *testing.T) {
	refs := newMockReferenceRepo(&models.Reference{
		ID: "r1", ApplicationID: "app1", FullName: "María López",
		Outcome: models.ReferencePending,
	})
	timeline := &mockTimeline{}
	events := &mockEvents{}
	svc := newReferenceService(refs, newMockBankAccountRepo(), timeline, events)

	ref, err := svc.RecordReferenceOutcome(context.Background(), analystActor(), "app1", "r1", models.ReferenceVerified, "confirmed relationship")
	require.NoError(t, err)
	assert.Equal(t, models.ReferenceVerified, ref.Outcome)
	assert.Equal(t, "confirmed relationship", ref.Notes)
	require.NotNil(t, ref.VerifiedBy)
	assert.Equal(t, "u-analyst", *ref.VerifiedBy)
	assert.Equal(t, models.ActionReferenceVerified, timeline.lastAction())
	require.Len(t, events.published, 1)
	assert.Equal(t, realtime.EventReferenceVerified, events.published[0].eventType)
}

func TestReferenceOutcomeOverwritesFreely(t *testing.T) {
	refs := newMockReferenceRepo(&models.Reference{
		ID: "r1", ApplicationID: "app1", Outcome: models.ReferenceVerified,
	})
	svc := newReferenceService(refs, newMockBankAccountRepo(), &mockTimeline{}, &mockEvents{})

	// No lock concept: any outcome replaces any other.
	ref, err := svc.RecordReferenceOutcome(context.Background(), analystActor(), "app1", "r1", models.ReferenceNoAnswer, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReferenceNoAnswer, ref.Outcome)
}

func TestReferenceOutcomeValidation(t *testing.T) {
	refs := newMockReferenceRepo(&models.Reference{ID: "r1", ApplicationID: "app1"})
	svc := newReferenceService(refs, newMockBankAccountRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.RecordReferenceOutcome(context.Background(), analystActor(), "app1", "r1", models.ReferenceOutcome("MAYBE"), "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.RecordReferenceOutcome(context.Background(), analystActor(), "app1", "r-ghost", models.ReferenceVerified, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.False(t, appErrors.Is(err, appErrors.ErrUpstream))
}

func TestUnknownBankAccountIsNotFound(t *testing.T) {
	svc := newReferenceService(newMockReferenceRepo(), newMockBankAccountRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.SetBankAccountVerified(context.Background(), analystActor(), "app1", "b-ghost", true)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.False(t, appErrors.Is(err, appErrors.ErrUpstream))
}

func TestReferenceBelongsToApplication(t *testing.T) {
	refs := newMockReferenceRepo(&models.Reference{ID: "r1", ApplicationID: "other-app"})
	svc := newReferenceService(refs, newMockBankAccountRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.RecordReferenceOutcome(context.Background(), analystActor(), "app1", "r1", models.ReferenceVerified, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBankAccountVerificationToggle(t *testing.T) {
	accounts := newMockBankAccountRepo(&models.BankAccount{
		ID: "b1", ApplicationID: "app1", BankName: "BBVA", CLABE: "012180001234567895",
	})
	timeline := &mockTimeline{}
	svc := newReferenceService(newMockReferenceRepo(), accounts, timeline, &mockEvents{})
	ctx := context.Background()

	acct, err := svc.SetBankAccountVerified(ctx, analystActor(), "app1", "b1", true)
	require.NoError(t, err)
	assert.True(t, acct.IsVerified)
	firstStamp := acct.VerifiedAt

	acct, err = svc.SetBankAccountVerified(ctx, analystActor(), "app1", "b1", false)
	require.NoError(t, err)
	assert.False(t, acct.IsVerified)

	// Re-asserting the same value is a state no-op but still re-stamps.
	acct, err = svc.SetBankAccountVerified(ctx, analystActor(), "app1", "b1", false)
	require.NoError(t, err)
	require.NotNil(t, acct.VerifiedAt)
	assert.False(t, acct.VerifiedAt.Before(*firstStamp))
	assert.Len(t, timeline.events, 3)
}

func TestReferenceCommandsRequireCapability(t *testing.T) {
	refs := newMockReferenceRepo(&models.Reference{ID: "r1", ApplicationID: "app1"})
	svc := newReferenceService(refs, newMockBankAccountRepo(), &mockTimeline{}, &mockEvents{})
	outsider := models.Actor{ID: "u-ext", Role: models.UserRole("AUDITOR")}

	_, err := svc.RecordReferenceOutcome(context.Background(), outsider, "app1", "r1", models.ReferenceVerified, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrPermissionDenied))

	_, err = svc.SetBankAccountVerified(context.Background(), outsider, "app1", "b1", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrPermissionDenied))
}
