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

func newVerificationService(repo *mockVerificationRepo, docs *mockDocumentRepo, timeline *mockTimeline, events *mockEvents) *VerificationService {
	apps := newMockApplicationRepo(reviewApplication(models.StatusInReview))
	return NewVerificationService(repo, docs, apps, NewPermissionService(), timeline, events, nil, zap.NewNop())
}

func TestVerifyFieldSetsManualMethod(t *testing.T) {
	repo := newMockVerificationRepo()
	timeline := &mockTimeline{}
	events := &mockEvents{}
	svc := newVerificationService(repo, newMockDocumentRepo(), timeline, events)

	record, err := svc.Verify(context.Background(), analystActor(), "app1", models.FieldCURP)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, record.Status)
	assert.Equal(t, models.MethodManual, record.Method)
	require.NotNil(t, record.VerifiedAt)
	require.NotNil(t, record.VerifiedBy)
	assert.Equal(t, "u-analyst", *record.VerifiedBy)

	assert.Equal(t, models.ActionFieldVerified, timeline.lastAction())
	require.Len(t, events.published, 1)
	assert.Equal(t, realtime.EventFieldVerificationChanged, events.published[0].eventType)
}

func TestVerifyFieldClearsPriorRejection(t *testing.T) {
	repo := newMockVerificationRepo(&models.FieldVerificationRecord{
		ApplicationID: "app1", Field: models.FieldPhone,
		Status: models.VerificationRejected, Method: models.MethodManual,
		RejectionReason: "number out of service",
	})
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	record, err := svc.Verify(context.Background(), analystActor(), "app1", models.FieldPhone)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, record.Status)
	assert.Empty(t, record.RejectionReason)
}

func TestVerifyLockedFieldFails(t *testing.T) {
	repo := newMockVerificationRepo(&models.FieldVerificationRecord{
		ApplicationID: "app1", Field: models.FieldINEClave,
		Status: models.VerificationVerified, Method: models.MethodNubarium,
	})
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.Verify(context.Background(), analystActor(), "app1", models.FieldINEClave)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrFieldLocked))

	_, err = svc.Reject(context.Background(), analystActor(), "app1", models.FieldINEClave, "mismatch")
	assert.True(t, appErrors.Is(err, appErrors.ErrFieldLocked))

	_, err = svc.Unverify(context.Background(), analystActor(), "app1", models.FieldINEClave, "re-check")
	assert.True(t, appErrors.Is(err, appErrors.ErrFieldLocked))
}

func TestRejectFieldRequiresReason(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.Reject(context.Background(), analystActor(), "app1", models.FieldRFC, "   ")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestRejectFieldRecordsReason(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	record, err := svc.Reject(context.Background(), analystActor(), "app1", models.FieldRFC, "does not match SAT registry")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, record.Status)
	assert.Equal(t, "does not match SAT registry", record.RejectionReason)
	assert.Equal(t, models.MethodManual, record.Method)
}

func TestUnverifyRollsBackToPending(t *testing.T) {
	repo := newMockVerificationRepo()
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.Verify(context.Background(), analystActor(), "app1", models.FieldEmail)
	require.NoError(t, err)

	record, err := svc.Unverify(context.Background(), analystActor(), "app1", models.FieldEmail, "typo reported by applicant")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationPending, record.Status)
	assert.Empty(t, record.Method)
	assert.Equal(t, "typo reported by applicant", record.Notes)
	// The rollback is audited, not erased: verified_at stamps the rollback.
	require.NotNil(t, record.VerifiedAt)
}

func TestUnverifyRequiresReason(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.Unverify(context.Background(), analystActor(), "app1", models.FieldEmail, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestVerifyUnknownFieldFails(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.Verify(context.Background(), analystActor(), "app1", models.VerificationField("favorite_color"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestVerifyWithoutCapabilityFails(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})
	outsider := models.Actor{ID: "u-ext", FullName: "No Role", Role: models.UserRole("AUDITOR")}

	_, err := svc.Verify(context.Background(), outsider, "app1", models.FieldCURP)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPermissionDenied))
}

func TestFaceMatchLockedBySelfieMetadata(t *testing.T) {
	passed := true
	docs := newMockDocumentRepo(&models.Document{
		ID: "doc-selfie", ApplicationID: "app1", Type: models.DocSelfie,
		Status:   models.DocumentApproved,
		Metadata: &models.DocumentMetadata{FaceMatchPassed: &passed},
	})
	svc := newVerificationService(newMockVerificationRepo(), docs, &mockTimeline{}, &mockEvents{})

	// No face_match record exists, but the selfie metadata carries the
	// KYC pass signal; the pseudo-field is locked anyway.
	locked, err := svc.IsLocked(context.Background(), "app1", models.FieldFaceMatch)
	require.NoError(t, err)
	assert.True(t, locked)

	_, err = svc.Verify(context.Background(), analystActor(), "app1", models.FieldFaceMatch)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrFieldLocked))
}

func TestSnapshotIncludesImplicitPending(t *testing.T) {
	repo := newMockVerificationRepo(&models.FieldVerificationRecord{
		ApplicationID: "app1", Field: models.FieldCURP,
		Status: models.VerificationVerified, Method: models.MethodManual,
	})
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	snapshot, err := svc.Snapshot(context.Background(), "app1")
	require.NoError(t, err)
	assert.Len(t, snapshot, len(models.AllVerificationFields()))
	assert.Equal(t, models.VerificationVerified, snapshot[models.FieldCURP].Status)
	assert.Equal(t, models.VerificationPending, snapshot[models.FieldBirthDate].Status)
}

func TestApplyAutomatedResultOverwritesLock(t *testing.T) {
	repo := newMockVerificationRepo(&models.FieldVerificationRecord{
		ApplicationID: "app1", Field: models.FieldFaceMatch,
		Status: models.VerificationVerified, Method: models.MethodKYCFaceMatch,
	})
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	record, err := svc.ApplyAutomatedResult(context.Background(), "app1", models.FieldFaceMatch,
		models.VerificationRejected, models.MethodKYCFaceMatch, "re-evaluation failed threshold")
	require.NoError(t, err)
	assert.Equal(t, models.VerificationRejected, record.Status)
}

func TestApplyAutomatedResultRejectsManualMethod(t *testing.T) {
	svc := newVerificationService(newMockVerificationRepo(), newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})

	_, err := svc.ApplyAutomatedResult(context.Background(), "app1", models.FieldCURP,
		models.VerificationVerified, models.MethodManual, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestVerifyRoundTripKeepsFieldMutable(t *testing.T) {
	repo := newMockVerificationRepo()
	svc := newVerificationService(repo, newMockDocumentRepo(), &mockTimeline{}, &mockEvents{})
	ctx := context.Background()

	// Manual verify then unverify then verify again: a manual method never
	// locks, so the cycle is freely repeatable.
	_, err := svc.Verify(ctx, analystActor(), "app1", models.FieldFirstName)
	require.NoError(t, err)
	_, err = svc.Unverify(ctx, analystActor(), "app1", models.FieldFirstName, "double-checking")
	require.NoError(t, err)
	record, err := svc.Verify(ctx, analystActor(), "app1", models.FieldFirstName)
	require.NoError(t, err)
	assert.Equal(t, models.VerificationVerified, record.Status)
}
