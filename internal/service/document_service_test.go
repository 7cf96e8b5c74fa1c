package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/prestamax/loan-review-api/internal/models"
	"github.com/prestamax/loan-review-api/internal/repository"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/storage"
)

func newDocumentService(docs *mockDocumentRepo, verifications *mockVerificationRepo, timeline *mockTimeline) *DocumentService {
	apps := newMockApplicationRepo(reviewApplication(models.StatusInReview))
	signer := storage.NewSignedURLSigner("test-secret", 15*time.Minute)
	return NewDocumentService(docs, verifications, apps, NewPermissionService(), timeline, &mockEvents{}, signer, nil, zap.NewNop())
}

func pendingDoc(id string, docType models.DocumentType) *models.Document {
	return &models.Document{
		ID: id, ApplicationID: "app1", Type: docType,
		FileName: strings.ToLower(string(docType)) + ".jpg",
		Status:   models.DocumentPending,
	}
}

func TestApprovePendingDocument(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocINEFront))
	timeline := &mockTimeline{}
	svc := newDocumentService(docs, newMockVerificationRepo(), timeline)

	doc, err := svc.Approve(context.Background(), analystActor(), "app1", "doc1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, doc.Status)
	require.NotNil(t, doc.ReviewedBy)
	assert.Equal(t, "u-analyst", *doc.ReviewedBy)
	assert.Equal(t, models.ActionDocumentApproved, timeline.lastAction())
}

func TestRejectRequiresKnownReason(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocINEFront))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})

	_, err := svc.Reject(context.Background(), analystActor(), "app1", "doc1", models.DocumentRejectionReason("UGLY"), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	doc, err := svc.Reject(context.Background(), analystActor(), "app1", "doc1", models.RejectIllegible, "photo is blurred")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentRejected, doc.Status)
	assert.Equal(t, models.RejectIllegible, doc.RejectionReason)
	assert.Equal(t, "photo is blurred", doc.RejectionNote)
}

func TestRejectedDocumentCannotBeApprovedDirectly(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocProofOfAddress))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})
	ctx := context.Background()

	_, err := svc.Reject(ctx, analystActor(), "app1", "doc1", models.RejectExpired, "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, analystActor(), "app1", "doc1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidState))

	// Explicit re-review: unreject back to pending, then approve.
	_, err = svc.Unreject(ctx, analystActor(), "app1", "doc1")
	require.NoError(t, err)
	doc, err := svc.Approve(ctx, analystActor(), "app1", "doc1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, doc.Status)
}

func TestUnapproveReturnsDocumentToPending(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocINEBack))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})
	ctx := context.Background()

	_, err := svc.Approve(ctx, analystActor(), "app1", "doc1")
	require.NoError(t, err)
	doc, err := svc.Unapprove(ctx, analystActor(), "app1", "doc1")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentPending, doc.Status)
}

func TestKYCValidatedDocumentIsLocked(t *testing.T) {
	doc := pendingDoc("doc1", models.DocSelfie)
	doc.Status = models.DocumentApproved
	doc.Metadata = &models.DocumentMetadata{KYCValidated: true}
	svc := newDocumentService(newMockDocumentRepo(doc), newMockVerificationRepo(), &mockTimeline{})

	_, err := svc.Unapprove(context.Background(), analystActor(), "app1", "doc1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDocumentLocked))
}

func TestSelfieCrossSignalLock(t *testing.T) {
	// The selfie's own metadata carries no face-match result, but the
	// face_match verification record does. The lock must hold anyway.
	doc := pendingDoc("doc1", models.DocSelfie)
	doc.Status = models.DocumentApproved
	verifications := newMockVerificationRepo(&models.FieldVerificationRecord{
		ApplicationID: "app1", Field: models.FieldFaceMatch,
		Status: models.VerificationVerified, Method: models.MethodKYCFaceMatch,
	})
	svc := newDocumentService(newMockDocumentRepo(doc), verifications, &mockTimeline{})

	_, err := svc.Unapprove(context.Background(), analystActor(), "app1", "doc1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDocumentLocked))
}

func TestListMaterializesMissingPlaceholders(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocINEFront))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})

	listed, err := svc.List(context.Background(), "app1")
	require.NoError(t, err)
	// One upload plus placeholders for INE_BACK and PROOF_OF_ADDRESS.
	require.Len(t, listed, 3)

	placeholders := 0
	for _, doc := range listed {
		if doc.IsMissingPlaceholder() {
			placeholders++
			assert.Equal(t, models.DocumentPending, doc.Status)
		}
	}
	assert.Equal(t, 2, placeholders)
}

func TestUnknownDocumentIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	docs := repository.NewDocumentRepository(sqlx.NewDb(db, "sqlmock"))
	apps := newMockApplicationRepo(reviewApplication(models.StatusInReview))
	signer := storage.NewSignedURLSigner("test-secret", 15*time.Minute)
	svc := NewDocumentService(docs, newMockVerificationRepo(), apps, NewPermissionService(), &mockTimeline{}, &mockEvents{}, signer, nil, zap.NewNop())

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE id = \$1`).
		WithArgs("no-such-doc").
		WillReturnError(sql.ErrNoRows)

	_, err = svc.Approve(context.Background(), analystActor(), "app1", "no-such-doc")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	assert.False(t, appErrors.Is(err, appErrors.ErrUpstream))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingPlaceholderCannotBeReviewed(t *testing.T) {
	docs := newMockDocumentRepo()
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})

	_, err := svc.Approve(context.Background(), analystActor(), "app1", models.MissingDocumentIDPrefix+"ine_front")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDownloadURLRoundTrip(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocBankStatement))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})

	url, expires, err := svc.DownloadURL(context.Background(), "app1", "doc1")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.True(t, expires.After(time.Now()))
}

func TestReviewWithoutCapabilityFails(t *testing.T) {
	docs := newMockDocumentRepo(pendingDoc("doc1", models.DocINEFront))
	svc := newDocumentService(docs, newMockVerificationRepo(), &mockTimeline{})
	outsider := models.Actor{ID: "u-ext", Role: models.UserRole("AUDITOR")}

	_, err := svc.Approve(context.Background(), outsider, "app1", "doc1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPermissionDenied))
}
