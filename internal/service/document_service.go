package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/realtime"
	"github.com/prestamax/loan-review-api/pkg/storage"
)

type documentRepository interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	UpdateStatus(ctx context.Context, doc *models.Document) error
}

type verificationSnapshotter interface {
	Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error)
}

// DocumentService runs the document review lifecycle. Transitions are a
// fixed graph: PENDING may go to APPROVED or REJECTED, and each of those
// may only roll back to PENDING. A rejected document is never approved
// directly; it must pass through PENDING first.
type DocumentService struct {
	repo          documentRepository
	verifications verificationSnapshotter
	apps          applicationFinder
	permissions   permissionProvider
	timeline      timelineAppender
	events        eventPublisher
	signer        *storage.SignedURLSigner
	metrics       *MetricsService
	logger        *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentRepository, verifications verificationSnapshotter, apps applicationFinder, permissions permissionProvider, timeline timelineAppender, events eventPublisher, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NoopPublisher()
	}
	return &DocumentService{
		repo:          repo,
		verifications: verifications,
		apps:          apps,
		permissions:   permissions,
		timeline:      timeline,
		events:        events,
		signer:        signer,
		metrics:       metrics,
		logger:        logger,
	}
}

// List returns the application's documents plus a synthetic "missing"
// placeholder for every required type with no upload. Each real document
// carries its resolved lock state.
func (s *DocumentService) List(ctx context.Context, applicationID string) ([]models.Document, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load documents")
	}
	snapshot, err := s.verifications.Snapshot(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].KYCLocked = documentLocked(docs[i], snapshot)
	}
	return appendMissingPlaceholders(docs, app.RequiredDocuments), nil
}

// Approve moves a pending document to APPROVED.
func (s *DocumentService) Approve(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error) {
	doc, err := s.loadForMutation(ctx, actor, applicationID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("document is %s; only pending documents can be approved", doc.Status))
	}
	return s.transition(ctx, actor, doc, models.DocumentApproved, "", "", models.ActionDocumentApproved, "document approved")
}

// Reject moves a pending document to REJECTED with a reason from the
// closed enum and an optional free-form comment.
func (s *DocumentService) Reject(ctx context.Context, actor models.Actor, applicationID, documentID string, reason models.DocumentRejectionReason, comment string) (*models.Document, error) {
	if !reason.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown rejection reason %q", reason))
	}
	doc, err := s.loadForMutation(ctx, actor, applicationID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("document is %s; only pending documents can be rejected", doc.Status))
	}
	return s.transition(ctx, actor, doc, models.DocumentRejected, reason, strings.TrimSpace(comment), models.ActionDocumentRejected, "document rejected")
}

// Unapprove rolls an approved document back to PENDING.
func (s *DocumentService) Unapprove(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error) {
	doc, err := s.loadForMutation(ctx, actor, applicationID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("document is %s; only approved documents can be unapproved", doc.Status))
	}
	return s.transition(ctx, actor, doc, models.DocumentPending, "", "", models.ActionDocumentUnapproved, "document approval rolled back")
}

// Unreject rolls a rejected document back to PENDING, clearing its
// rejection reason.
func (s *DocumentService) Unreject(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error) {
	doc, err := s.loadForMutation(ctx, actor, applicationID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != models.DocumentRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("document is %s; only rejected documents can be unrejected", doc.Status))
	}
	return s.transition(ctx, actor, doc, models.DocumentPending, "", "", models.ActionDocumentUnrejected, "document rejection rolled back")
}

// DownloadURL issues a time-limited signed URL for the document's file.
func (s *DocumentService) DownloadURL(ctx context.Context, applicationID, documentID string) (string, time.Time, error) {
	doc, err := s.findDocument(ctx, applicationID, documentID)
	if err != nil {
		return "", time.Time{}, err
	}
	if doc.IsMissingPlaceholder() {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "missing documents have no file to download")
	}
	url, expires, err := s.signer.Generate(applicationID, doc.ID)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to sign download url")
	}
	return url, expires, nil
}

func (s *DocumentService) transition(ctx context.Context, actor models.Actor, doc *models.Document, to models.DocumentStatus, reason models.DocumentRejectionReason, comment, action, description string) (*models.Document, error) {
	from := doc.Status
	now := time.Now().UTC()
	doc.Status = to
	doc.RejectionReason = reason
	doc.RejectionNote = comment
	doc.ReviewedBy = &actor.ID
	doc.ReviewedAt = &now

	if err := s.repo.UpdateStatus(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist document status")
	}
	s.metrics.RecordDocumentReview(action)
	s.audit(ctx, actor, doc.ApplicationID, action, description, &models.DocumentChangeMetadata{
		DocumentID: doc.ID,
		Type:       doc.Type,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		Comment:    comment,
	})
	s.events.Publish(ctx, doc.ApplicationID, realtime.EventDocumentStatusChanged, actor.ID)
	return doc, nil
}

// loadForMutation is the shared staff-command gauntlet for document review:
// capability, existence, placeholder guard and the KYC lock.
func (s *DocumentService) loadForMutation(ctx context.Context, actor models.Actor, applicationID, documentID string) (*models.Document, error) {
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanReviewDocuments {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not review documents")
	}
	doc, err := s.findDocument(ctx, applicationID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsMissingPlaceholder() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing documents cannot be reviewed")
	}
	snapshot, err := s.verifications.Snapshot(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if documentLocked(*doc, snapshot) {
		return nil, appErrors.Clone(appErrors.ErrDocumentLocked, "document was validated by the automated pipeline and cannot be changed manually")
	}
	return doc, nil
}

func (s *DocumentService) findDocument(ctx context.Context, applicationID, documentID string) (*models.Document, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load document")
	}
	if doc == nil || doc.ApplicationID != applicationID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return doc, nil
}

func (s *DocumentService) findApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load application")
	}
	return app, nil
}

func (s *DocumentService) audit(ctx context.Context, actor models.Actor, applicationID, action, description string, meta *models.DocumentChangeMetadata) {
	event := &models.TimelineEvent{
		ApplicationID: applicationID,
		Action:        action,
		Description:   description,
		ActorID:       actor.ID,
		ActorName:     actor.FullName,
		Metadata:      &models.TimelineMetadata{Document: meta},
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append timeline event",
			zap.String("application_id", applicationID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// appendMissingPlaceholders adds a synthetic PENDING entry for each required
// type with no uploaded document. Placeholders sort after real uploads.
func appendMissingPlaceholders(docs []models.Document, required models.DocumentTypeList) []models.Document {
	uploaded := make(map[models.DocumentType]struct{}, len(docs))
	for _, doc := range docs {
		uploaded[doc.Type] = struct{}{}
	}
	for _, docType := range required {
		if _, ok := uploaded[docType]; ok {
			continue
		}
		docs = append(docs, models.Document{
			ID:     models.MissingDocumentIDPrefix + strings.ToLower(string(docType)),
			Type:   docType,
			Status: models.DocumentPending,
		})
	}
	return docs
}
