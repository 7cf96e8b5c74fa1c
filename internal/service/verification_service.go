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
)

type verificationRepository interface {
	Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error)
	Find(ctx context.Context, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error)
	Upsert(ctx context.Context, record *models.FieldVerificationRecord) error
}

type verificationDocumentRepository interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.Document, error)
}

// VerificationService is the registry of per-field verification state. It
// enforces the lock invariant: a record whose last verification was
// automated can only be changed by the automated pipeline, never by staff.
type VerificationService struct {
	repo        verificationRepository
	documents   verificationDocumentRepository
	apps        applicationFinder
	permissions permissionProvider
	timeline    timelineAppender
	events      eventPublisher
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewVerificationService constructs the service.
func NewVerificationService(repo verificationRepository, documents verificationDocumentRepository, apps applicationFinder, permissions permissionProvider, timeline timelineAppender, events eventPublisher, metrics *MetricsService, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NoopPublisher()
	}
	return &VerificationService{
		repo:        repo,
		documents:   documents,
		apps:        apps,
		permissions: permissions,
		timeline:    timeline,
		events:      events,
		metrics:     metrics,
		logger:      logger,
	}
}

// Verify marks a field as confirmed correct by the actor. Fails when the
// record is locked by a prior automated verification.
func (s *VerificationService) Verify(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error) {
	record, err := s.loadForMutation(ctx, actor, applicationID, field)
	if err != nil {
		return nil, err
	}

	prior := record.Status
	now := time.Now().UTC()
	record.Status = models.VerificationVerified
	record.Method = models.MethodManual
	record.VerifiedAt = &now
	record.VerifiedBy = &actor.ID
	record.RejectionReason = ""

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist field verification")
	}
	s.metrics.RecordFieldVerification(record.Status)
	s.audit(ctx, actor, applicationID, models.ActionFieldVerified,
		fmt.Sprintf("field %s verified", field),
		&models.FieldChangeMetadata{Field: field, FromStatus: prior, ToStatus: record.Status, Method: record.Method})
	s.events.Publish(ctx, applicationID, realtime.EventFieldVerificationChanged, actor.ID)
	return record, nil
}

// Reject marks a field as confirmed incorrect. The reason is mandatory and
// recorded for the applicant-facing corrections flow.
func (s *VerificationService) Reject(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField, reason string) (*models.FieldVerificationRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	record, err := s.loadForMutation(ctx, actor, applicationID, field)
	if err != nil {
		return nil, err
	}

	prior := record.Status
	now := time.Now().UTC()
	record.Status = models.VerificationRejected
	record.Method = models.MethodManual
	record.VerifiedAt = &now
	record.VerifiedBy = &actor.ID
	record.RejectionReason = reason

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist field rejection")
	}
	s.metrics.RecordFieldVerification(record.Status)
	s.audit(ctx, actor, applicationID, models.ActionFieldRejected,
		fmt.Sprintf("field %s rejected", field),
		&models.FieldChangeMetadata{Field: field, FromStatus: prior, ToStatus: record.Status, Method: record.Method, Reason: reason})
	s.events.Publish(ctx, applicationID, realtime.EventFieldVerificationChanged, actor.ID)
	return record, nil
}

// Unverify rolls a field back to PENDING. Distinct from "never verified":
// the rollback keeps its own audit trail, with verified_at stamping when
// the rollback happened and the reason kept in notes.
func (s *VerificationService) Unverify(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField, reason string) (*models.FieldVerificationRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unverify reason is required")
	}
	record, err := s.loadForMutation(ctx, actor, applicationID, field)
	if err != nil {
		return nil, err
	}

	prior := record.Status
	now := time.Now().UTC()
	record.Status = models.VerificationPending
	record.Method = ""
	record.VerifiedAt = &now
	record.VerifiedBy = &actor.ID
	record.RejectionReason = ""
	record.Notes = reason

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist field rollback")
	}
	s.metrics.RecordFieldVerification(record.Status)
	s.audit(ctx, actor, applicationID, models.ActionFieldUnverified,
		fmt.Sprintf("field %s verification rolled back", field),
		&models.FieldChangeMetadata{Field: field, FromStatus: prior, ToStatus: record.Status, Reason: reason})
	s.events.Publish(ctx, applicationID, realtime.EventFieldVerificationChanged, actor.ID)
	return record, nil
}

// ApplyAutomatedResult records a verification produced by the automated KYC
// pipeline. It is the only path allowed to write automated methods and the
// only path that may overwrite a locked record.
func (s *VerificationService) ApplyAutomatedResult(ctx context.Context, applicationID string, field models.VerificationField, status models.VerificationStatus, method models.VerificationMethod, note string) (*models.FieldVerificationRecord, error) {
	if !field.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification field %q", field))
	}
	if !models.IsAutomatedMethod(method) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("method %q is not an automated verification method", method))
	}
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	record, err := s.repo.Find(ctx, applicationID, field)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load verification record")
	}
	if record == nil {
		record = &models.FieldVerificationRecord{ApplicationID: applicationID, Field: field}
	}

	now := time.Now().UTC()
	record.Status = status
	record.Method = method
	record.VerifiedAt = &now
	record.VerifiedBy = nil
	record.Notes = note
	if status != models.VerificationRejected {
		record.RejectionReason = ""
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist automated verification")
	}
	s.logger.Info("automated verification applied",
		zap.String("application_id", applicationID),
		zap.String("field", string(field)),
		zap.String("method", string(method)),
		zap.String("status", string(status)))
	s.events.Publish(ctx, applicationID, realtime.EventFieldVerificationChanged, "")
	return record, nil
}

// IsLocked reports whether the field is immutable to staff commands.
func (s *VerificationService) IsLocked(ctx context.Context, applicationID string, field models.VerificationField) (bool, error) {
	if !field.IsValid() {
		return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification field %q", field))
	}
	record, err := s.repo.Find(ctx, applicationID, field)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load verification record")
	}
	rec := models.FieldVerificationRecord{Field: field, Status: models.VerificationPending}
	if record != nil {
		rec = *record
	}
	selfie, err := s.findSelfie(ctx, applicationID)
	if err != nil {
		return false, err
	}
	return fieldLocked(rec, selfie), nil
}

// Snapshot returns the registry state for every field, including implicit
// PENDING records for fields never touched.
func (s *VerificationService) Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	stored, err := s.repo.Snapshot(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load verification snapshot")
	}
	snapshot := make(models.VerificationSnapshot, len(models.AllVerificationFields()))
	for _, field := range models.AllVerificationFields() {
		snapshot[field] = stored.Record(field)
	}
	return snapshot, nil
}

// loadForMutation runs the shared staff-command gauntlet: capability check,
// aggregate existence, field validity and the lock invariant. Nothing is
// mutated unless every check passes.
func (s *VerificationService) loadForMutation(ctx context.Context, actor models.Actor, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error) {
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanVerifyFields {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not verify fields")
	}
	if !field.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown verification field %q", field))
	}
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	record, err := s.repo.Find(ctx, applicationID, field)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load verification record")
	}
	if record == nil {
		record = &models.FieldVerificationRecord{ApplicationID: applicationID, Field: field, Status: models.VerificationPending}
	}
	selfie, err := s.findSelfie(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if fieldLocked(*record, selfie) {
		return nil, appErrors.Clone(appErrors.ErrFieldLocked,
			fmt.Sprintf("field %s was verified by %s and cannot be changed manually", field, record.Method))
	}
	return record, nil
}

func (s *VerificationService) findApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load application")
	}
	return app, nil
}

func (s *VerificationService) findSelfie(ctx context.Context, applicationID string) (*models.Document, error) {
	docs, err := s.documents.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load documents")
	}
	return selfieOf(docs), nil
}

func (s *VerificationService) audit(ctx context.Context, actor models.Actor, applicationID, action, description string, meta *models.FieldChangeMetadata) {
	event := &models.TimelineEvent{
		ApplicationID: applicationID,
		Action:        action,
		Description:   description,
		ActorID:       actor.ID,
		ActorName:     actor.FullName,
		Metadata:      &models.TimelineMetadata{Field: meta},
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append timeline event",
			zap.String("application_id", applicationID),
			zap.String("action", action),
			zap.Error(err))
	}
}
