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

type referenceRepository interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.Reference, error)
	FindByID(ctx context.Context, id string) (*models.Reference, error)
	UpdateOutcome(ctx context.Context, ref *models.Reference) error
}

type bankAccountRepository interface {
	ListByApplication(ctx context.Context, applicationID string) ([]models.BankAccount, error)
	FindByID(ctx context.Context, id string) (*models.BankAccount, error)
	SetVerified(ctx context.Context, account *models.BankAccount) error
}

// ReferenceService records the results of staff calls to personal
// references and toggles bank account verification. Neither has a lock
// concept: outcomes are freely overwritable, each write re-stamping the
// verifier and timestamp.
type ReferenceService struct {
	references  referenceRepository
	accounts    bankAccountRepository
	apps        applicationFinder
	permissions permissionProvider
	timeline    timelineAppender
	events      eventPublisher
	logger      *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(references referenceRepository, accounts bankAccountRepository, apps applicationFinder, permissions permissionProvider, timeline timelineAppender, events eventPublisher, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NoopPublisher()
	}
	return &ReferenceService{
		references:  references,
		accounts:    accounts,
		apps:        apps,
		permissions: permissions,
		timeline:    timeline,
		events:      events,
		logger:      logger,
	}
}

// ListReferences returns the application's personal references.
func (s *ReferenceService) ListReferences(ctx context.Context, applicationID string) ([]models.Reference, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	refs, err := s.references.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load references")
	}
	return refs, nil
}

// ListBankAccounts returns the application's declared disbursement accounts.
func (s *ReferenceService) ListBankAccounts(ctx context.Context, applicationID string) ([]models.BankAccount, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load bank accounts")
	}
	return accounts, nil
}

// RecordReferenceOutcome writes the result of a reference call. Any outcome
// may replace any other; setting the same outcome again is a no-op write
// that still refreshes the verifier stamp.
func (s *ReferenceService) RecordReferenceOutcome(ctx context.Context, actor models.Actor, applicationID, referenceID string, outcome models.ReferenceOutcome, notes string) (*models.Reference, error) {
	if !outcome.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown reference outcome %q", outcome))
	}
	if err := s.requireCapability(ctx, actor); err != nil {
		return nil, err
	}
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	ref, err := s.references.FindByID(ctx, referenceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load reference")
	}
	if ref == nil || ref.ApplicationID != applicationID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reference not found")
	}

	now := time.Now().UTC()
	ref.Outcome = outcome
	ref.Notes = strings.TrimSpace(notes)
	ref.VerifiedBy = &actor.ID
	ref.VerifiedAt = &now

	if err := s.references.UpdateOutcome(ctx, ref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist reference outcome")
	}
	s.audit(ctx, actor, applicationID, models.ActionReferenceVerified,
		fmt.Sprintf("reference %s marked %s", ref.FullName, outcome),
		&models.TimelineMetadata{Reference: &models.ReferenceChangeMetadata{
			ReferenceID: ref.ID,
			Outcome:     outcome,
			Notes:       ref.Notes,
		}})
	s.events.Publish(ctx, applicationID, realtime.EventReferenceVerified, actor.ID)
	return ref, nil
}

// SetBankAccountVerified toggles an account's verified flag. Idempotent:
// re-asserting the current value still re-stamps the verifier.
func (s *ReferenceService) SetBankAccountVerified(ctx context.Context, actor models.Actor, applicationID, accountID string, verified bool) (*models.BankAccount, error) {
	if err := s.requireCapability(ctx, actor); err != nil {
		return nil, err
	}
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load bank account")
	}
	if account == nil || account.ApplicationID != applicationID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
	}

	now := time.Now().UTC()
	account.IsVerified = verified
	account.VerifiedBy = &actor.ID
	account.VerifiedAt = &now

	if err := s.accounts.SetVerified(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist bank account verification")
	}
	description := "bank account verified"
	if !verified {
		description = "bank account verification rolled back"
	}
	s.audit(ctx, actor, applicationID, models.ActionBankAccountVerified, description,
		&models.TimelineMetadata{BankAccount: &models.BankAccountChangeMetadata{
			AccountID: account.ID,
			Verified:  verified,
		}})
	s.events.Publish(ctx, applicationID, realtime.EventBankAccountVerified, actor.ID)
	return account, nil
}

func (s *ReferenceService) requireCapability(ctx context.Context, actor models.Actor) error {
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanVerifyReferences {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not verify references")
	}
	return nil
}

func (s *ReferenceService) findApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load application")
	}
	return app, nil
}

func (s *ReferenceService) audit(ctx context.Context, actor models.Actor, applicationID, action, description string, metadata *models.TimelineMetadata) {
	event := &models.TimelineEvent{
		ApplicationID: applicationID,
		Action:        action,
		Description:   description,
		ActorID:       actor.ID,
		ActorName:     actor.FullName,
		Metadata:      metadata,
	}
	if err := s.timeline.Append(ctx, event); err != nil {
		s.logger.Warn("failed to append timeline event",
			zap.String("application_id", applicationID),
			zap.String("action", action),
			zap.Error(err))
	}
}
