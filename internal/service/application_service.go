package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
	"github.com/prestamax/loan-review-api/pkg/realtime"
)

type applicationRepository interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error)
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindApplicant(ctx context.Context, applicationID string) (*models.Applicant, error)
	FindAddress(ctx context.Context, applicationID string) (*models.Address, error)
	FindEmployment(ctx context.Context, applicationID string) (*models.Employment, error)
	FindSignature(ctx context.Context, applicationID string) (*models.Signature, error)
	FindLoan(ctx context.Context, applicationID string) (*models.Loan, error)
	UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error
	UpdateAssignment(ctx context.Context, id string, staffUserID string) error
	SaveCounterOffer(ctx context.Context, offer *models.CounterOffer) error
}

type noteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	ListByApplication(ctx context.Context, applicationID string) ([]models.Note, error)
}

type timelineRepository interface {
	Append(ctx context.Context, event *models.TimelineEvent) error
	ListByApplication(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, int, error)
}

type staffFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ApplicationService coordinates the application aggregate: listing, the
// full detail projection, status transitions, assignment, counter-offers,
// notes and the timeline feed.
type ApplicationService struct {
	repo          applicationRepository
	documents     documentRepository
	references    referenceRepository
	accounts      bankAccountRepository
	verifications verificationRepository
	notes         noteRepository
	timeline      timelineRepository
	staff         staffFinder
	cache         *CacheService
	permissions   permissionProvider
	events        eventPublisher
	metrics       *MetricsService
	validate      *validator.Validate
	detailTTL     time.Duration
	timelinePage  int
	logger        *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(
	repo applicationRepository,
	documents documentRepository,
	references referenceRepository,
	accounts bankAccountRepository,
	verifications verificationRepository,
	notes noteRepository,
	timeline timelineRepository,
	staff staffFinder,
	cache *CacheService,
	permissions permissionProvider,
	events eventPublisher,
	metrics *MetricsService,
	validate *validator.Validate,
	detailTTL time.Duration,
	timelinePage int,
	logger *zap.Logger,
) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = NoopPublisher()
	}
	if validate == nil {
		validate = validator.New()
	}
	if timelinePage <= 0 {
		timelinePage = 50
	}
	return &ApplicationService{
		repo:          repo,
		documents:     documents,
		references:    references,
		accounts:      accounts,
		verifications: verifications,
		notes:         notes,
		timeline:      timeline,
		staff:         staff,
		cache:         cache,
		permissions:   permissions,
		events:        events,
		metrics:       metrics,
		validate:      validate,
		detailTTL:     detailTTL,
		timelinePage:  timelinePage,
		logger:        logger,
	}
}

func detailCacheKey(applicationID string) string {
	return "application:detail:" + applicationID
}

// List returns applications matching the filter with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", *filter.Status))
	}
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list applications")
	}
	return apps, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Detail loads the full aggregate projection for the review screen. Cached;
// every mutation and every realtime push invalidates the whole projection
// and the next read rebuilds it from source.
func (s *ApplicationService) Detail(ctx context.Context, applicationID string) (*models.ApplicationDetail, error) {
	key := detailCacheKey(applicationID)
	var cached models.ApplicationDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	detail, err := s.buildDetail(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, key, detail, s.detailTTL)
	return detail, nil
}

// InvalidateDetail drops the cached projection. It is the reload target of
// the realtime subscriber: any push event means "state may have changed,
// refetch", never an incremental patch.
func (s *ApplicationService) InvalidateDetail(ctx context.Context, applicationID string) {
	if err := s.cache.Invalidate(ctx, detailCacheKey(applicationID)); err != nil {
		s.logger.Warn("failed to invalidate detail cache",
			zap.String("application_id", applicationID), zap.Error(err))
	}
}

func (s *ApplicationService) buildDetail(ctx context.Context, applicationID string) (*models.ApplicationDetail, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	detail := &models.ApplicationDetail{Application: *app}

	if detail.Applicant, err = s.repo.FindApplicant(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load applicant")
	}
	if detail.Address, err = s.repo.FindAddress(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load address")
	}
	if detail.Employment, err = s.repo.FindEmployment(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load employment")
	}
	if detail.Signature, err = s.repo.FindSignature(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load signature")
	}
	if detail.Loan, err = s.repo.FindLoan(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load loan terms")
	}

	docs, err := s.documents.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load documents")
	}
	stored, err := s.verifications.Snapshot(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load verification snapshot")
	}
	snapshot := make(models.VerificationSnapshot, len(models.AllVerificationFields()))
	for _, field := range models.AllVerificationFields() {
		snapshot[field] = stored.Record(field)
	}
	for i := range docs {
		docs[i].KYCLocked = documentLocked(docs[i], snapshot)
	}
	detail.Documents = appendMissingPlaceholders(docs, app.RequiredDocuments)
	detail.Verification = snapshot

	if detail.References, err = s.references.ListByApplication(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load references")
	}
	if detail.BankAccounts, err = s.accounts.ListByApplication(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load bank accounts")
	}
	if detail.Notes, err = s.notes.ListByApplication(ctx, applicationID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load notes")
	}

	completeness := ComputeCompleteness(detail)
	detail.Completeness = &completeness
	return detail, nil
}

// ChangeStatus moves the application to a new status. Checks run in fixed
// order: capability, terminal, enum validity, difference, then the actor's
// permission-scoped allow-list. Failures mutate nothing.
func (s *ApplicationService) ChangeStatus(ctx context.Context, actor models.Actor, applicationID string, target models.ApplicationStatus, note string) (*models.Application, error) {
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanChangeApplicationStatus {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not change application status")
	}
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrTerminalState,
			fmt.Sprintf("application is %s; terminal statuses admit no transitions", app.Status))
	}
	if !target.IsValid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", target))
	}
	if target == app.Status {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "application is already in that status")
	}
	allowed, err := s.permissions.AllowedStatusTargets(ctx, actor, app.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve allowed transitions")
	}
	if _, ok := allowed[target]; !ok {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied,
			fmt.Sprintf("actor may not move application from %s to %s", app.Status, target))
	}

	if err := s.repo.UpdateStatus(ctx, applicationID, target); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist status change")
	}

	from := app.Status
	app.Status = target
	app.StatusChangedAt = time.Now().UTC()
	s.metrics.RecordStatusTransition(target)
	s.audit(ctx, actor, applicationID, models.ActionStatusChanged,
		fmt.Sprintf("status changed from %s to %s", from, target),
		&models.TimelineMetadata{Status: &models.StatusChangeMetadata{FromStatus: from, ToStatus: target, Note: note}})
	s.InvalidateDetail(ctx, applicationID)
	s.events.Publish(ctx, applicationID, realtime.EventApplicationStatusChanged, actor.ID)
	return app, nil
}

// Assign sets the reviewing staff member. Status is untouched.
func (s *ApplicationService) Assign(ctx context.Context, actor models.Actor, applicationID, staffUserID string) (*models.Application, error) {
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanAssignApplications {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not assign applications")
	}
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.FindByID(ctx, staffUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load staff user")
	}
	if staff == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "staff user not found")
	}

	if err := s.repo.UpdateAssignment(ctx, applicationID, staffUserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist assignment")
	}
	app.AssignedTo = &staffUserID
	s.audit(ctx, actor, applicationID, models.ActionAssigned,
		fmt.Sprintf("application assigned to %s", staff.FullName), nil)
	s.InvalidateDetail(ctx, applicationID)
	return app, nil
}

// CreateCounterOffer computes amortization for the proposed terms and
// records the offer, moving the application to COUNTER_OFFERED. Allowed
// only from IN_REVIEW or DOCS_PENDING.
func (s *ApplicationService) CreateCounterOffer(ctx context.Context, actor models.Actor, applicationID string, req models.CounterOfferRequest) (*models.CounterOffer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counter-offer request")
	}
	perms, err := s.permissions.Permissions(ctx, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve permissions")
	}
	if !perms.CanApproveRejectApplications {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "actor may not issue counter-offers")
	}
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusInReview && app.Status != models.StatusDocsPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("counter-offers require an application in review; current status is %s", app.Status))
	}

	result, err := Amortize(req.Amount, req.TermMonths, req.InterestRate, req.Frequency)
	if err != nil {
		return nil, err
	}

	offer := &models.CounterOffer{
		ApplicationID: applicationID,
		Amount:        req.Amount,
		TermMonths:    req.TermMonths,
		InterestRate:  req.InterestRate,
		Frequency:     req.Frequency,
		Payment:       result.Payment,
		TotalToPay:    result.TotalToPay,
		TotalInterest: result.TotalInterest,
		Reason:        strings.TrimSpace(req.Reason),
		CreatedBy:     actor.ID,
	}
	if err := s.repo.SaveCounterOffer(ctx, offer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist counter-offer")
	}

	s.metrics.RecordCounterOffer()
	s.metrics.RecordStatusTransition(models.StatusCounterOffered)
	s.audit(ctx, actor, applicationID, models.ActionCounterOffered,
		fmt.Sprintf("counter-offer issued for %.2f over %d months", req.Amount, req.TermMonths),
		&models.TimelineMetadata{CounterOffer: &models.CounterOfferMetadata{
			Amount:       req.Amount,
			TermMonths:   req.TermMonths,
			InterestRate: req.InterestRate,
			Frequency:    req.Frequency,
			Payment:      result.Payment,
		}})
	s.InvalidateDetail(ctx, applicationID)
	s.events.Publish(ctx, applicationID, realtime.EventApplicationStatusChanged, actor.ID)
	return offer, nil
}

// AddNote attaches a free-form staff note.
func (s *ApplicationService) AddNote(ctx context.Context, actor models.Actor, applicationID, body string) (*models.Note, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note body is required")
	}
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	note := &models.Note{
		ApplicationID: applicationID,
		Body:          body,
		CreatedBy:     actor.ID,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to persist note")
	}
	s.audit(ctx, actor, applicationID, models.ActionNoteAdded, "note added", nil)
	s.InvalidateDetail(ctx, applicationID)
	return note, nil
}

// ListNotes returns all staff notes, newest first.
func (s *ApplicationService) ListNotes(ctx context.Context, applicationID string) ([]models.Note, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load notes")
	}
	return notes, nil
}

// ListTimeline returns the audit feed, newest first.
func (s *ApplicationService) ListTimeline(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, models.Pagination, error) {
	if _, err := s.findApplication(ctx, applicationID); err != nil {
		return nil, models.Pagination{}, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = s.timelinePage
	}
	events, total, err := s.timeline.ListByApplication(ctx, applicationID, page, pageSize)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load timeline")
	}
	return events, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func (s *ApplicationService) findApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load application")
	}
	return app, nil
}

func (s *ApplicationService) audit(ctx context.Context, actor models.Actor, applicationID, action, description string, metadata *models.TimelineMetadata) {
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
