package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prestamax/loan-review-api/internal/models"
	"github.com/prestamax/loan-review-api/pkg/realtime"
)

type mockApplicationRepo struct {
	apps          map[string]*models.Application
	applicants    map[string]*models.Applicant
	addresses     map[string]*models.Address
	employments   map[string]*models.Employment
	signatures    map[string]*models.Signature
	loans         map[string]*models.Loan
	statusWrites  []models.ApplicationStatus
	assignWrites  []string
	counterOffers []*models.CounterOffer
}

func newMockApplicationRepo(apps ...*models.Application) *mockApplicationRepo {
	m := &mockApplicationRepo{apps: map[string]*models.Application{}}
	for _, app := range apps {
		m.apps[app.ID] = app
	}
	return m
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	out := make([]models.Application, 0, len(m.apps))
	for _, app := range m.apps {
		out = append(out, *app)
	}
	return out, len(out), nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := m.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	return m.applicants[id], nil
}

func (m *mockApplicationRepo) FindAddress(ctx context.Context, id string) (*models.Address, error) {
	return m.addresses[id], nil
}

func (m *mockApplicationRepo) FindEmployment(ctx context.Context, id string) (*models.Employment, error) {
	return m.employments[id], nil
}

func (m *mockApplicationRepo) FindSignature(ctx context.Context, id string) (*models.Signature, error) {
	return m.signatures[id], nil
}

func (m *mockApplicationRepo) FindLoan(ctx context.Context, id string) (*models.Loan, error) {
	return m.loans[id], nil
}

func (m *mockApplicationRepo) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	app, ok := m.apps[id]
	if !ok {
		return sql.ErrNoRows
	}
	app.Status = status
	m.statusWrites = append(m.statusWrites, status)
	return nil
}

func (m *mockApplicationRepo) UpdateAssignment(ctx context.Context, id string, staffUserID string) error {
	app, ok := m.apps[id]
	if !ok {
		return sql.ErrNoRows
	}
	app.AssignedTo = &staffUserID
	m.assignWrites = append(m.assignWrites, staffUserID)
	return nil
}

func (m *mockApplicationRepo) SaveCounterOffer(ctx context.Context, offer *models.CounterOffer) error {
	offer.ID = fmt.Sprintf("offer%d", len(m.counterOffers)+1)
	m.counterOffers = append(m.counterOffers, offer)
	if app, ok := m.apps[offer.ApplicationID]; ok {
		app.Status = models.StatusCounterOffered
	}
	if loan, ok := m.loans[offer.ApplicationID]; ok {
		amount := offer.Amount
		loan.ApprovedAmount = &amount
	}
	return nil
}

type mockVerificationRepo struct {
	records map[models.VerificationField]*models.FieldVerificationRecord
}

func newMockVerificationRepo(records ...*models.FieldVerificationRecord) *mockVerificationRepo {
	m := &mockVerificationRepo{records: map[models.VerificationField]*models.FieldVerificationRecord{}}
	for _, rec := range records {
		m.records[rec.Field] = rec
	}
	return m
}

func (m *mockVerificationRepo) Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error) {
	snapshot := models.VerificationSnapshot{}
	for field, rec := range m.records {
		snapshot[field] = *rec
	}
	return snapshot, nil
}

func (m *mockVerificationRepo) Find(ctx context.Context, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error) {
	if rec, ok := m.records[field]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (m *mockVerificationRepo) Upsert(ctx context.Context, record *models.FieldVerificationRecord) error {
	copied := *record
	m.records[record.Field] = &copied
	return nil
}

type mockDocumentRepo struct {
	docs map[string]*models.Document
}

func newMockDocumentRepo(docs ...*models.Document) *mockDocumentRepo {
	m := &mockDocumentRepo{docs: map[string]*models.Document{}}
	for _, doc := range docs {
		m.docs[doc.ID] = doc
	}
	return m
}

func (m *mockDocumentRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	out := []models.Document{}
	for _, doc := range m.docs {
		if doc.ApplicationID == applicationID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := m.docs[id]; ok {
		copied := *doc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDocumentRepo) UpdateStatus(ctx context.Context, doc *models.Document) error {
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

type mockReferenceRepo struct {
	refs map[string]*models.Reference
}

func newMockReferenceRepo(refs ...*models.Reference) *mockReferenceRepo {
	m := &mockReferenceRepo{refs: map[string]*models.Reference{}}
	for _, ref := range refs {
		m.refs[ref.ID] = ref
	}
	return m
}

func (m *mockReferenceRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Reference, error) {
	out := []models.Reference{}
	for _, ref := range m.refs {
		if ref.ApplicationID == applicationID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (m *mockReferenceRepo) FindByID(ctx context.Context, id string) (*models.Reference, error) {
	if ref, ok := m.refs[id]; ok {
		copied := *ref
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockReferenceRepo) UpdateOutcome(ctx context.Context, ref *models.Reference) error {
	copied := *ref
	m.refs[ref.ID] = &copied
	return nil
}

type mockBankAccountRepo struct {
	accounts map[string]*models.BankAccount
}

func newMockBankAccountRepo(accounts ...*models.BankAccount) *mockBankAccountRepo {
	m := &mockBankAccountRepo{accounts: map[string]*models.BankAccount{}}
	for _, acct := range accounts {
		m.accounts[acct.ID] = acct
	}
	return m
}

func (m *mockBankAccountRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.BankAccount, error) {
	out := []models.BankAccount{}
	for _, acct := range m.accounts {
		if acct.ApplicationID == applicationID {
			out = append(out, *acct)
		}
	}
	return out, nil
}

func (m *mockBankAccountRepo) FindByID(ctx context.Context, id string) (*models.BankAccount, error) {
	if acct, ok := m.accounts[id]; ok {
		copied := *acct
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBankAccountRepo) SetVerified(ctx context.Context, account *models.BankAccount) error {
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

type mockNoteRepo struct {
	notes []*models.Note
}

func (m *mockNoteRepo) Create(ctx context.Context, note *models.Note) error {
	note.ID = fmt.Sprintf("note%d", len(m.notes)+1)
	m.notes = append(m.notes, note)
	return nil
}

func (m *mockNoteRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Note, error) {
	out := []models.Note{}
	for _, note := range m.notes {
		if note.ApplicationID == applicationID {
			out = append(out, *note)
		}
	}
	return out, nil
}

type mockTimeline struct {
	events []*models.TimelineEvent
}

func (m *mockTimeline) Append(ctx context.Context, event *models.TimelineEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockTimeline) ListByApplication(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, int, error) {
	out := []models.TimelineEvent{}
	for _, ev := range m.events {
		if ev.ApplicationID == applicationID {
			out = append(out, *ev)
		}
	}
	return out, len(out), nil
}

func (m *mockTimeline) lastAction() string {
	if len(m.events) == 0 {
		return ""
	}
	return m.events[len(m.events)-1].Action
}

type publishedEvent struct {
	applicationID string
	eventType     realtime.EventType
	actorID       string
}

type mockEvents struct {
	published []publishedEvent
}

func (m *mockEvents) Publish(ctx context.Context, applicationID string, eventType realtime.EventType, actorID string) {
	m.published = append(m.published, publishedEvent{applicationID, eventType, actorID})
}

type mockStaffFinder struct {
	users map[string]*models.User
}

func (m *mockStaffFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func analystActor() models.Actor {
	return models.Actor{ID: "u-analyst", FullName: "Ana Lista", Role: models.RoleAnalyst}
}

func supervisorActor() models.Actor {
	return models.Actor{ID: "u-super", FullName: "Sofia Pérez", Role: models.RoleSupervisor}
}

func reviewApplication(status models.ApplicationStatus) *models.Application {
	return &models.Application{
		ID:                "app1",
		TenantID:          "tenant1",
		Folio:             "PMX-0001",
		Status:            status,
		RequiredDocuments: models.DocumentTypeList{models.DocINEFront, models.DocINEBack, models.DocProofOfAddress},
	}
}
