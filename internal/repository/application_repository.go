package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// ApplicationRepository manages persistence for the application aggregate.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs a new repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, tenant_id, folio, status, assigned_to, required_documents, submitted_at, status_changed_at, created_at, updated_at`

// List returns applications per provided filter.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	base := "FROM applications"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.AssignedTo != "" {
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, filter.AssignedTo)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("folio ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	offset := (page - 1) * size

	sortBy := "created_at"
	if filter.SortBy == "folio" || filter.SortBy == "status" || filter.SortBy == "updated_at" {
		sortBy = filter.SortBy
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		applicationColumns, base, whereClause, sortBy, order, size, offset)
	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return apps, total, nil
}

// FindByID loads the application root.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM applications WHERE id = $1", applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindApplicant loads the applicant snapshot, nil when absent.
func (r *ApplicationRepository) FindApplicant(ctx context.Context, applicationID string) (*models.Applicant, error) {
	var applicant models.Applicant
	err := r.db.GetContext(ctx, &applicant,
		`SELECT application_id, first_name, last_name_1, last_name_2, curp, rfc, ine_clave, birth_date, phone, email
FROM applicants WHERE application_id = $1`, applicationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant: %w", err)
	}
	return &applicant, nil
}

// FindAddress loads the declared address, nil when absent.
func (r *ApplicationRepository) FindAddress(ctx context.Context, applicationID string) (*models.Address, error) {
	var address models.Address
	err := r.db.GetContext(ctx, &address,
		`SELECT application_id, street, exterior_no, interior_no, neighborhood, municipality, state, postal_code, housing_type, years_at_home
FROM addresses WHERE application_id = $1`, applicationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	return &address, nil
}

// FindEmployment loads the declared employment, nil when absent.
func (r *ApplicationRepository) FindEmployment(ctx context.Context, applicationID string) (*models.Employment, error) {
	var employment models.Employment
	err := r.db.GetContext(ctx, &employment,
		`SELECT application_id, employment_type, company_name, position, monthly_income, years_employed, work_phone
FROM employments WHERE application_id = $1`, applicationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find employment: %w", err)
	}
	return &employment, nil
}

// FindSignature loads the signature record, nil when absent.
func (r *ApplicationRepository) FindSignature(ctx context.Context, applicationID string) (*models.Signature, error) {
	var signature models.Signature
	err := r.db.GetContext(ctx, &signature,
		`SELECT application_id, has_signed, signed_at FROM signatures WHERE application_id = $1`, applicationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find signature: %w", err)
	}
	return &signature, nil
}

// FindLoan loads the loan terms, nil when absent.
func (r *ApplicationRepository) FindLoan(ctx context.Context, applicationID string) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.GetContext(ctx, &loan,
		`SELECT application_id, requested_amount, approved_amount, term_months, payment_frequency, interest_rate, monthly_payment, total_to_pay, product_type, updated_at
FROM loans WHERE application_id = $1`, applicationID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find loan: %w", err)
	}
	return &loan, nil
}

// UpdateStatus persists a status transition.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status models.ApplicationStatus) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $1, status_changed_at = $2, updated_at = $2 WHERE id = $3`,
		status, now, id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateAssignment persists the assigned reviewer.
func (r *ApplicationRepository) UpdateAssignment(ctx context.Context, id string, staffUserID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE applications SET assigned_to = $1, updated_at = $2 WHERE id = $3`,
		staffUserID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update application assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SaveCounterOffer stores the offer, records the approved amount on the loan
// terms and moves the application to COUNTER_OFFERED, all in one transaction
// so a failure leaves no partial mutation behind.
func (r *ApplicationRepository) SaveCounterOffer(ctx context.Context, offer *models.CounterOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin counter offer tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO counter_offers (id, application_id, amount, term_months, interest_rate, frequency, payment, total_to_pay, total_interest, reason, created_by, created_at)
VALUES (:id, :application_id, :amount, :term_months, :interest_rate, :frequency, :payment, :total_to_pay, :total_interest, :reason, :created_by, :created_at)`,
		offer); err != nil {
		return fmt.Errorf("insert counter offer: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE loans SET approved_amount = $1, updated_at = $2 WHERE application_id = $3`,
		offer.Amount, now, offer.ApplicationID); err != nil {
		return fmt.Errorf("update loan approved amount: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE applications SET status = $1, status_changed_at = $2, updated_at = $2 WHERE id = $3`,
		models.StatusCounterOffered, now, offer.ApplicationID); err != nil {
		return fmt.Errorf("update application to counter offered: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit counter offer: %w", err)
	}
	return nil
}
