package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// ReferenceRepository manages persistence for personal references.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a new repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

const referenceColumns = `id, application_id, full_name, relationship, phone, outcome, notes, verified_by, verified_at, created_at, updated_at`

// ListByApplication returns all references for an application.
func (r *ReferenceRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Reference, error) {
	query := fmt.Sprintf("SELECT %s FROM personal_references WHERE application_id = $1 ORDER BY created_at ASC", referenceColumns)
	var refs []models.Reference
	if err := r.db.SelectContext(ctx, &refs, query, applicationID); err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	return refs, nil
}

// FindByID loads a single reference.
func (r *ReferenceRepository) FindByID(ctx context.Context, id string) (*models.Reference, error) {
	query := fmt.Sprintf("SELECT %s FROM personal_references WHERE id = $1", referenceColumns)
	var ref models.Reference
	if err := r.db.GetContext(ctx, &ref, query, id); err != nil {
		return nil, err
	}
	return &ref, nil
}

// UpdateOutcome persists a verification call result.
func (r *ReferenceRepository) UpdateOutcome(ctx context.Context, ref *models.Reference) error {
	ref.UpdatedAt = time.Now().UTC()
	query := `UPDATE personal_references SET outcome = :outcome, notes = :notes, verified_by = :verified_by, verified_at = :verified_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, ref); err != nil {
		return fmt.Errorf("update reference outcome: %w", err)
	}
	return nil
}
