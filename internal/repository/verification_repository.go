package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// VerificationRepository persists per-field verification records.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs a new repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, application_id, field, status, method, verified_at, verified_by, notes, rejection_reason, updated_at`

// Snapshot returns all persisted field records for an application keyed by
// field name. Fields with no row are implicitly PENDING.
func (r *VerificationRepository) Snapshot(ctx context.Context, applicationID string) (models.VerificationSnapshot, error) {
	query := fmt.Sprintf("SELECT %s FROM field_verifications WHERE application_id = $1", verificationColumns)
	var records []models.FieldVerificationRecord
	if err := r.db.SelectContext(ctx, &records, query, applicationID); err != nil {
		return nil, fmt.Errorf("load verification snapshot: %w", err)
	}
	snapshot := make(models.VerificationSnapshot, len(records))
	for _, rec := range records {
		snapshot[rec.Field] = rec
	}
	return snapshot, nil
}

// Find returns the record for a single field, or nil when none exists.
func (r *VerificationRepository) Find(ctx context.Context, applicationID string, field models.VerificationField) (*models.FieldVerificationRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM field_verifications WHERE application_id = $1 AND field = $2", verificationColumns)
	var records []models.FieldVerificationRecord
	if err := r.db.SelectContext(ctx, &records, query, applicationID, field); err != nil {
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Upsert writes the record for (application, field), replacing any prior row.
func (r *VerificationRepository) Upsert(ctx context.Context, record *models.FieldVerificationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO field_verifications (id, application_id, field, status, method, verified_at, verified_by, notes, rejection_reason, updated_at)
VALUES (:id, :application_id, :field, :status, :method, :verified_at, :verified_by, :notes, :rejection_reason, :updated_at)
ON CONFLICT (application_id, field) DO UPDATE SET
	status = EXCLUDED.status,
	method = EXCLUDED.method,
	verified_at = EXCLUDED.verified_at,
	verified_by = EXCLUDED.verified_by,
	notes = EXCLUDED.notes,
	rejection_reason = EXCLUDED.rejection_reason,
	updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert verification record: %w", err)
	}
	return nil
}
