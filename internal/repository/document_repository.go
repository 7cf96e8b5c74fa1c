package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// DocumentRepository manages persistence for uploaded review documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a new repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, application_id, type, file_name, content_type, status, rejection_reason, rejection_note, metadata, reviewed_by, reviewed_at, uploaded_at, updated_at`

// ListByApplication returns all uploaded documents for an application.
func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE application_id = $1 ORDER BY uploaded_at ASC", documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, applicationID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		if err := decodeDocumentMetadata(&docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// FindByID loads a single document.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	if err := decodeDocumentMetadata(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus persists a document review transition.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	query := `UPDATE documents SET status = :status, rejection_reason = :rejection_reason, rejection_note = :rejection_note, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

// decodeDocumentMetadata parses the jsonb column into the typed metadata
// shape, keeping unmodeled keys in Extra.
func decodeDocumentMetadata(doc *models.Document) error {
	if len(doc.MetadataRaw) == 0 {
		return nil
	}
	var meta models.DocumentMetadata
	if err := json.Unmarshal(doc.MetadataRaw, &meta); err != nil {
		return fmt.Errorf("decode document metadata %s: %w", doc.ID, err)
	}
	var all map[string]interface{}
	if err := json.Unmarshal(doc.MetadataRaw, &all); err == nil {
		delete(all, "face_match_passed")
		delete(all, "face_match_score")
		delete(all, "validation_method")
		delete(all, "kyc_validated")
		delete(all, "source")
		delete(all, "extra")
		if len(all) > 0 {
			meta.Extra = all
		}
	}
	doc.Metadata = &meta
	return nil
}
