package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// NoteRepository persists staff notes on applications.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs a new repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a new note.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO application_notes (id, application_id, body, created_by, created_at)
VALUES (:id, :application_id, :body, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// ListByApplication returns notes oldest first.
func (r *NoteRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.Note, error) {
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes,
		`SELECT id, application_id, body, created_by, created_at FROM application_notes WHERE application_id = $1 ORDER BY created_at ASC`,
		applicationID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}
