package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamax/loan-review-api/internal/models"
)

// TimelineRepository persists the per-application audit feed.
type TimelineRepository struct {
	db *sqlx.DB
}

// NewTimelineRepository constructs a new repository.
func NewTimelineRepository(db *sqlx.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Append records a timeline event. Called after every successful mutation.
func (r *TimelineRepository) Append(ctx context.Context, event *models.TimelineEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("encode timeline metadata: %w", err)
		}
		event.MetadataRaw = raw
	}
	query := `INSERT INTO timeline_events (id, application_id, action, description, actor_id, actor_name, metadata, created_at)
VALUES (:id, :application_id, :action, :description, :actor_id, :actor_name, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// ListByApplication returns the newest events first.
func (r *TimelineRepository) ListByApplication(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize
	query := fmt.Sprintf(`SELECT id, application_id, action, description, actor_id, actor_name, metadata, created_at
FROM timeline_events WHERE application_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var events []models.TimelineEvent
	if err := r.db.SelectContext(ctx, &events, query, applicationID); err != nil {
		return nil, 0, fmt.Errorf("list timeline events: %w", err)
	}
	for i := range events {
		if len(events[i].MetadataRaw) == 0 {
			continue
		}
		var meta models.TimelineMetadata
		if err := json.Unmarshal(events[i].MetadataRaw, &meta); err != nil {
			return nil, 0, fmt.Errorf("decode timeline metadata %s: %w", events[i].ID, err)
		}
		events[i].Metadata = &meta
	}
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM timeline_events WHERE application_id = $1", applicationID); err != nil {
		return nil, 0, fmt.Errorf("count timeline events: %w", err)
	}
	return events, total, nil
}
