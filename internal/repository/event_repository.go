package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// EventRepository handles persistence for locally-registered events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository instantiates an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, eb_event_id, organizer_id, init_submission, end_submission, start_evaluation, end_evaluation, created_at, updated_at"

// Create registers an external event for document collection.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, eb_event_id, organizer_id, init_submission, end_submission, start_evaluation, end_evaluation, created_at, updated_at)
		VALUES (:id, :eb_event_id, :organizer_id, :init_submission, :end_submission, :start_evaluation, :end_evaluation, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// FindByID loads an event by identifier.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByExternalID loads an event by its provider-side identifier.
func (r *EventRepository) FindByExternalID(ctx context.Context, ebEventID string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE eb_event_id = $1 LIMIT 1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, ebEventID); err != nil {
		return nil, err
	}
	return &event, nil
}

// ExistsByExternalID checks whether the external event is already registered.
func (r *EventRepository) ExistsByExternalID(ctx context.Context, ebEventID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM events WHERE eb_event_id = $1 LIMIT 1`, ebEventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check event uniqueness: %w", err)
	}
	return true, nil
}

// ListByOrganizer returns the events owned by the given organizer.
func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE organizer_id = $1 ORDER BY created_at DESC", eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, organizerID); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListExternalIDs returns every registered provider-side event id.
func (r *EventRepository) ListExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT eb_event_id FROM events`); err != nil {
		return nil, fmt.Errorf("list external event ids: %w", err)
	}
	return ids, nil
}

// UpdateSubmissionWindow changes the submission date range.
func (r *EventRepository) UpdateSubmissionWindow(ctx context.Context, id string, init, end time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE events SET init_submission = $2, end_submission = $3, updated_at = $4 WHERE id = $1`,
		id, init, end, time.Now().UTC()); err != nil {
		return fmt.Errorf("update submission window: %w", err)
	}
	return nil
}

// UpdateEvaluationWindow changes the evaluation date range.
func (r *EventRepository) UpdateEvaluationWindow(ctx context.Context, id string, start, end time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE events SET start_evaluation = $2, end_evaluation = $3, updated_at = $4 WHERE id = $1`,
		id, start, end, time.Now().UTC()); err != nil {
		return fmt.Errorf("update evaluation window: %w", err)
	}
	return nil
}
