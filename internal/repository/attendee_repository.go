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

// AttendeeRepository handles persistence for attendees and access codes.
type AttendeeRepository struct {
	db *sqlx.DB
}

// NewAttendeeRepository instantiates an attendee repository.
func NewAttendeeRepository(db *sqlx.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// UpsertByExternalID creates or refreshes an attendee keyed on the provider
// user id, so webhook redeliveries never mint duplicate rows.
func (r *AttendeeRepository) UpsertByExternalID(ctx context.Context, attendee *models.Attendee) error {
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	if attendee.CreatedAt.IsZero() {
		attendee.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO attendees (id, email, name, external_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_user_id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, attendee.ID, attendee.Email, attendee.Name, attendee.ExternalUserID, attendee.CreatedAt)
	if err := row.Scan(&attendee.ID, &attendee.CreatedAt); err != nil {
		return fmt.Errorf("upsert attendee: %w", err)
	}
	return nil
}

// FindByID loads an attendee by identifier.
func (r *AttendeeRepository) FindByID(ctx context.Context, id string) (*models.Attendee, error) {
	const query = `SELECT id, email, name, external_user_id, created_at FROM attendees WHERE id = $1`
	var attendee models.Attendee
	if err := r.db.GetContext(ctx, &attendee, query, id); err != nil {
		return nil, err
	}
	return &attendee, nil
}

// CreateCode mints an access code for an (attendee, event) pair.
func (r *AttendeeRepository) CreateCode(ctx context.Context, code *models.AttendeeCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO attendee_codes (id, code, attendee_id, event_id, available, created_at)
		VALUES (:id, :code, :attendee_id, :event_id, :available, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("create attendee code: %w", err)
	}
	return nil
}

// FindCode loads a code row by its opaque token.
func (r *AttendeeRepository) FindCode(ctx context.Context, code string) (*models.AttendeeCode, error) {
	const query = `SELECT id, code, attendee_id, event_id, available, created_at FROM attendee_codes WHERE code = $1 LIMIT 1`
	var row models.AttendeeCode
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		return nil, err
	}
	return &row, nil
}

// FindCodeForPair returns the existing code for an (attendee, event) pair.
func (r *AttendeeRepository) FindCodeForPair(ctx context.Context, attendeeID, eventID string) (*models.AttendeeCode, error) {
	const query = `SELECT id, code, attendee_id, event_id, available, created_at FROM attendee_codes WHERE attendee_id = $1 AND event_id = $2 LIMIT 1`
	var row models.AttendeeCode
	if err := r.db.GetContext(ctx, &row, query, attendeeID, eventID); err != nil {
		return nil, err
	}
	return &row, nil
}

// HasCodeForPair reports whether a code already exists for the pair.
func (r *AttendeeRepository) HasCodeForPair(ctx context.Context, attendeeID, eventID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM attendee_codes WHERE attendee_id = $1 AND event_id = $2 LIMIT 1`, attendeeID, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendee code: %w", err)
	}
	return true, nil
}
