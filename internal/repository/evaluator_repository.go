package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// EvaluatorRepository handles persistence for evaluators and assignments.
type EvaluatorRepository struct {
	db *sqlx.DB
}

// NewEvaluatorRepository instantiates an evaluator repository.
func NewEvaluatorRepository(db *sqlx.DB) *EvaluatorRepository {
	return &EvaluatorRepository{db: db}
}

// FindByEmail loads an evaluator by email.
func (r *EvaluatorRepository) FindByEmail(ctx context.Context, email string) (*models.Evaluator, error) {
	const query = `SELECT id, name, email, created_at FROM evaluators WHERE email = $1 LIMIT 1`
	var evaluator models.Evaluator
	if err := r.db.GetContext(ctx, &evaluator, query, email); err != nil {
		return nil, err
	}
	return &evaluator, nil
}

// FindByID loads an evaluator by identifier.
func (r *EvaluatorRepository) FindByID(ctx context.Context, id string) (*models.Evaluator, error) {
	const query = `SELECT id, name, email, created_at FROM evaluators WHERE id = $1`
	var evaluator models.Evaluator
	if err := r.db.GetContext(ctx, &evaluator, query, id); err != nil {
		return nil, err
	}
	return &evaluator, nil
}

// Create inserts a new evaluator.
func (r *EvaluatorRepository) Create(ctx context.Context, evaluator *models.Evaluator) error {
	if evaluator.ID == "" {
		evaluator.ID = uuid.NewString()
	}
	if evaluator.CreatedAt.IsZero() {
		evaluator.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluators (id, name, email, created_at) VALUES (:id, :name, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluator); err != nil {
		return fmt.Errorf("create evaluator: %w", err)
	}
	return nil
}

const assignmentColumns = "id, event_id, evaluator_id, status, invitation_code, created_at, updated_at"

// CreateAssignment links an evaluator to an event in pending status.
func (r *EvaluatorRepository) CreateAssignment(ctx context.Context, assignment *models.EvaluatorEvent) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO evaluator_events (id, event_id, evaluator_id, status, invitation_code, created_at, updated_at)
		VALUES (:id, :event_id, :evaluator_id, :status, :invitation_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create assignment: %w", ErrDuplicateAssignment)
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// FindAssignment loads the assignment linking an evaluator to an event.
func (r *EvaluatorRepository) FindAssignment(ctx context.Context, eventID, evaluatorID string) (*models.EvaluatorEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluator_events WHERE event_id = $1 AND evaluator_id = $2 LIMIT 1", assignmentColumns)
	var assignment models.EvaluatorEvent
	if err := r.db.GetContext(ctx, &assignment, query, eventID, evaluatorID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindAssignmentByCode resolves an assignment solely by invitation code.
func (r *EvaluatorRepository) FindAssignmentByCode(ctx context.Context, code string) (*models.EvaluatorEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluator_events WHERE invitation_code = $1 LIMIT 1", assignmentColumns)
	var assignment models.EvaluatorEvent
	if err := r.db.GetContext(ctx, &assignment, query, code); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateAssignmentStatus sets the invitation decision.
func (r *EvaluatorRepository) UpdateAssignmentStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE evaluator_events SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	return nil
}

// DeleteAssignment removes an evaluator's assignment to an event.
func (r *EvaluatorRepository) DeleteAssignment(ctx context.Context, eventID, evaluatorID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM evaluator_events WHERE event_id = $1 AND evaluator_id = $2`, eventID, evaluatorID); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// ListAssignments returns assignments of an event with evaluator identity.
func (r *EvaluatorRepository) ListAssignments(ctx context.Context, eventID string) ([]models.EvaluatorAssignment, error) {
	const query = `SELECT ee.id, ee.event_id, ee.evaluator_id, ee.status, ee.invitation_code, ee.created_at, ee.updated_at,
		e.name AS evaluator_name, e.email AS evaluator_email
		FROM evaluator_events ee JOIN evaluators e ON e.id = ee.evaluator_id
		WHERE ee.event_id = $1 ORDER BY ee.created_at`
	var assignments []models.EvaluatorAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, eventID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListAcceptedForEvaluator returns accepted assignments of an evaluator.
func (r *EvaluatorRepository) ListAcceptedForEvaluator(ctx context.Context, evaluatorID string) ([]models.EvaluatorEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM evaluator_events WHERE evaluator_id = $1 AND status = $2 ORDER BY created_at", assignmentColumns)
	var assignments []models.EvaluatorEvent
	if err := r.db.SelectContext(ctx, &assignments, query, evaluatorID, models.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("list accepted assignments: %w", err)
	}
	return assignments, nil
}

// CountAccepted returns how many evaluators accepted for an event.
func (r *EvaluatorRepository) CountAccepted(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM evaluator_events WHERE event_id = $1 AND status = $2`, eventID, models.InvitationAccepted); err != nil {
		return 0, fmt.Errorf("count accepted evaluators: %w", err)
	}
	return count, nil
}
