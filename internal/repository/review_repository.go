package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// ReviewRepository handles persistence for reviews and organizer results.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository instantiates a review repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The (submission, evaluator) unique constraint
// guards against a second review from the same evaluator; a violation is
// surfaced as ErrDuplicateReview.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reviews (id, submission_id, evaluator_id, approved, justification, created_at)
		VALUES (:id, :submission_id, :evaluator_id, :approved, :justification, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create review: %w", ErrDuplicateReview)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindBySubmissionEvaluator loads the review a given evaluator wrote for a
// submission, if any.
func (r *ReviewRepository) FindBySubmissionEvaluator(ctx context.Context, submissionID, evaluatorID string) (*models.Review, error) {
	const query = `SELECT id, submission_id, evaluator_id, approved, justification, created_at
		FROM reviews WHERE submission_id = $1 AND evaluator_id = $2 LIMIT 1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, submissionID, evaluatorID); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListBySubmission returns all reviews of a submission with evaluator identity.
func (r *ReviewRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.ReviewRow, error) {
	const query = `SELECT r.id, r.submission_id, r.evaluator_id, r.approved, r.justification, r.created_at,
		e.name AS evaluator_name
		FROM reviews r JOIN evaluators e ON e.id = r.evaluator_id
		WHERE r.submission_id = $1 ORDER BY r.created_at`
	var rows []models.ReviewRow
	if err := r.db.SelectContext(ctx, &rows, query, submissionID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return rows, nil
}

// CountBySubmission reports how many reviews a submission has received.
func (r *ReviewRepository) CountBySubmission(ctx context.Context, submissionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews WHERE submission_id = $1`, submissionID); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

// UpsertResult records or replaces the organizer's final verdict for a
// submission. A submission carries at most one result.
func (r *ReviewRepository) UpsertResult(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if result.CreatedAt.IsZero() {
		result.CreatedAt = now
	}
	result.UpdatedAt = now

	const query = `INSERT INTO results (id, submission_id, approved, justification, created_at, updated_at)
		VALUES (:id, :submission_id, :approved, :justification, :created_at, :updated_at)
		ON CONFLICT (submission_id) DO UPDATE SET
			approved = EXCLUDED.approved,
			justification = EXCLUDED.justification,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

// FindResultBySubmission loads the organizer result of a submission, if any.
func (r *ReviewRepository) FindResultBySubmission(ctx context.Context, submissionID string) (*models.Result, error) {
	const query = `SELECT id, submission_id, approved, justification, created_at, updated_at
		FROM results WHERE submission_id = $1 LIMIT 1`
	var result models.Result
	if err := r.db.GetContext(ctx, &result, query, submissionID); err != nil {
		return nil, err
	}
	return &result, nil
}
