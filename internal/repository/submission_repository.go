package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// SubmissionRepository handles persistence for submissions and results.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository instantiates a submission repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = "id, event_id, attendee_id, kind, file_doc_id, text_doc_id, file_name, file_handle, content, state, created_at"

const insertSubmission = `INSERT INTO submissions (id, event_id, attendee_id, kind, file_doc_id, text_doc_id, file_name, file_handle, content, state, created_at)
	VALUES (:id, :event_id, :attendee_id, :kind, :file_doc_id, :text_doc_id, :file_name, :file_handle, :content, :state, :created_at)`

// CreateBatch persists a full submission batch and consumes the attendee code
// in one transaction. The availability flip is a compare-and-set: if another
// request consumed the code first, nothing is committed and ErrCodeConsumed
// is returned.
func (r *SubmissionRepository) CreateBatch(ctx context.Context, subs []models.Submission, codeID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range subs {
		if subs[i].ID == "" {
			subs[i].ID = uuid.NewString()
		}
		if subs[i].CreatedAt.IsZero() {
			subs[i].CreatedAt = now
		}
		if subs[i].State == "" {
			subs[i].State = models.SubmissionPending
		}
		if _, err = tx.NamedExecContext(ctx, insertSubmission, subs[i]); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
	}

	if codeID != "" {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			`UPDATE attendee_codes SET available = FALSE WHERE id = $1 AND available = TRUE`, codeID)
		if err != nil {
			return fmt.Errorf("consume attendee code: %w", err)
		}
		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("consume attendee code: %w", err)
		}
		if affected == 0 {
			err = ErrCodeConsumed
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit submission tx: %w", err)
	}
	return nil
}

// FindByID loads a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateState sets the stored lifecycle state of a submission.
func (r *SubmissionRepository) UpdateState(ctx context.Context, id string, state models.SubmissionState) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE submissions SET state = $2 WHERE id = $1`, id, state); err != nil {
		return fmt.Errorf("update submission state: %w", err)
	}
	return nil
}

// List returns submissions of an event with attendee and requirement context.
// When evaluatorID is set each row carries that evaluator's own verdict.
func (r *SubmissionRepository) List(ctx context.Context, eventID string, filter models.SubmissionFilter, evaluatorID string) ([]models.SubmissionRow, int, error) {
	base := `FROM submissions s
		JOIN attendees a ON a.id = s.attendee_id
		LEFT JOIN file_docs fd ON fd.id = s.file_doc_id
		LEFT JOIN text_docs td ON td.id = s.text_doc_id
		WHERE s.event_id = $1`
	args := []interface{}{eventID}
	var conditions []string

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("s.kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("s.state = $%d", len(args)+1))
		args = append(args, filter.State)
	}
	if filter.AttendeeEmail != "" {
		conditions = append(conditions, fmt.Sprintf("a.email = $%d", len(args)+1))
		args = append(args, filter.AttendeeEmail)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	verdictArgs := args
	verdictSelect := "NULL AS my_verdict"
	if evaluatorID != "" {
		verdictSelect = fmt.Sprintf("(SELECT rv.approved FROM reviews rv WHERE rv.submission_id = s.id AND rv.evaluator_id = $%d) AS my_verdict", len(args)+1)
		verdictArgs = append(append([]interface{}{}, args...), evaluatorID)
	}

	query := fmt.Sprintf(`SELECT s.id, s.event_id, s.attendee_id, s.kind, s.file_doc_id, s.text_doc_id, s.file_name, s.file_handle, s.content, s.state, s.created_at,
		a.email AS attendee_email, a.name AS attendee_name,
		COALESCE(fd.name, td.name, '') AS doc_name,
		(SELECT COUNT(*) FROM reviews rv2 WHERE rv2.submission_id = s.id) AS review_count,
		(SELECT res.id FROM results res WHERE res.submission_id = s.id) AS result_id,
		%s
		%s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`, verdictSelect, base, size, offset)

	var rows []models.SubmissionRow
	if err := r.db.SelectContext(ctx, &rows, query, verdictArgs...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	return rows, total, nil
}

// ListForExport returns every submission row of an event without pagination.
// Export sheets must carry the full event, so no LIMIT is applied.
func (r *SubmissionRepository) ListForExport(ctx context.Context, eventID string) ([]models.SubmissionRow, error) {
	query := `SELECT s.id, s.event_id, s.attendee_id, s.kind, s.file_doc_id, s.text_doc_id, s.file_name, s.file_handle, s.content, s.state, s.created_at, a.email AS attendee_email, a.name AS attendee_name, COALESCE(fd.name, td.name, '') AS doc_name FROM submissions s JOIN attendees a ON a.id = s.attendee_id LEFT JOIN file_docs fd ON fd.id = s.file_doc_id LEFT JOIN text_docs td ON td.id = s.text_doc_id WHERE s.event_id = $1 ORDER BY s.created_at DESC`

	var rows []models.SubmissionRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("list submissions for export: %w", err)
	}
	return rows, nil
}

// CountForAttendeeEvent reports how many submissions an attendee already has
// for an event. Used to keep webhook redeliveries from re-notifying.
func (r *SubmissionRepository) CountForAttendeeEvent(ctx context.Context, attendeeID, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM submissions WHERE attendee_id = $1 AND event_id = $2`, attendeeID, eventID); err != nil {
		return 0, fmt.Errorf("count attendee submissions: %w", err)
	}
	return count, nil
}
