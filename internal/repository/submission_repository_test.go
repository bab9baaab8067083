package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kaizendev/post-registration-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(s string) *string { return &s }

func TestSubmissionRepositoryCreateBatchCommits(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendee_codes SET available = FALSE WHERE id = $1 AND available = TRUE")).
		WithArgs("code-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	subs := []models.Submission{
		{
			EventID:    "evt-1",
			AttendeeID: "att-1",
			Kind:       models.SubmissionFile,
			FileDocID:  strPtr("fd-1"),
			FileName:   strPtr("paper.pdf"),
			FileHandle: strPtr("blob-1"),
		},
		{
			EventID:    "evt-1",
			AttendeeID: "att-1",
			Kind:       models.SubmissionText,
			TextDocID:  strPtr("td-1"),
			Content:    strPtr("one two three"),
		},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), subs, "code-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateBatchCodeConsumed(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendee_codes SET available = FALSE WHERE id = $1 AND available = TRUE")).
		WithArgs("code-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	subs := []models.Submission{
		{
			EventID:    "evt-1",
			AttendeeID: "att-1",
			Kind:       models.SubmissionText,
			TextDocID:  strPtr("td-1"),
			Content:    strPtr("short abstract"),
		},
	}
	err := repo.CreateBatch(context.Background(), subs, "code-1")
	require.ErrorIs(t, err, ErrCodeConsumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListForExportUnbounded(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	rows := sqlmock.NewRows([]string{"id", "event_id", "attendee_id", "kind", "state", "created_at", "attendee_email", "attendee_name", "doc_name"})
	for i := 0; i < 150; i++ {
		rows.AddRow(
			fmt.Sprintf("sub-%d", i),
			"evt-1", "att-1", models.SubmissionText, models.SubmissionPending,
			time.Now(), "a@example.com", "Ada", "Abstract")
	}
	// anchored at ORDER BY so a trailing LIMIT would fail the match
	mock.ExpectQuery(`SELECT .+ FROM submissions s JOIN attendees a ON a\.id = s\.attendee_id .+ WHERE s\.event_id = \$1 ORDER BY s\.created_at DESC$`).
		WithArgs("evt-1").
		WillReturnRows(rows)

	got, err := repo.ListForExport(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, got, 150)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCountForAttendeeEvent(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions WHERE attendee_id = $1 AND event_id = $2")).
		WithArgs("att-1", "evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountForAttendeeEvent(context.Background(), "att-1", "evt-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateState(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET state = $2 WHERE id = $1")).
		WithArgs("sub-1", models.SubmissionEvaluated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateState(context.Background(), "sub-1", models.SubmissionEvaluated))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryCreateBatchInsertFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	subs := []models.Submission{{
		EventID:    "evt-1",
		AttendeeID: "att-1",
		Kind:       models.SubmissionText,
		TextDocID:  strPtr("td-1"),
		Content:    strPtr("body"),
		CreatedAt:  time.Now(),
	}}
	err := repo.CreateBatch(context.Background(), subs, "code-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
