package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/kaizendev/post-registration-api/internal/models"
)

func newReviewRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReviewRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	review := &models.Review{
		SubmissionID:  "sub-1",
		EvaluatorID:   "eval-1",
		Approved:      true,
		Justification: "well argued",
	}
	require.NoError(t, repo.Create(context.Background(), review))
	require.NotEmpty(t, review.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_submission_evaluator_key"})

	review := &models.Review{
		SubmissionID: "sub-1",
		EvaluatorID:  "eval-1",
		Approved:     false,
	}
	err := repo.Create(context.Background(), review)
	require.ErrorIs(t, err, ErrDuplicateReview)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListBySubmission(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	rows := sqlmock.NewRows([]string{"id", "submission_id", "evaluator_id", "approved", "justification", "created_at", "evaluator_name"}).
		AddRow("rev-1", "sub-1", "eval-1", true, "solid", time.Now(), "Grace Hopper").
		AddRow("rev-2", "sub-1", "eval-2", false, "needs work", time.Now(), "Alan Turing")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.submission_id")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	reviews, err := repo.ListBySubmission(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	require.Equal(t, "Grace Hopper", reviews[0].EvaluatorName)
	require.False(t, reviews[1].Approved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryUpsertResult(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()

	repo := NewReviewRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO results")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	result := &models.Result{
		SubmissionID:  "sub-1",
		Approved:      true,
		Justification: "final call",
	}
	require.NoError(t, repo.UpsertResult(context.Background(), result))
	require.NotEmpty(t, result.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
