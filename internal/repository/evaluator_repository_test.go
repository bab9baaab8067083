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

func newEvaluatorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEvaluatorRepositoryCreateAssignment(t *testing.T) {
	db, mock, cleanup := newEvaluatorRepoMock(t)
	defer cleanup()

	repo := NewEvaluatorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evaluator_events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.EvaluatorEvent{
		EventID:        "evt-1",
		EvaluatorID:    "eval-1",
		Status:         models.InvitationPending,
		InvitationCode: "inv-code-1",
	}
	require.NoError(t, repo.CreateAssignment(context.Background(), assignment))
	require.NotEmpty(t, assignment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatorRepositoryCreateAssignmentDuplicate(t *testing.T) {
	db, mock, cleanup := newEvaluatorRepoMock(t)
	defer cleanup()

	repo := NewEvaluatorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evaluator_events")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "evaluator_events_event_evaluator_key"})

	assignment := &models.EvaluatorEvent{
		EventID:        "evt-1",
		EvaluatorID:    "eval-1",
		Status:         models.InvitationPending,
		InvitationCode: "inv-code-2",
	}
	err := repo.CreateAssignment(context.Background(), assignment)
	require.ErrorIs(t, err, ErrDuplicateAssignment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatorRepositoryFindAssignmentByCode(t *testing.T) {
	db, mock, cleanup := newEvaluatorRepoMock(t)
	defer cleanup()

	repo := NewEvaluatorRepository(db)
	rows := sqlmock.NewRows([]string{"id", "event_id", "evaluator_id", "status", "invitation_code", "created_at", "updated_at"}).
		AddRow("asg-1", "evt-1", "eval-1", "pending", "inv-code-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, event_id, evaluator_id, status, invitation_code, created_at, updated_at FROM evaluator_events WHERE invitation_code = $1")).
		WithArgs("inv-code-1").
		WillReturnRows(rows)

	assignment, err := repo.FindAssignmentByCode(context.Background(), "inv-code-1")
	require.NoError(t, err)
	require.Equal(t, "asg-1", assignment.ID)
	require.Equal(t, models.InvitationPending, assignment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatorRepositoryUpdateAssignmentStatus(t *testing.T) {
	db, mock, cleanup := newEvaluatorRepoMock(t)
	defer cleanup()

	repo := NewEvaluatorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE evaluator_events SET status = $2")).
		WithArgs("asg-1", models.InvitationAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAssignmentStatus(context.Background(), "asg-1", models.InvitationAccepted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluatorRepositoryListAssignments(t *testing.T) {
	db, mock, cleanup := newEvaluatorRepoMock(t)
	defer cleanup()

	repo := NewEvaluatorRepository(db)
	rows := sqlmock.NewRows([]string{"id", "event_id", "evaluator_id", "status", "invitation_code", "created_at", "updated_at", "evaluator_name", "evaluator_email"}).
		AddRow("asg-1", "evt-1", "eval-1", "accepted", "inv-1", time.Now(), time.Now(), "Grace Hopper", "grace@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ee.id, ee.event_id")).
		WithArgs("evt-1").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignments(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "grace@example.com", assignments[0].EvaluatorEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}
