package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/repository"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type mockReviewRepo struct {
	createErr error
	reviews   []*models.Review
	result    *models.Result
	rows      []models.ReviewRow
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.reviews = append(m.reviews, review)
	return nil
}

func (m *mockReviewRepo) ListBySubmission(ctx context.Context, submissionID string) ([]models.ReviewRow, error) {
	return m.rows, nil
}

func (m *mockReviewRepo) UpsertResult(ctx context.Context, result *models.Result) error {
	m.result = result
	return nil
}

func (m *mockReviewRepo) FindResultBySubmission(ctx context.Context, submissionID string) (*models.Result, error) {
	if m.result == nil {
		return nil, errNoRows()
	}
	return m.result, nil
}

type mockReviewSubmissionRepo struct {
	submission *models.Submission
	states     []models.SubmissionState
}

func (m *mockReviewSubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if m.submission == nil {
		return nil, errNoRows()
	}
	return m.submission, nil
}

func (m *mockReviewSubmissionRepo) UpdateState(ctx context.Context, id string, state models.SubmissionState) error {
	m.states = append(m.states, state)
	return nil
}

type mockReviewEvaluatorRepo struct {
	evaluator  *models.Evaluator
	assignment *models.EvaluatorEvent
}

func (m *mockReviewEvaluatorRepo) FindByEmail(ctx context.Context, email string) (*models.Evaluator, error) {
	if m.evaluator == nil || m.evaluator.Email != email {
		return nil, errNoRows()
	}
	return m.evaluator, nil
}

func (m *mockReviewEvaluatorRepo) FindAssignment(ctx context.Context, eventID, evaluatorID string) (*models.EvaluatorEvent, error) {
	if m.assignment == nil {
		return nil, errNoRows()
	}
	return m.assignment, nil
}

func evaluatorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleEvaluator, Email: "grace@example.com"}
}

func organizerClaims(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleOrganizer, Email: "org@example.com"}
}

func boolPtr(b bool) *bool { return &b }

func newReviewService(repo *mockReviewRepo, subs *mockReviewSubmissionRepo, evals *mockReviewEvaluatorRepo, users *mockUserStore, events *mockEventStore, notifier *mockNotifier) *ReviewService {
	return NewReviewService(repo, subs, evals, events, users, &mockEventViewer{view: openEventView()}, notifier, validator.New(), zap.NewNop())
}

func acceptedReviewFixtures() (*mockReviewSubmissionRepo, *mockReviewEvaluatorRepo, *mockUserStore, *mockEventStore) {
	subs := &mockReviewSubmissionRepo{submission: &models.Submission{
		ID: "sub-1", EventID: "evt-1", AttendeeID: "att-1",
		Kind: models.SubmissionText, State: models.SubmissionPending,
	}}
	evals := &mockReviewEvaluatorRepo{
		evaluator: &models.Evaluator{ID: "eval-1", Name: "Grace", Email: "grace@example.com"},
		assignment: &models.EvaluatorEvent{
			ID: "asg-1", EventID: "evt-1", EvaluatorID: "eval-1",
			Status: models.InvitationAccepted,
		},
	}
	users := newMockUserStore()
	users.byID["org-1"] = &models.User{ID: "org-1", Email: "org@example.com"}
	events := &mockEventStore{events: map[string]*models.Event{
		"evt-1": {ID: "evt-1", OrganizerID: "org-1"},
	}}
	return subs, evals, users, events
}

func TestReviewServiceRecordsReview(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, evals, users, events := acceptedReviewFixtures()
	notifier := &mockNotifier{}
	svc := newReviewService(repo, subs, evals, users, events, notifier)

	review, err := svc.Review(context.Background(), evaluatorClaims(), "sub-1", models.ReviewRequest{
		Approved:      boolPtr(true),
		Justification: "solid work",
	})
	require.NoError(t, err)
	assert.True(t, review.Approved)
	assert.Equal(t, []models.SubmissionState{models.SubmissionEvaluated}, subs.states)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, mailer.TemplateEvaluatorDecision, notifier.messages[0].Template)
	assert.Equal(t, "org@example.com", notifier.messages[0].To)
}

func TestReviewServiceDuplicateReviewConflicts(t *testing.T) {
	repo := &mockReviewRepo{createErr: repository.ErrDuplicateReview}
	subs, evals, users, events := acceptedReviewFixtures()
	svc := newReviewService(repo, subs, evals, users, events, &mockNotifier{})

	_, err := svc.Review(context.Background(), evaluatorClaims(), "sub-1", models.ReviewRequest{
		Approved:      boolPtr(false),
		Justification: "changed my mind",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, subs.states)
}

func TestReviewServicePendingAssignmentForbidden(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, evals, users, events := acceptedReviewFixtures()
	evals.assignment.Status = models.InvitationPending
	svc := newReviewService(repo, subs, evals, users, events, &mockNotifier{})

	_, err := svc.Review(context.Background(), evaluatorClaims(), "sub-1", models.ReviewRequest{
		Approved:      boolPtr(true),
		Justification: "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.reviews)
}

func TestReviewServiceNonEvaluatorForbidden(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, _, users, events := acceptedReviewFixtures()
	svc := newReviewService(repo, subs, &mockReviewEvaluatorRepo{}, users, events, &mockNotifier{})

	_, err := svc.Review(context.Background(), evaluatorClaims(), "sub-1", models.ReviewRequest{
		Approved:      boolPtr(true),
		Justification: "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceSetResultOverridesState(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, _, users, events := acceptedReviewFixtures()
	svc := newReviewService(repo, subs, &mockReviewEvaluatorRepo{}, users, events, &mockNotifier{})

	result, err := svc.SetResult(context.Background(), organizerClaims("org-1"), "sub-1", models.ResultRequest{
		Approved:      boolPtr(true),
		Justification: "final",
	})
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.Equal(t, []models.SubmissionState{models.SubmissionAccepted}, subs.states)

	rejected, err := svc.SetResult(context.Background(), organizerClaims("org-1"), "sub-1", models.ResultRequest{
		Approved: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, rejected.Approved)
	assert.Equal(t, models.SubmissionRejected, subs.states[len(subs.states)-1])
}

func TestReviewServiceResultScopedToOwningOrganizer(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, _, users, events := acceptedReviewFixtures()
	svc := newReviewService(repo, subs, &mockReviewEvaluatorRepo{}, users, events, &mockNotifier{})

	// sub-1 sits under evt-1, organized by org-1; org-2 must not touch it
	_, err := svc.SetResult(context.Background(), organizerClaims("org-2"), "sub-1", models.ResultRequest{
		Approved:      boolPtr(true),
		Justification: "overriding a rival's event",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.result)
	assert.Empty(t, subs.states)

	_, err = svc.ListReviews(context.Background(), organizerClaims("org-2"), "sub-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetResult(context.Background(), organizerClaims("org-2"), "sub-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceGetResultMissing(t *testing.T) {
	repo := &mockReviewRepo{}
	subs, _, users, events := acceptedReviewFixtures()
	svc := newReviewService(repo, subs, &mockReviewEvaluatorRepo{}, users, events, &mockNotifier{})

	_, err := svc.GetResult(context.Background(), organizerClaims("org-1"), "sub-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
