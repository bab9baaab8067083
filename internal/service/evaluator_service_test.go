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

type mockEvaluatorRepo struct {
	evaluatorsByEmail   map[string]*models.Evaluator
	evaluatorsByID      map[string]*models.Evaluator
	assignmentsByCode   map[string]*models.EvaluatorEvent
	assignments         map[string]*models.EvaluatorEvent
	createAssignmentErr error
	statusUpdates       []models.InvitationStatus
	deleted             []string
}

func newMockEvaluatorRepo() *mockEvaluatorRepo {
	return &mockEvaluatorRepo{
		evaluatorsByEmail: map[string]*models.Evaluator{},
		evaluatorsByID:    map[string]*models.Evaluator{},
		assignmentsByCode: map[string]*models.EvaluatorEvent{},
		assignments:       map[string]*models.EvaluatorEvent{},
	}
}

func (m *mockEvaluatorRepo) FindByEmail(ctx context.Context, email string) (*models.Evaluator, error) {
	ev, ok := m.evaluatorsByEmail[email]
	if !ok {
		return nil, errNoRows()
	}
	return ev, nil
}

func (m *mockEvaluatorRepo) FindByID(ctx context.Context, id string) (*models.Evaluator, error) {
	ev, ok := m.evaluatorsByID[id]
	if !ok {
		return nil, errNoRows()
	}
	return ev, nil
}

func (m *mockEvaluatorRepo) Create(ctx context.Context, evaluator *models.Evaluator) error {
	if evaluator.ID == "" {
		evaluator.ID = "eval-" + evaluator.Email
	}
	m.evaluatorsByEmail[evaluator.Email] = evaluator
	m.evaluatorsByID[evaluator.ID] = evaluator
	return nil
}

func (m *mockEvaluatorRepo) CreateAssignment(ctx context.Context, assignment *models.EvaluatorEvent) error {
	if m.createAssignmentErr != nil {
		return m.createAssignmentErr
	}
	if assignment.ID == "" {
		assignment.ID = "asg-1"
	}
	m.assignmentsByCode[assignment.InvitationCode] = assignment
	m.assignments[assignment.EventID+"/"+assignment.EvaluatorID] = assignment
	return nil
}

func (m *mockEvaluatorRepo) FindAssignment(ctx context.Context, eventID, evaluatorID string) (*models.EvaluatorEvent, error) {
	assignment, ok := m.assignments[eventID+"/"+evaluatorID]
	if !ok {
		return nil, errNoRows()
	}
	return assignment, nil
}

func (m *mockEvaluatorRepo) FindAssignmentByCode(ctx context.Context, code string) (*models.EvaluatorEvent, error) {
	assignment, ok := m.assignmentsByCode[code]
	if !ok {
		return nil, errNoRows()
	}
	return assignment, nil
}

func (m *mockEvaluatorRepo) UpdateAssignmentStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	m.statusUpdates = append(m.statusUpdates, status)
	for _, assignment := range m.assignmentsByCode {
		if assignment.ID == id {
			assignment.Status = status
		}
	}
	return nil
}

func (m *mockEvaluatorRepo) DeleteAssignment(ctx context.Context, eventID, evaluatorID string) error {
	m.deleted = append(m.deleted, eventID+"/"+evaluatorID)
	return nil
}

func (m *mockEvaluatorRepo) ListAssignments(ctx context.Context, eventID string) ([]models.EvaluatorAssignment, error) {
	return nil, nil
}

func (m *mockEvaluatorRepo) ListAcceptedForEvaluator(ctx context.Context, evaluatorID string) ([]models.EvaluatorEvent, error) {
	var out []models.EvaluatorEvent
	for _, assignment := range m.assignments {
		if assignment.EvaluatorID == evaluatorID && assignment.Status == models.InvitationAccepted {
			out = append(out, *assignment)
		}
	}
	return out, nil
}

type mockUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created []*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, errNoRows()
	}
	return user, nil
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, errNoRows()
	}
	return user, nil
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

type mockEventStore struct {
	events map[string]*models.Event
}

func (m *mockEventStore) FindByID(ctx context.Context, id string) (*models.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, errNoRows()
	}
	return event, nil
}

func newEvaluatorService(repo *mockEvaluatorRepo, users *mockUserStore, eventRepo *mockEventStore, notifier *mockNotifier) *EvaluatorService {
	return NewEvaluatorService(
		repo, users, eventRepo,
		&mockEventViewer{view: openEventView()},
		notifier,
		"https://docs.example.com",
		validator.New(), zap.NewNop(),
	)
}

func TestEvaluatorServiceInviteSendsLinks(t *testing.T) {
	repo := newMockEvaluatorRepo()
	notifier := &mockNotifier{}
	svc := newEvaluatorService(repo, newMockUserStore(), &mockEventStore{}, notifier)

	assignment, err := svc.Invite(context.Background(), "evt-1", models.InviteEvaluatorRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, assignment.Status)
	assert.NotEmpty(t, assignment.InvitationCode)

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Equal(t, mailer.TemplateEvaluatorInvitation, msg.Template)
	assert.Equal(t, "grace@example.com", msg.To)
	assert.Contains(t, msg.Data["AcceptURL"], assignment.InvitationCode)
	assert.Contains(t, msg.Data["DeclineURL"], assignment.InvitationCode)
}

func TestEvaluatorServiceInviteReusesEvaluator(t *testing.T) {
	repo := newMockEvaluatorRepo()
	existing := &models.Evaluator{ID: "eval-1", Name: "Grace", Email: "grace@example.com"}
	repo.evaluatorsByEmail[existing.Email] = existing
	repo.evaluatorsByID[existing.ID] = existing
	svc := newEvaluatorService(repo, newMockUserStore(), &mockEventStore{}, &mockNotifier{})

	assignment, err := svc.Invite(context.Background(), "evt-2", models.InviteEvaluatorRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "eval-1", assignment.EvaluatorID)
}

func TestEvaluatorServiceInviteDuplicateConflicts(t *testing.T) {
	repo := newMockEvaluatorRepo()
	repo.createAssignmentErr = repository.ErrDuplicateAssignment
	svc := newEvaluatorService(repo, newMockUserStore(), &mockEventStore{}, &mockNotifier{})

	_, err := svc.Invite(context.Background(), "evt-1", models.InviteEvaluatorRequest{
		Name:  "Grace Hopper",
		Email: "grace@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEvaluatorServiceResolveInvitationIdempotent(t *testing.T) {
	repo := newMockEvaluatorRepo()
	evaluator := &models.Evaluator{ID: "eval-1", Name: "Grace", Email: "grace@example.com"}
	repo.evaluatorsByID[evaluator.ID] = evaluator
	repo.assignmentsByCode["inv-1"] = &models.EvaluatorEvent{
		ID: "asg-1", EventID: "evt-1", EvaluatorID: "eval-1",
		Status: models.InvitationPending, InvitationCode: "inv-1",
	}
	users := newMockUserStore()
	eventRepo := &mockEventStore{events: map[string]*models.Event{
		"evt-1": {ID: "evt-1", OrganizerID: "org-1"},
	}}
	users.byID["org-1"] = &models.User{ID: "org-1", Email: "org@example.com", Role: models.RoleOrganizer}
	svc := newEvaluatorService(repo, users, eventRepo, &mockNotifier{})

	first, err := svc.ResolveInvitation(context.Background(), "inv-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, first.Status)
	require.Len(t, repo.statusUpdates, 1)

	// revisiting the same link changes nothing
	second, err := svc.ResolveInvitation(context.Background(), "inv-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, second.Status)
	assert.Len(t, repo.statusUpdates, 1)
}

func TestEvaluatorServiceResolveInvitationFlip(t *testing.T) {
	repo := newMockEvaluatorRepo()
	repo.assignmentsByCode["inv-1"] = &models.EvaluatorEvent{
		ID: "asg-1", EventID: "evt-1", EvaluatorID: "eval-1",
		Status: models.InvitationAccepted, InvitationCode: "inv-1",
	}
	svc := newEvaluatorService(repo, newMockUserStore(), &mockEventStore{}, &mockNotifier{})

	assignment, err := svc.ResolveInvitation(context.Background(), "inv-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, assignment.Status)
}

func TestEvaluatorServiceAcceptanceProvisionsAccount(t *testing.T) {
	repo := newMockEvaluatorRepo()
	evaluator := &models.Evaluator{ID: "eval-1", Name: "Grace", Email: "grace@example.com"}
	repo.evaluatorsByID[evaluator.ID] = evaluator
	repo.evaluatorsByEmail[evaluator.Email] = evaluator
	repo.assignmentsByCode["inv-1"] = &models.EvaluatorEvent{
		ID: "asg-1", EventID: "evt-1", EvaluatorID: "eval-1",
		Status: models.InvitationPending, InvitationCode: "inv-1",
	}
	users := newMockUserStore()
	users.byID["org-1"] = &models.User{ID: "org-1", Email: "org@example.com"}
	eventRepo := &mockEventStore{events: map[string]*models.Event{
		"evt-1": {ID: "evt-1", OrganizerID: "org-1"},
	}}
	notifier := &mockNotifier{}
	svc := newEvaluatorService(repo, users, eventRepo, notifier)

	_, err := svc.ResolveInvitation(context.Background(), "inv-1", true)
	require.NoError(t, err)

	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleEvaluator, users.created[0].Role)
	assert.True(t, users.created[0].Active)

	templates := make([]string, 0, len(notifier.messages))
	for _, msg := range notifier.messages {
		templates = append(templates, msg.Template)
	}
	assert.Contains(t, templates, mailer.TemplateEvaluatorAccepted)
	assert.Contains(t, templates, mailer.TemplateEvaluatorCredentials)
}

func TestEvaluatorServiceUnknownInvitationCode(t *testing.T) {
	svc := newEvaluatorService(newMockEvaluatorRepo(), newMockUserStore(), &mockEventStore{}, &mockNotifier{})

	_, err := svc.ResolveInvitation(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
