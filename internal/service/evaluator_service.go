package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/repository"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type evaluatorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Evaluator, error)
	FindByID(ctx context.Context, id string) (*models.Evaluator, error)
	Create(ctx context.Context, evaluator *models.Evaluator) error
	CreateAssignment(ctx context.Context, assignment *models.EvaluatorEvent) error
	FindAssignment(ctx context.Context, eventID, evaluatorID string) (*models.EvaluatorEvent, error)
	FindAssignmentByCode(ctx context.Context, code string) (*models.EvaluatorEvent, error)
	UpdateAssignmentStatus(ctx context.Context, id string, status models.InvitationStatus) error
	DeleteAssignment(ctx context.Context, eventID, evaluatorID string) error
	ListAssignments(ctx context.Context, eventID string) ([]models.EvaluatorAssignment, error)
	ListAcceptedForEvaluator(ctx context.Context, evaluatorID string) ([]models.EvaluatorEvent, error)
}

type evaluatorUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type evaluatorEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// EvaluatorService manages invitations and the evaluator side of events.
type EvaluatorService struct {
	repo      evaluatorRepository
	users     evaluatorUserRepository
	eventRepo evaluatorEventRepository
	events    eventViewer
	notifier  mailer.Notifier
	baseURL   string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluatorService constructs an EvaluatorService instance.
func NewEvaluatorService(
	repo evaluatorRepository,
	users evaluatorUserRepository,
	eventRepo evaluatorEventRepository,
	events eventViewer,
	notifier mailer.Notifier,
	baseURL string,
	validate *validator.Validate,
	logger *zap.Logger,
) *EvaluatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EvaluatorService{
		repo:      repo,
		users:     users,
		eventRepo: eventRepo,
		events:    events,
		notifier:  notifier,
		baseURL:   baseURL,
		validator: validate,
		logger:    logger,
	}
}

// Invite creates (or reuses) an evaluator identity and mails them an
// invitation carrying accept and decline links. The invitation code is a
// fresh uuid; links resolve the assignment by code alone.
func (s *EvaluatorService) Invite(ctx context.Context, eventID string, req models.InviteEvaluatorRequest) (*models.EvaluatorEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}

	evaluator, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up evaluator")
		}
		evaluator = &models.Evaluator{Name: req.Name, Email: req.Email}
		if err := s.repo.Create(ctx, evaluator); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluator")
		}
	}

	assignment := &models.EvaluatorEvent{
		EventID:        eventID,
		EvaluatorID:    evaluator.ID,
		Status:         models.InvitationPending,
		InvitationCode: uuid.NewString(),
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicateAssignment) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "evaluator is already invited to this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invitation")
	}

	_ = s.notifier.Send(ctx, mailer.Message{
		Template: mailer.TemplateEvaluatorInvitation,
		To:       evaluator.Email,
		Data: map[string]interface{}{
			"EvaluatorName": evaluator.Name,
			"EventName":     s.eventName(ctx, eventID),
			"AcceptURL":     fmt.Sprintf("%s/invitations/%s/accept", s.baseURL, assignment.InvitationCode),
			"DeclineURL":    fmt.Sprintf("%s/invitations/%s/decline", s.baseURL, assignment.InvitationCode),
		},
	})

	s.logger.Info("evaluator invited",
		zap.String("event_id", eventID),
		zap.String("evaluator_id", evaluator.ID))
	return assignment, nil
}

// ResolveInvitation applies an accept or decline decision reached through an
// emailed link. Revisiting a link with the same decision is a no-op; flipping
// an earlier decision is honored and logged, since the links stay live.
func (s *EvaluatorService) ResolveInvitation(ctx context.Context, code string, accept bool) (*models.EvaluatorEvent, error) {
	assignment, err := s.repo.FindAssignmentByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown invitation code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve invitation")
	}

	target := models.InvitationRejected
	if accept {
		target = models.InvitationAccepted
	}
	if assignment.Status == target {
		return assignment, nil
	}
	if assignment.Status != models.InvitationPending {
		s.logger.Warn("invitation decision flipped",
			zap.String("assignment_id", assignment.ID),
			zap.String("from", string(assignment.Status)),
			zap.String("to", string(target)))
	}

	if err := s.repo.UpdateAssignmentStatus(ctx, assignment.ID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update invitation")
	}
	assignment.Status = target

	if accept {
		s.onAccepted(ctx, assignment)
	}
	return assignment, nil
}

// onAccepted provisions a login for the evaluator if needed and tells the
// organizer. Both are best effort.
func (s *EvaluatorService) onAccepted(ctx context.Context, assignment *models.EvaluatorEvent) {
	evaluator, err := s.repo.FindByID(ctx, assignment.EvaluatorID)
	if err != nil {
		s.logger.Warn("evaluator lookup failed after acceptance", zap.Error(err))
		return
	}

	password := s.ensureAccount(ctx, evaluator)

	eventName := s.eventName(ctx, assignment.EventID)
	if organizer := s.organizerFor(ctx, assignment.EventID); organizer != nil {
		_ = s.notifier.Send(ctx, mailer.Message{
			Template: mailer.TemplateEvaluatorAccepted,
			To:       organizer.Email,
			Data: map[string]interface{}{
				"EvaluatorName":  evaluator.Name,
				"EvaluatorEmail": evaluator.Email,
				"EventName":      eventName,
			},
		})
	}

	if password != "" {
		_ = s.notifier.Send(ctx, mailer.Message{
			Template: mailer.TemplateEvaluatorCredentials,
			To:       evaluator.Email,
			Data: map[string]interface{}{
				"EvaluatorName": evaluator.Name,
				"EventName":     eventName,
				"Email":         evaluator.Email,
				"Password":      password,
				"LoginURL":      s.baseURL + "/login",
			},
		})
	}
}

// ensureAccount creates an evaluator login when none exists yet, returning
// the generated password so it can be mailed once. Existing accounts return
// an empty string.
func (s *EvaluatorService) ensureAccount(ctx context.Context, evaluator *models.Evaluator) string {
	if _, err := s.users.FindByEmail(ctx, evaluator.Email); err == nil {
		return ""
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("account lookup failed", zap.String("email", evaluator.Email), zap.Error(err))
		return ""
	}

	password, err := randomPassword()
	if err != nil {
		s.logger.Warn("password generation failed", zap.Error(err))
		return ""
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Warn("password hashing failed", zap.Error(err))
		return ""
	}

	user := &models.User{
		Email:        evaluator.Email,
		PasswordHash: string(hash),
		FullName:     evaluator.Name,
		Role:         models.RoleEvaluator,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn("evaluator account creation failed", zap.String("email", evaluator.Email), zap.Error(err))
		return ""
	}
	return password
}

// ListAssignments returns the invited evaluators of an event.
func (s *EvaluatorService) ListAssignments(ctx context.Context, eventID string) ([]models.EvaluatorAssignment, error) {
	assignments, err := s.repo.ListAssignments(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invitations")
	}
	return assignments, nil
}

// Remove withdraws an evaluator's assignment from an event.
func (s *EvaluatorService) Remove(ctx context.Context, eventID, evaluatorID string) error {
	if err := s.repo.DeleteAssignment(ctx, eventID, evaluatorID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove evaluator")
	}
	return nil
}

// ListEventsForEvaluator returns the events an evaluator accepted, resolved
// from the authenticated account's email.
func (s *EvaluatorService) ListEventsForEvaluator(ctx context.Context, email string) ([]models.EventView, error) {
	evaluator, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.EventView{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up evaluator")
	}

	assignments, err := s.repo.ListAcceptedForEvaluator(ctx, evaluator.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accepted events")
	}

	views := make([]models.EventView, 0, len(assignments))
	for _, assignment := range assignments {
		view, err := s.events.Get(ctx, assignment.EventID)
		if err != nil {
			s.logger.Warn("event load failed for evaluator listing",
				zap.String("event_id", assignment.EventID), zap.Error(err))
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// EvaluatorIDForEmail maps an authenticated account's email to its evaluator
// identity. Returns forbidden when the account never received an invitation.
func (s *EvaluatorService) EvaluatorIDForEmail(ctx context.Context, email string) (string, error) {
	evaluator, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "account is not an evaluator")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up evaluator")
	}
	return evaluator.ID, nil
}

// AcceptedEvaluatorID resolves the evaluator identity of an account on one
// event. Forbidden unless the invitation was accepted.
func (s *EvaluatorService) AcceptedEvaluatorID(ctx context.Context, eventID, email string) (string, error) {
	evaluatorID, err := s.EvaluatorIDForEmail(ctx, email)
	if err != nil {
		return "", err
	}

	assignment, err := s.repo.FindAssignment(ctx, eventID, evaluatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "not assigned to this event")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up assignment")
	}
	if assignment.Status != models.InvitationAccepted {
		return "", appErrors.Clone(appErrors.ErrForbidden, "invitation was not accepted")
	}
	return evaluatorID, nil
}

func (s *EvaluatorService) eventName(ctx context.Context, eventID string) string {
	view, err := s.events.Get(ctx, eventID)
	if err != nil || view.Metadata == nil {
		return "an event"
	}
	return view.Metadata.Name
}

func (s *EvaluatorService) organizerFor(ctx context.Context, eventID string) *models.User {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		s.logger.Warn("event lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	organizer, err := s.users.FindByID(ctx, event.OrganizerID)
	if err != nil {
		s.logger.Warn("organizer lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return nil
	}
	return organizer
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
