package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/repository"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListBySubmission(ctx context.Context, submissionID string) ([]models.ReviewRow, error)
	UpsertResult(ctx context.Context, result *models.Result) error
	FindResultBySubmission(ctx context.Context, submissionID string) (*models.Result, error)
}

type reviewSubmissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	UpdateState(ctx context.Context, id string, state models.SubmissionState) error
}

type reviewEvaluatorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Evaluator, error)
	FindAssignment(ctx context.Context, eventID, evaluatorID string) (*models.EvaluatorEvent, error)
}

type reviewEventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type reviewUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ReviewService records evaluator reviews and organizer results.
type ReviewService struct {
	repo        reviewRepository
	submissions reviewSubmissionRepository
	evaluators  reviewEvaluatorRepository
	eventRepo   reviewEventRepository
	users       reviewUserRepository
	events      eventViewer
	notifier    mailer.Notifier
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(
	repo reviewRepository,
	submissions reviewSubmissionRepository,
	evaluators reviewEvaluatorRepository,
	eventRepo reviewEventRepository,
	users reviewUserRepository,
	events eventViewer,
	notifier mailer.Notifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{
		repo:        repo,
		submissions: submissions,
		evaluators:  evaluators,
		eventRepo:   eventRepo,
		users:       users,
		events:      events,
		notifier:    notifier,
		validator:   validate,
		logger:      logger,
	}
}

// Review records one evaluator's decision on a submission. The caller must
// hold an accepted assignment for the submission's event, and each evaluator
// gets exactly one review per submission.
func (s *ReviewService) Review(ctx context.Context, claims *models.JWTClaims, submissionID string, req models.ReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	evaluator, err := s.evaluators.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not an evaluator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve evaluator")
	}

	assignment, err := s.evaluators.FindAssignment(ctx, submission.EventID, evaluator.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no assignment for this event")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if assignment.Status != models.InvitationAccepted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invitation was not accepted")
	}

	review := &models.Review{
		SubmissionID:  submission.ID,
		EvaluatorID:   evaluator.ID,
		Approved:      *req.Approved,
		Justification: req.Justification,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission was already reviewed by this evaluator")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
	}

	if err := s.submissions.UpdateState(ctx, submission.ID, models.SubmissionEvaluated); err != nil {
		s.logger.Warn("failed to mark submission evaluated", zap.String("submission_id", submission.ID), zap.Error(err))
	}

	s.notifyOrganizer(ctx, submission.EventID, evaluator, review)
	s.logger.Info("review recorded",
		zap.String("submission_id", submission.ID),
		zap.String("evaluator_id", evaluator.ID),
		zap.Bool("approved", review.Approved))
	return review, nil
}

func (s *ReviewService) notifyOrganizer(ctx context.Context, eventID string, evaluator *models.Evaluator, review *models.Review) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		s.logger.Warn("event lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	organizer, err := s.users.FindByID(ctx, event.OrganizerID)
	if err != nil {
		s.logger.Warn("organizer lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	eventName := "your event"
	if view, err := s.events.Get(ctx, eventID); err == nil && view.Metadata != nil {
		eventName = view.Metadata.Name
	}
	_ = s.notifier.Send(ctx, mailer.Message{
		Template: mailer.TemplateEvaluatorDecision,
		To:       organizer.Email,
		Data: map[string]interface{}{
			"EvaluatorName": evaluator.Name,
			"EventName":     eventName,
			"Approved":      review.Approved,
			"Justification": review.Justification,
		},
	})
}

// ownedSubmission loads a submission and checks that the caller organizes
// its event. Result and review-detail surfaces are scoped per organizer, not
// per role.
func (s *ReviewService) ownedSubmission(ctx context.Context, claims *models.JWTClaims, submissionID string) (*models.Submission, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	event, err := s.eventRepo.FindByID(ctx, submission.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.OrganizerID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another organizer's event")
	}
	return submission, nil
}

// ListReviews returns the reviews of a submission with evaluator names.
func (s *ReviewService) ListReviews(ctx context.Context, claims *models.JWTClaims, submissionID string) ([]models.ReviewRow, error) {
	submission, err := s.ownedSubmission(ctx, claims, submissionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListBySubmission(ctx, submission.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return rows, nil
}

// SetResult records the organizer's final verdict, overriding whatever the
// individual reviews concluded, and moves the submission to its final state.
func (s *ReviewService) SetResult(ctx context.Context, claims *models.JWTClaims, submissionID string, req models.ResultRequest) (*models.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}

	submission, err := s.ownedSubmission(ctx, claims, submissionID)
	if err != nil {
		return nil, err
	}

	result := &models.Result{
		SubmissionID:  submission.ID,
		Approved:      *req.Approved,
		Justification: req.Justification,
	}
	if err := s.repo.UpsertResult(ctx, result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save result")
	}

	state := models.SubmissionRejected
	if result.Approved {
		state = models.SubmissionAccepted
	}
	if err := s.submissions.UpdateState(ctx, submission.ID, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission state")
	}

	s.logger.Info("result recorded",
		zap.String("submission_id", submission.ID),
		zap.Bool("approved", result.Approved))
	return result, nil
}

// GetResult loads the organizer result of a submission, if one exists.
func (s *ReviewService) GetResult(ctx context.Context, claims *models.JWTClaims, submissionID string) (*models.Result, error) {
	submission, err := s.ownedSubmission(ctx, claims, submissionID)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.FindResultBySubmission(ctx, submission.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no result recorded for this submission")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load result")
	}
	return result, nil
}
