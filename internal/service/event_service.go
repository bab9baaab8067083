package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	ExistsByExternalID(ctx context.Context, ebEventID string) (bool, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]models.Event, error)
	UpdateSubmissionWindow(ctx context.Context, id string, init, end time.Time) error
	UpdateEvaluationWindow(ctx context.Context, id string, start, end time.Time) error
}

type eventUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type eventWebhookRepository interface {
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, webhook *models.UserWebhook) error
}

// eventMetadataSource reads single-event metadata, possibly through a cache.
type eventMetadataSource interface {
	GetEvent(ctx context.Context, token, externalID string) (*models.EventMetadata, error)
}

// eventDirectory talks to the provider for account-wide operations that
// never go through the cache.
type eventDirectory interface {
	ListUserEvents(ctx context.Context, token string) ([]models.EventMetadata, error)
	CreateWebhook(ctx context.Context, token, endpointURL string, actions []string) (string, error)
}

// EventWebhookConfig carries what Register needs to set up order callbacks.
type EventWebhookConfig struct {
	EndpointURL string
	Actions     []string
}

// EventService manages locally-registered events and their provider metadata.
type EventService struct {
	repo        eventRepository
	users       eventUserRepository
	webhooks    eventWebhookRepository
	metadata    eventMetadataSource
	directory   eventDirectory
	webhookConf EventWebhookConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventService constructs an EventService instance.
func NewEventService(
	repo eventRepository,
	users eventUserRepository,
	webhooks eventWebhookRepository,
	metadata eventMetadataSource,
	directory eventDirectory,
	webhookConf EventWebhookConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{
		repo:        repo,
		users:       users,
		webhooks:    webhooks,
		metadata:    metadata,
		directory:   directory,
		webhookConf: webhookConf,
		validator:   validate,
		logger:      logger,
	}
}

// Organizer loads the account behind an authenticated organizer session.
func (s *EventService) Organizer(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return user, nil
}

// ListAvailable returns the organizer's provider events that are not yet
// registered for document collection.
func (s *EventService) ListAvailable(ctx context.Context, organizer *models.User) ([]models.EventMetadata, error) {
	if organizer.EBAccessToken == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "account has no event provider token")
	}

	remote, err := s.directory.ListUserEvents(ctx, organizer.EBAccessToken)
	if err != nil {
		return nil, err
	}

	registered, err := s.repo.ListByOrganizer(ctx, organizer.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registered events")
	}
	taken := make(map[string]struct{}, len(registered))
	for _, e := range registered {
		taken[e.EBEventID] = struct{}{}
	}

	available := make([]models.EventMetadata, 0, len(remote))
	for _, meta := range remote {
		if _, ok := taken[meta.ExternalID]; !ok {
			available = append(available, meta)
		}
	}
	return available, nil
}

// Register enrolls an external event for document collection and makes sure
// the organizer's order webhook exists at the provider.
func (s *EventService) Register(ctx context.Context, organizer *models.User, req models.RegisterEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if !req.InitSubmission.Before(req.EndSubmission) {
		return nil, appErrors.Field("end_submission", "End of submissions must come after the start.")
	}
	if req.EndSubmission.Before(time.Now().UTC()) {
		return nil, appErrors.Field("end_submission", "End of submissions cannot be in the past.")
	}

	exists, err := s.repo.ExistsByExternalID(ctx, req.EBEventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event registration")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "event is already registered")
	}

	// Confirms the event exists and belongs to a reachable provider account.
	if _, err := s.metadata.GetEvent(ctx, organizer.EBAccessToken, req.EBEventID); err != nil {
		return nil, err
	}

	event := &models.Event{
		EBEventID:      req.EBEventID,
		OrganizerID:    organizer.ID,
		InitSubmission: req.InitSubmission.UTC(),
		EndSubmission:  req.EndSubmission.UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register event")
	}

	s.ensureWebhook(ctx, organizer)

	s.logger.Info("event registered",
		zap.String("event_id", event.ID),
		zap.String("eb_event_id", event.EBEventID),
		zap.String("organizer_id", organizer.ID))
	return event, nil
}

// ensureWebhook registers the order webhook once per organizer account.
// Failures are logged, not returned; the event registration already stuck.
func (s *EventService) ensureWebhook(ctx context.Context, organizer *models.User) {
	exists, err := s.webhooks.ExistsForUser(ctx, organizer.ID)
	if err != nil {
		s.logger.Warn("webhook lookup failed", zap.String("user_id", organizer.ID), zap.Error(err))
		return
	}
	if exists {
		return
	}

	webhookID, err := s.directory.CreateWebhook(ctx, organizer.EBAccessToken, s.webhookConf.EndpointURL, s.webhookConf.Actions)
	if err != nil {
		s.logger.Warn("webhook registration failed", zap.String("user_id", organizer.ID), zap.Error(err))
		return
	}
	if err := s.webhooks.Create(ctx, &models.UserWebhook{UserID: organizer.ID, WebhookID: webhookID}); err != nil {
		s.logger.Warn("webhook persistence failed", zap.String("user_id", organizer.ID), zap.Error(err))
	}
}

// Get loads an event with provider metadata. Metadata is best effort: if the
// provider and cache are both unavailable the event still renders.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.EventView, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	view := &models.EventView{Event: *event}
	view.Metadata = s.metadataFor(ctx, event)
	return view, nil
}

// ListMine returns the organizer's registered events with metadata.
func (s *EventService) ListMine(ctx context.Context, organizerID string) ([]models.EventView, error) {
	events, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	views := make([]models.EventView, 0, len(events))
	for i := range events {
		view := models.EventView{Event: events[i]}
		view.Metadata = s.metadataFor(ctx, &events[i])
		views = append(views, view)
	}
	return views, nil
}

func (s *EventService) metadataFor(ctx context.Context, event *models.Event) *models.EventMetadata {
	owner, err := s.users.FindByID(ctx, event.OrganizerID)
	if err != nil {
		s.logger.Warn("event owner lookup failed", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	meta, err := s.metadata.GetEvent(ctx, owner.EBAccessToken, event.EBEventID)
	if err != nil {
		s.logger.Warn("event metadata unavailable", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	return meta
}

// UpdateSubmissionWindow changes the submission date range.
func (s *EventService) UpdateSubmissionWindow(ctx context.Context, eventID string, req models.SubmissionWindowRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	if !req.InitSubmission.Before(req.EndSubmission) {
		return nil, appErrors.Field("end_submission", "End of submissions must come after the start.")
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if err := s.repo.UpdateSubmissionWindow(ctx, event.ID, req.InitSubmission.UTC(), req.EndSubmission.UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission window")
	}

	event.InitSubmission = req.InitSubmission.UTC()
	event.EndSubmission = req.EndSubmission.UTC()
	return event, nil
}

// UpdateEvaluationWindow changes the evaluation date range.
func (s *EventService) UpdateEvaluationWindow(ctx context.Context, eventID string, req models.EvaluationWindowRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window payload")
	}
	if !req.StartEvaluation.Before(req.EndEvaluation) {
		return nil, appErrors.Field("end_evaluation", "End of evaluation must come after the start.")
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	if err := s.repo.UpdateEvaluationWindow(ctx, event.ID, req.StartEvaluation.UTC(), req.EndEvaluation.UTC()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluation window")
	}

	start := req.StartEvaluation.UTC()
	end := req.EndEvaluation.UTC()
	event.StartEvaluation = &start
	event.EndEvaluation = &end
	return event, nil
}
