package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/eventapi"
	"github.com/kaizendev/post-registration-api/internal/models"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type webhookUserRepository interface {
	FindByExternalUID(ctx context.Context, ebUserID string) (*models.User, error)
}

type webhookEventRepository interface {
	FindByExternalID(ctx context.Context, ebEventID string) (*models.Event, error)
}

type webhookAttendeeRepository interface {
	UpsertByExternalID(ctx context.Context, attendee *models.Attendee) error
	FindCodeForPair(ctx context.Context, attendeeID, eventID string) (*models.AttendeeCode, error)
	CreateCode(ctx context.Context, code *models.AttendeeCode) error
}

type orderSource interface {
	GetOrder(ctx context.Context, token, callbackURL string) (*eventapi.Order, error)
}

// WebhookService turns provider order callbacks into attendee access codes.
// Redeliveries are expected and must not mint duplicates or re-notify.
type WebhookService struct {
	users          webhookUserRepository
	eventRepo      webhookEventRepository
	attendees      webhookAttendeeRepository
	orders         orderSource
	events         eventViewer
	notifier       mailer.Notifier
	baseURL        string
	allowedActions map[string]struct{}
	logger         *zap.Logger
}

// NewWebhookService constructs a WebhookService instance.
func NewWebhookService(
	users webhookUserRepository,
	eventRepo webhookEventRepository,
	attendees webhookAttendeeRepository,
	orders orderSource,
	events eventViewer,
	notifier mailer.Notifier,
	baseURL string,
	actions []string,
	logger *zap.Logger,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(actions))
	for _, action := range actions {
		allowed[action] = struct{}{}
	}
	return &WebhookService{
		users:          users,
		eventRepo:      eventRepo,
		attendees:      attendees,
		orders:         orders,
		events:         events,
		notifier:       notifier,
		baseURL:        baseURL,
		allowedActions: allowed,
		logger:         logger,
	}
}

// HandleOrder processes one provider delivery. Deliveries for unknown users,
// unregistered events, or uninteresting actions are acknowledged without
// effect so the provider stops retrying them.
func (s *WebhookService) HandleOrder(ctx context.Context, payload models.OrderWebhookPayload) (*models.WebhookResult, error) {
	if _, ok := s.allowedActions[payload.Config.Action]; !ok {
		s.logger.Debug("ignoring webhook action", zap.String("action", payload.Config.Action))
		return &models.WebhookResult{Status: false}, nil
	}
	if payload.APIURL == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "webhook payload has no callback url")
	}

	user, err := s.users.FindByExternalUID(ctx, payload.Config.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("webhook for unknown provider user", zap.String("eb_user_id", payload.Config.UserID))
			return &models.WebhookResult{Status: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve webhook user")
	}

	order, err := s.orders.GetOrder(ctx, user.EBAccessToken, payload.APIURL)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByExternalID(ctx, order.EventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("webhook for unregistered event", zap.String("eb_event_id", order.EventID))
			return &models.WebhookResult{Status: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve event")
	}

	attendee := &models.Attendee{
		Email:          order.Email,
		Name:           order.Name,
		ExternalUserID: order.ExternalUserID,
	}
	if err := s.attendees.UpsertByExternalID(ctx, attendee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendee")
	}

	code, err := s.attendees.FindCodeForPair(ctx, attendee.ID, event.ID)
	switch {
	case err == nil:
		if !code.Available {
			// already submitted; a redelivery must not nag them again
			return &models.WebhookResult{Status: true, Email: attendee.Email}, nil
		}
	case errors.Is(err, sql.ErrNoRows):
		code = &models.AttendeeCode{
			Code:       uuid.NewString(),
			AttendeeID: attendee.ID,
			EventID:    event.ID,
			Available:  true,
		}
		if err := s.attendees.CreateCode(ctx, code); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access code")
		}
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up access code")
	}

	s.notifyCode(ctx, attendee, event, code)
	s.logger.Info("order webhook processed",
		zap.String("event_id", event.ID),
		zap.String("attendee_id", attendee.ID))
	return &models.WebhookResult{Status: true, Email: attendee.Email}, nil
}

func (s *WebhookService) notifyCode(ctx context.Context, attendee *models.Attendee, event *models.Event, code *models.AttendeeCode) {
	eventName := "an event you registered for"
	if view, err := s.events.Get(ctx, event.ID); err == nil && view.Metadata != nil {
		eventName = view.Metadata.Name
	}
	_ = s.notifier.Send(ctx, mailer.Message{
		Template: mailer.TemplateAttendeeCode,
		To:       attendee.Email,
		Data: map[string]interface{}{
			"AttendeeName":  attendee.Name,
			"EventName":     eventName,
			"SubmissionURL": fmt.Sprintf("%s/submit/%s", s.baseURL, code.Code),
		},
	})
}
