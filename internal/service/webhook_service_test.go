package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/eventapi"
	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type mockWebhookUserRepo struct {
	byExternalUID map[string]*models.User
}

func (m *mockWebhookUserRepo) FindByExternalUID(ctx context.Context, ebUserID string) (*models.User, error) {
	user, ok := m.byExternalUID[ebUserID]
	if !ok {
		return nil, errNoRows()
	}
	return user, nil
}

type mockWebhookEventRepo struct {
	byExternalID map[string]*models.Event
}

func (m *mockWebhookEventRepo) FindByExternalID(ctx context.Context, ebEventID string) (*models.Event, error) {
	event, ok := m.byExternalID[ebEventID]
	if !ok {
		return nil, errNoRows()
	}
	return event, nil
}

type mockWebhookAttendeeRepo struct {
	codesByPair map[string]*models.AttendeeCode
	createdCode *models.AttendeeCode
}

func (m *mockWebhookAttendeeRepo) UpsertByExternalID(ctx context.Context, attendee *models.Attendee) error {
	if attendee.ID == "" {
		attendee.ID = "att-" + attendee.ExternalUserID
	}
	return nil
}

func (m *mockWebhookAttendeeRepo) FindCodeForPair(ctx context.Context, attendeeID, eventID string) (*models.AttendeeCode, error) {
	code, ok := m.codesByPair[attendeeID+"/"+eventID]
	if !ok {
		return nil, errNoRows()
	}
	return code, nil
}

func (m *mockWebhookAttendeeRepo) CreateCode(ctx context.Context, code *models.AttendeeCode) error {
	if code.ID == "" {
		code.ID = "code-1"
	}
	m.createdCode = code
	return nil
}

type mockOrderSource struct {
	order *eventapi.Order
	err   error
}

func (m *mockOrderSource) GetOrder(ctx context.Context, token, callbackURL string) (*eventapi.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func orderPayload(userID string) models.OrderWebhookPayload {
	payload := models.OrderWebhookPayload{APIURL: "https://provider.example.com/orders/1/"}
	payload.Config.UserID = userID
	payload.Config.Action = "order.placed"
	return payload
}

func newWebhookFixtures() (*mockWebhookUserRepo, *mockWebhookEventRepo, *mockWebhookAttendeeRepo, *mockOrderSource) {
	users := &mockWebhookUserRepo{byExternalUID: map[string]*models.User{
		"eb-org": {ID: "org-1", Email: "org@example.com", EBUserID: "eb-org", EBAccessToken: "token"},
	}}
	events := &mockWebhookEventRepo{byExternalID: map[string]*models.Event{
		"eb-evt": {ID: "evt-1", EBEventID: "eb-evt", OrganizerID: "org-1"},
	}}
	attendees := &mockWebhookAttendeeRepo{codesByPair: map[string]*models.AttendeeCode{}}
	orders := &mockOrderSource{order: &eventapi.Order{
		Email:          "ada@example.com",
		Name:           "Ada",
		ExternalUserID: "eb-ada",
		EventID:        "eb-evt",
	}}
	return users, events, attendees, orders
}

func newWebhookService(users *mockWebhookUserRepo, events *mockWebhookEventRepo, attendees *mockWebhookAttendeeRepo, orders *mockOrderSource, notifier *mockNotifier) *WebhookService {
	return NewWebhookService(
		users, events, attendees, orders,
		&mockEventViewer{view: openEventView()},
		notifier,
		"https://docs.example.com",
		[]string{"order.placed"},
		zap.NewNop(),
	)
}

func TestWebhookServiceMintsCodeAndNotifies(t *testing.T) {
	users, events, attendees, orders := newWebhookFixtures()
	notifier := &mockNotifier{}
	svc := newWebhookService(users, events, attendees, orders, notifier)

	result, err := svc.HandleOrder(context.Background(), orderPayload("eb-org"))
	require.NoError(t, err)
	assert.True(t, result.Status)
	assert.Equal(t, "ada@example.com", result.Email)

	require.NotNil(t, attendees.createdCode)
	assert.True(t, attendees.createdCode.Available)

	require.Len(t, notifier.messages, 1)
	msg := notifier.messages[0]
	assert.Equal(t, mailer.TemplateAttendeeCode, msg.Template)
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.Data["SubmissionURL"], attendees.createdCode.Code)
}

func TestWebhookServiceIgnoresOtherActions(t *testing.T) {
	users, events, attendees, orders := newWebhookFixtures()
	svc := newWebhookService(users, events, attendees, orders, &mockNotifier{})

	payload := orderPayload("eb-org")
	payload.Config.Action = "event.updated"
	result, err := svc.HandleOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Nil(t, attendees.createdCode)
}

func TestWebhookServiceIgnoresUnknownUser(t *testing.T) {
	users, events, attendees, orders := newWebhookFixtures()
	svc := newWebhookService(users, events, attendees, orders, &mockNotifier{})

	result, err := svc.HandleOrder(context.Background(), orderPayload("eb-stranger"))
	require.NoError(t, err)
	assert.False(t, result.Status)
}

func TestWebhookServiceRedeliveryAfterSubmission(t *testing.T) {
	users, events, attendees, orders := newWebhookFixtures()
	attendees.codesByPair["att-eb-ada/evt-1"] = &models.AttendeeCode{
		ID: "code-1", Code: "tok-1", AttendeeID: "att-eb-ada", EventID: "evt-1", Available: false,
	}
	notifier := &mockNotifier{}
	svc := newWebhookService(users, events, attendees, orders, notifier)

	result, err := svc.HandleOrder(context.Background(), orderPayload("eb-org"))
	require.NoError(t, err)
	assert.True(t, result.Status)
	// no fresh code and no second email once they already submitted
	assert.Nil(t, attendees.createdCode)
	assert.Empty(t, notifier.messages)
}

func TestWebhookServiceRedeliveryWithLiveCodeResends(t *testing.T) {
	users, events, attendees, orders := newWebhookFixtures()
	attendees.codesByPair["att-eb-ada/evt-1"] = &models.AttendeeCode{
		ID: "code-1", Code: "tok-1", AttendeeID: "att-eb-ada", EventID: "evt-1", Available: true,
	}
	notifier := &mockNotifier{}
	svc := newWebhookService(users, events, attendees, orders, notifier)

	result, err := svc.HandleOrder(context.Background(), orderPayload("eb-org"))
	require.NoError(t, err)
	assert.True(t, result.Status)
	assert.Nil(t, attendees.createdCode)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0].Data["SubmissionURL"], "tok-1")
}
