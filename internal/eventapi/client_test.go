package eventapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaizendev/post-registration-api/pkg/config"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(config.EventAPIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	return client, srv
}

func TestGetEventParsesFullPayload(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"id": "123",
			"name": {"text": "GopherCon"},
			"description": {"text": "A conference"},
			"logo": {"url": "http://img/logo.png"},
			"venue": {"name": "Convention Center"},
			"start": {"utc": "2026-10-01T09:00:00Z"},
			"end": {"utc": "2026-10-03T18:00:00Z"}
		}`))
	})
	defer srv.Close()

	meta, err := client.GetEvent(context.Background(), "tok", "123")
	require.NoError(t, err)
	assert.Equal(t, "GopherCon", meta.Name)
	assert.Equal(t, "Convention Center", meta.Venue)
	assert.Equal(t, "http://img/logo.png", meta.LogoURL)
	assert.Equal(t, 2026, meta.Start.Year())
}

func TestGetEventToleratesMissingOptionalFields(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "123", "name": {"text": "GopherCon"}}`))
	})
	defer srv.Close()

	meta, err := client.GetEvent(context.Background(), "tok", "123")
	require.NoError(t, err)
	assert.Equal(t, "GopherCon", meta.Name)
	assert.Equal(t, "To be defined", meta.Venue)
	assert.Empty(t, meta.Description)
}

func TestGetEventNotFound(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	_, err := client.GetEvent(context.Background(), "tok", "missing")
	assert.Error(t, err)
}

func TestListUserEvents(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": [{"id": "1", "name": {"text": "A"}}, {"id": "2"}]}`))
	})
	defer srv.Close()

	events, err := client.ListUserEvents(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Name)
	assert.Equal(t, "Unnamed event", events[1].Name)
}

func TestGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email": "a@example.com", "name": "Ada", "event_id": "55", "user_id": "u9"}`))
	}))
	defer srv.Close()

	client := NewClient(config.EventAPIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	order, err := client.GetOrder(context.Background(), "tok", srv.URL+"/orders/1/")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", order.Email)
	assert.Equal(t, "55", order.EventID)
	assert.Equal(t, "u9", order.ExternalUserID)
}
