package eventapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/pkg/config"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
)

// Order is the provider-side registration the webhook resolves.
type Order struct {
	Email          string
	Name           string
	ExternalUserID string
	EventID        string
}

// Client talks to the external event-listing provider. All responses are
// parsed defensively: optional fields fall back to defaults, never errors.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a provider client from configuration.
func NewClient(cfg config.EventAPIConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// provider wire shapes; every leaf is optional.
type apiText struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

type apiDate struct {
	UTC string `json:"utc"`
}

type apiEvent struct {
	ID          string   `json:"id"`
	Name        *apiText `json:"name"`
	Description *apiText `json:"description"`
	Start       *apiDate `json:"start"`
	End         *apiDate `json:"end"`
	Logo        *struct {
		URL string `json:"url"`
	} `json:"logo"`
	Venue *struct {
		Name string `json:"name"`
	} `json:"venue"`
}

type apiEventList struct {
	Events []apiEvent `json:"events"`
}

type apiOrder struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}

// GetEvent fetches metadata for a single external event.
func (c *Client) GetEvent(ctx context.Context, token, externalID string) (*models.EventMetadata, error) {
	endpoint := fmt.Sprintf("%s/events/%s/?expand=venue", c.baseURL, url.PathEscape(externalID))
	var raw apiEvent
	if err := c.getJSON(ctx, token, endpoint, &raw); err != nil {
		return nil, err
	}
	meta := parseEvent(raw)
	return &meta, nil
}

// ListUserEvents returns the events owned by the token's user.
func (c *Client) ListUserEvents(ctx context.Context, token string) ([]models.EventMetadata, error) {
	endpoint := c.baseURL + "/users/me/events/?expand=venue"
	var raw apiEventList
	if err := c.getJSON(ctx, token, endpoint, &raw); err != nil {
		return nil, err
	}
	events := make([]models.EventMetadata, 0, len(raw.Events))
	for _, e := range raw.Events {
		events = append(events, parseEvent(e))
	}
	return events, nil
}

// GetOrder resolves a webhook callback URL into the order it describes.
// The URL comes from the provider payload, not from user input.
func (c *Client) GetOrder(ctx context.Context, token, callbackURL string) (*Order, error) {
	var raw apiOrder
	if err := c.getJSON(ctx, token, callbackURL, &raw); err != nil {
		return nil, err
	}
	return &Order{
		Email:          raw.Email,
		Name:           raw.Name,
		ExternalUserID: raw.UserID,
		EventID:        raw.EventID,
	}, nil
}

// CreateWebhook registers an order webhook pointing back at endpointURL and
// returns the provider-assigned webhook id.
func (c *Client) CreateWebhook(ctx context.Context, token, endpointURL string, actions []string) (string, error) {
	form := url.Values{}
	form.Set("endpoint_url", endpointURL)
	form.Set("actions", strings.Join(actions, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhooks/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "event provider unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		return "", appErrors.Clone(appErrors.ErrExternalService, fmt.Sprintf("event provider returned %d", resp.StatusCode))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "malformed provider response")
	}
	return out.ID, nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "event provider unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found at provider")
	}
	if resp.StatusCode >= 300 {
		return appErrors.Clone(appErrors.ErrExternalService, fmt.Sprintf("event provider returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "malformed provider response")
	}
	return nil
}

func parseEvent(raw apiEvent) models.EventMetadata {
	meta := models.EventMetadata{
		ExternalID:  raw.ID,
		Name:        "Unnamed event",
		Description: "",
		Venue:       "To be defined",
	}
	if raw.Name != nil && raw.Name.Text != "" {
		meta.Name = raw.Name.Text
	}
	if raw.Description != nil {
		meta.Description = raw.Description.Text
	}
	if raw.Logo != nil {
		meta.LogoURL = raw.Logo.URL
	}
	if raw.Venue != nil && raw.Venue.Name != "" {
		meta.Venue = raw.Venue.Name
	}
	if raw.Start != nil {
		if ts, err := time.Parse(time.RFC3339, raw.Start.UTC); err == nil {
			meta.Start = ts
		}
	}
	if raw.End != nil {
		if ts, err := time.Parse(time.RFC3339, raw.End.UTC); err == nil {
			meta.End = ts
		}
	}
	return meta
}
