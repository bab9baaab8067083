package models

import "time"

// UserWebhook remembers the provider-side webhook registered for a user so
// the registration happens at most once.
type UserWebhook struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	WebhookID string    `db:"webhook_id" json:"webhook_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderWebhookPayload is the provider-pushed order notification body.
type OrderWebhookPayload struct {
	Config struct {
		UserID string `json:"user_id"`
		Action string `json:"action"`
	} `json:"config"`
	APIURL string `json:"api_url"`
}

// WebhookResult reports what the receiver did with a delivery.
type WebhookResult struct {
	Status bool   `json:"status"`
	Email  string `json:"email,omitempty"`
}
