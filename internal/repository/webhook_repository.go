package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// WebhookRepository tracks which users already have a provider webhook
// registered, so registration happens once per account.
type WebhookRepository struct {
	db *sqlx.DB
}

// NewWebhookRepository instantiates a webhook repository.
func NewWebhookRepository(db *sqlx.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// ExistsForUser reports whether a webhook is already registered for a user.
func (r *WebhookRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM user_webhooks WHERE user_id = $1 LIMIT 1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user webhook: %w", err)
	}
	return true, nil
}

// Create records a registered webhook.
func (r *WebhookRepository) Create(ctx context.Context, webhook *models.UserWebhook) error {
	if webhook.ID == "" {
		webhook.ID = uuid.NewString()
	}
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_webhooks (id, user_id, webhook_id, created_at)
		VALUES (:id, :user_id, :webhook_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, webhook); err != nil {
		return fmt.Errorf("create user webhook: %w", err)
	}
	return nil
}
