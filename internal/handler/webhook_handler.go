package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// WebhookHandler receives provider-pushed order notifications.
type WebhookHandler struct {
	service *service.WebhookService
}

// NewWebhookHandler creates a new handler.
func NewWebhookHandler(svc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: svc}
}

// Orders godoc
// @Summary Receive order webhook
// @Description Mints and mails an access code for the attendee behind the order
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /webhooks/orders [post]
func (h *WebhookHandler) Orders(c *gin.Context) {
	var payload models.OrderWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid webhook payload"))
		return
	}

	result, err := h.service.HandleOrder(c.Request.Context(), payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
