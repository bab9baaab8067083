package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// EvaluatorHandler manages evaluator invitations and the evaluator's view.
type EvaluatorHandler struct {
	service *service.EvaluatorService
	events  *EventHandler
}

// NewEvaluatorHandler creates a new handler.
func NewEvaluatorHandler(svc *service.EvaluatorService, events *EventHandler) *EvaluatorHandler {
	return &EvaluatorHandler{service: svc, events: events}
}

// Invite godoc
// @Summary Invite evaluator
// @Description Mail an evaluator an invitation with accept and decline links
// @Tags Evaluators
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param payload body models.InviteEvaluatorRequest true "Invitation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{eventID}/evaluators [post]
func (h *EvaluatorHandler) Invite(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.InviteEvaluatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invitation payload"))
		return
	}

	assignment, err := h.service.Invite(c.Request.Context(), view.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, assignment)
}

// List godoc
// @Summary List invited evaluators
// @Tags Evaluators
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/evaluators [get]
func (h *EvaluatorHandler) List(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	assignments, err := h.service.ListAssignments(c.Request.Context(), view.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignments, nil)
}

// Remove godoc
// @Summary Remove evaluator
// @Description Withdraw an evaluator's assignment from an event
// @Tags Evaluators
// @Param eventID path string true "Event ID"
// @Param evaluatorID path string true "Evaluator ID"
// @Success 204 {object} response.Envelope
// @Router /events/{eventID}/evaluators/{evaluatorID} [delete]
func (h *EvaluatorHandler) Remove(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), view.ID, c.Param("evaluatorID")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// MyEvents godoc
// @Summary List accepted events
// @Description Events the authenticated evaluator accepted invitations for
// @Tags Evaluators
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /evaluators/me/events [get]
func (h *EvaluatorHandler) MyEvents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	events, err := h.service.ListEventsForEvaluator(c.Request.Context(), claims.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}
