package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// EventHandler wires HTTP endpoints to the event service.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// ownedEvent loads the event and checks the caller owns it.
func (h *EventHandler) ownedEvent(c *gin.Context, eventID string) (*models.EventView, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}

	view, err := h.service.Get(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if view.OrganizerID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another organizer"))
		return nil, false
	}
	return view, true
}

// ListAvailable godoc
// @Summary List registrable events
// @Description Provider events of the caller not yet registered for document collection
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /events/available [get]
func (h *EventHandler) ListAvailable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	organizer, err := h.service.Organizer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.service.ListAvailable(c.Request.Context(), organizer)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}

// Register godoc
// @Summary Register an event
// @Description Enroll an external event for document collection
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body models.RegisterEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.RegisterEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	organizer, err := h.service.Organizer(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	event, err := h.service.Register(c.Request.Context(), organizer, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, event)
}

// ListMine godoc
// @Summary List my events
// @Description Registered events of the authenticated organizer
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	events, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get event
// @Description Load one registered event with provider metadata
// @Tags Events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventID} [get]
func (h *EventHandler) Get(c *gin.Context) {
	view, ok := h.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// UpdateSubmissionWindow godoc
// @Summary Update submission window
// @Description Change the submission date range of an event
// @Tags Events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param payload body models.SubmissionWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/submission-window [put]
func (h *EventHandler) UpdateSubmissionWindow(c *gin.Context) {
	view, ok := h.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.SubmissionWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window payload"))
		return
	}

	event, err := h.service.UpdateSubmissionWindow(c.Request.Context(), view.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, event, nil)
}

// UpdateEvaluationWindow godoc
// @Summary Update evaluation window
// @Description Change the evaluation date range of an event
// @Tags Events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param payload body models.EvaluationWindowRequest true "Window payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/evaluation-window [put]
func (h *EventHandler) UpdateEvaluationWindow(c *gin.Context) {
	view, ok := h.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.EvaluationWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window payload"))
		return
	}

	event, err := h.service.UpdateEvaluationWindow(c.Request.Context(), view.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, event, nil)
}
