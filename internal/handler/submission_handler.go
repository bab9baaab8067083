package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// SubmissionHandler serves the organizer and evaluator submission views.
type SubmissionHandler struct {
	service    *service.SubmissionService
	evaluators *service.EvaluatorService
	events     *EventHandler
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc *service.SubmissionService, evaluators *service.EvaluatorService, events *EventHandler) *SubmissionHandler {
	return &SubmissionHandler{service: svc, evaluators: evaluators, events: events}
}

// eventAccess authorizes the caller for an event and returns the evaluator id
// when the caller views as an evaluator, empty for the owning organizer.
func (h *SubmissionHandler) eventAccess(c *gin.Context, eventID string) (string, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}

	if claims.Role == models.RoleEvaluator {
		evaluatorID, err := h.evaluators.AcceptedEvaluatorID(c.Request.Context(), eventID, claims.Email)
		if err != nil {
			response.Error(c, err)
			return "", false
		}
		return evaluatorID, true
	}

	if _, ok := h.events.ownedEvent(c, eventID); !ok {
		return "", false
	}
	return "", true
}

func parseFilter(c *gin.Context) models.SubmissionFilter {
	filter := models.SubmissionFilter{
		Kind:          models.SubmissionKind(c.Query("kind")),
		State:         models.SubmissionState(c.Query("state")),
		AttendeeEmail: c.Query("attendee_email"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return filter
}

// List godoc
// @Summary List submissions
// @Description Submissions of an event; evaluators see their own verdict per row
// @Tags Submissions
// @Produce json
// @Param eventID path string true "Event ID"
// @Param kind query string false "FILE or TEXT"
// @Param state query string false "Submission state"
// @Param attendee_email query string false "Filter by attendee email"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	eventID := c.Param("eventID")
	evaluatorID, ok := h.eventAccess(c, eventID)
	if !ok {
		return
	}

	rows, pagination, err := h.service.ListForEvent(c.Request.Context(), eventID, parseFilter(c), evaluatorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows, pagination)
}

// GetFile godoc
// @Summary Download submitted file
// @Tags Submissions
// @Produce octet-stream
// @Param submissionID path string true "Submission ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{submissionID}/file [get]
func (h *SubmissionHandler) GetFile(c *gin.Context) {
	name, data, err := h.service.GetFile(c.Request.Context(), claimsFromContext(c), c.Param("submissionID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// ExportCSV godoc
// @Summary Export submissions as CSV
// @Tags Submissions
// @Produce text/csv
// @Param eventID path string true "Event ID"
// @Success 200 {file} binary
// @Router /events/{eventID}/submissions/export.csv [get]
func (h *SubmissionHandler) ExportCSV(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	out, err := h.service.ExportCSV(c.Request.Context(), view.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="submissions.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}

// ExportPDF godoc
// @Summary Export submissions as PDF
// @Tags Submissions
// @Produce application/pdf
// @Param eventID path string true "Event ID"
// @Success 200 {file} binary
// @Router /events/{eventID}/submissions/export.pdf [get]
func (h *SubmissionHandler) ExportPDF(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	out, err := h.service.ExportPDF(c.Request.Context(), view.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="submissions.pdf"`)
	c.Data(http.StatusOK, "application/pdf", out)
}
