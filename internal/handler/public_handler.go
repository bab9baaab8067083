package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// PublicHandler serves the unauthenticated surfaces: the code-gated
// submission page and the emailed invitation links.
type PublicHandler struct {
	attendees    *service.AttendeeService
	submissions  *service.SubmissionService
	evaluators   *service.EvaluatorService
	maxFileBytes int64
}

// NewPublicHandler creates a new handler.
func NewPublicHandler(
	attendees *service.AttendeeService,
	submissions *service.SubmissionService,
	evaluators *service.EvaluatorService,
	maxFileBytes int64,
) *PublicHandler {
	return &PublicHandler{
		attendees:    attendees,
		submissions:  submissions,
		evaluators:   evaluators,
		maxFileBytes: maxFileBytes,
	}
}

// Landing godoc
// @Summary Load submission page
// @Description Everything the code-gated page renders; consumed codes still resolve
// @Tags Public
// @Produce json
// @Param code path string true "Access code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submit/{code} [get]
func (h *PublicHandler) Landing(c *gin.Context) {
	page, err := h.attendees.Landing(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, page, nil)
}

// Submit godoc
// @Summary Submit documents
// @Description Multipart batch covering every requirement; all-or-nothing
// @Tags Public
// @Accept multipart/form-data
// @Produce json
// @Param code path string true "Access code"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /submit/{code} [post]
func (h *PublicHandler) Submit(c *gin.Context) {
	input, err := h.parseBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.submissions.SubmitBatch(c.Request.Context(), *input); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"message": "documents submitted"})
}

// parseBatch reads the multipart form. Parts are named by requirement id
// with a _file or _text suffix; file parts may repeat for multi-file
// requirements.
func (h *PublicHandler) parseBatch(c *gin.Context) (*models.SubmissionInput, error) {
	if h.maxFileBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}

	input := &models.SubmissionInput{
		Code:  c.Param("code"),
		Files: map[string][]models.FileUpload{},
		Texts: map[string]string{},
	}

	for key, headers := range form.File {
		docID, ok := strings.CutSuffix(key, "_file")
		if !ok {
			continue
		}
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file part")
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file part")
			}
			input.Files[docID] = append(input.Files[docID], models.FileUpload{
				Name: header.Filename,
				Data: data,
			})
		}
	}

	for key, values := range form.Value {
		docID, ok := strings.CutSuffix(key, "_text")
		if !ok || len(values) == 0 {
			continue
		}
		input.Texts[docID] = values[0]
	}

	return input, nil
}

// AcceptInvitation godoc
// @Summary Accept evaluator invitation
// @Tags Public
// @Produce json
// @Param code path string true "Invitation code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /invitations/{code}/accept [get]
func (h *PublicHandler) AcceptInvitation(c *gin.Context) {
	h.resolveInvitation(c, true)
}

// DeclineInvitation godoc
// @Summary Decline evaluator invitation
// @Tags Public
// @Produce json
// @Param code path string true "Invitation code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /invitations/{code}/decline [get]
func (h *PublicHandler) DeclineInvitation(c *gin.Context) {
	h.resolveInvitation(c, false)
}

func (h *PublicHandler) resolveInvitation(c *gin.Context, accept bool) {
	assignment, err := h.evaluators.ResolveInvitation(c.Request.Context(), c.Param("code"), accept)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"status": assignment.Status}, nil)
}
