package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// ReviewHandler records evaluator verdicts and organizer results.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new handler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Create godoc
// @Summary Review a submission
// @Description One verdict per evaluator per submission
// @Tags Reviews
// @Accept json
// @Produce json
// @Param submissionID path string true "Submission ID"
// @Param payload body models.ReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /submissions/{submissionID}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	review, err := h.service.Review(c.Request.Context(), claims, c.Param("submissionID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, review)
}

// List godoc
// @Summary List reviews of a submission
// @Tags Reviews
// @Produce json
// @Param submissionID path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/{submissionID}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.service.ListReviews(c.Request.Context(), claimsFromContext(c), c.Param("submissionID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reviews, nil)
}

// SetResult godoc
// @Summary Set submission result
// @Description Organizer verdict that overrides evaluator reviews
// @Tags Reviews
// @Accept json
// @Produce json
// @Param submissionID path string true "Submission ID"
// @Param payload body models.ResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /submissions/{submissionID}/result [put]
func (h *ReviewHandler) SetResult(c *gin.Context) {
	var req models.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid result payload"))
		return
	}

	result, err := h.service.SetResult(c.Request.Context(), claimsFromContext(c), c.Param("submissionID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// GetResult godoc
// @Summary Get submission result
// @Tags Reviews
// @Produce json
// @Param submissionID path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{submissionID}/result [get]
func (h *ReviewHandler) GetResult(c *gin.Context) {
	result, err := h.service.GetResult(c.Request.Context(), claimsFromContext(c), c.Param("submissionID"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
