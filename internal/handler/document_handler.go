package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/service"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/response"
)

// DocumentHandler manages the document requirements of an event.
type DocumentHandler struct {
	service *service.DocumentService
	events  *EventHandler
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService, events *EventHandler) *DocumentHandler {
	return &DocumentHandler{service: svc, events: events}
}

// ListFileTypes godoc
// @Summary List file types
// @Description Catalog of extensions a file requirement can allow
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /file-types [get]
func (h *DocumentHandler) ListFileTypes(c *gin.Context) {
	types, err := h.service.ListFileTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, types, nil)
}

// CreateFileType godoc
// @Summary Create file type
// @Description Add an extension tag to the catalog
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body models.FileTypeRequest true "File type payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /file-types [post]
func (h *DocumentHandler) CreateFileType(c *gin.Context) {
	var req models.FileTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid file type payload"))
		return
	}

	ft, err := h.service.CreateFileType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, ft)
}

// ListDocs godoc
// @Summary List requirements
// @Description File and text requirements of an event
// @Tags Documents
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/docs [get]
func (h *DocumentHandler) ListDocs(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	docs, err := h.service.ListDocs(c.Request.Context(), view.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, docs, nil)
}

// CreateFileDoc godoc
// @Summary Create file requirement
// @Description Add a file requirement to an event
// @Tags Documents
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param payload body models.FileDocRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/docs/files [post]
func (h *DocumentHandler) CreateFileDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.FileDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}

	doc, err := h.service.CreateFileDoc(c.Request.Context(), view.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// UpdateFileDoc godoc
// @Summary Update file requirement
// @Tags Documents
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param docID path string true "Requirement ID"
// @Param payload body models.FileDocRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/docs/files/{docID} [put]
func (h *DocumentHandler) UpdateFileDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.FileDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}

	doc, err := h.service.UpdateFileDoc(c.Request.Context(), view.ID, c.Param("docID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// DeleteFileDoc godoc
// @Summary Delete file requirement
// @Description Refused while submissions reference the requirement
// @Tags Documents
// @Param eventID path string true "Event ID"
// @Param docID path string true "Requirement ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{eventID}/docs/files/{docID} [delete]
func (h *DocumentHandler) DeleteFileDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	if err := h.service.DeleteFileDoc(c.Request.Context(), view.ID, c.Param("docID")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CreateTextDoc godoc
// @Summary Create text requirement
// @Description Add a text requirement with length bounds to an event
// @Tags Documents
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param payload body models.TextDocRequest true "Requirement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/docs/texts [post]
func (h *DocumentHandler) CreateTextDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.TextDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}

	doc, err := h.service.CreateTextDoc(c.Request.Context(), view.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, doc)
}

// UpdateTextDoc godoc
// @Summary Update text requirement
// @Tags Documents
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param docID path string true "Requirement ID"
// @Param payload body models.TextDocRequest true "Requirement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/{eventID}/docs/texts/{docID} [put]
func (h *DocumentHandler) UpdateTextDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	var req models.TextDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid requirement payload"))
		return
	}

	doc, err := h.service.UpdateTextDoc(c.Request.Context(), view.ID, c.Param("docID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, doc, nil)
}

// DeleteTextDoc godoc
// @Summary Delete text requirement
// @Description Refused while submissions reference the requirement
// @Tags Documents
// @Param eventID path string true "Event ID"
// @Param docID path string true "Requirement ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{eventID}/docs/texts/{docID} [delete]
func (h *DocumentHandler) DeleteTextDoc(c *gin.Context) {
	view, ok := h.events.ownedEvent(c, c.Param("eventID"))
	if !ok {
		return
	}

	if err := h.service.DeleteTextDoc(c.Request.Context(), view.ID, c.Param("docID")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
