package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
)

type documentRepository interface {
	ListFileTypes(ctx context.Context) ([]models.FileType, error)
	CreateFileType(ctx context.Context, ft *models.FileType) error
	CreateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error
	FindFileDoc(ctx context.Context, id string) (*models.FileDoc, error)
	UpdateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error
	DeleteFileDoc(ctx context.Context, id string) error
	ListFileDocs(ctx context.Context, eventID string) ([]models.FileDoc, error)
	CreateTextDoc(ctx context.Context, doc *models.TextDoc) error
	FindTextDoc(ctx context.Context, id string) (*models.TextDoc, error)
	UpdateTextDoc(ctx context.Context, doc *models.TextDoc) error
	DeleteTextDoc(ctx context.Context, id string) error
	ListTextDocs(ctx context.Context, eventID string) ([]models.TextDoc, error)
	CountSubmissionsForFileDoc(ctx context.Context, fileDocID string) (int, error)
	CountSubmissionsForTextDoc(ctx context.Context, textDocID string) (int, error)
}

// DocumentService manages the per-event requirement registry.
type DocumentService struct {
	repo      documentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(repo documentRepository, validate *validator.Validate, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DocumentService{repo: repo, validator: validate, logger: logger}
}

// ListFileTypes returns the allowed-extension catalog.
func (s *DocumentService) ListFileTypes(ctx context.Context) ([]models.FileType, error) {
	types, err := s.repo.ListFileTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list file types")
	}
	return types, nil
}

// CreateFileType adds an extension tag to the catalog.
func (s *DocumentService) CreateFileType(ctx context.Context, req models.FileTypeRequest) (*models.FileType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file type payload")
	}

	ft := &models.FileType{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateFileType(ctx, ft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create file type")
	}
	return ft, nil
}

// ListDocs returns both requirement kinds for an event.
func (s *DocumentService) ListDocs(ctx context.Context, eventID string) (*models.EventDocs, error) {
	fileDocs, err := s.repo.ListFileDocs(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list file requirements")
	}
	textDocs, err := s.repo.ListTextDocs(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list text requirements")
	}
	return &models.EventDocs{FileDocs: fileDocs, TextDocs: textDocs}, nil
}

// CreateFileDoc adds a file requirement to an event. Quantity is bounded to
// [1, 99] per requirement.
func (s *DocumentService) CreateFileDoc(ctx context.Context, eventID string, req models.FileDocRequest) (*models.FileDoc, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file requirement payload")
	}

	doc := &models.FileDoc{
		EventID:    eventID,
		Name:       req.Name,
		Quantity:   req.Quantity,
		IsOptional: req.IsOptional,
	}
	if err := s.repo.CreateFileDoc(ctx, doc, req.FileTypeIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create file requirement")
	}
	return s.findFileDoc(ctx, doc.ID)
}

// UpdateFileDoc modifies a file requirement of the given event.
func (s *DocumentService) UpdateFileDoc(ctx context.Context, eventID, id string, req models.FileDocRequest) (*models.FileDoc, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid file requirement payload")
	}

	doc, err := s.findFileDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.EventID != eventID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file requirement not found")
	}
	doc.Name = req.Name
	doc.Quantity = req.Quantity
	doc.IsOptional = req.IsOptional

	if err := s.repo.UpdateFileDoc(ctx, doc, req.FileTypeIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update file requirement")
	}
	return s.findFileDoc(ctx, id)
}

// DeleteFileDoc removes a file requirement. Requirements referenced by
// submissions stay put; deleting them would orphan submitted documents.
func (s *DocumentService) DeleteFileDoc(ctx context.Context, eventID, id string) error {
	doc, err := s.findFileDoc(ctx, id)
	if err != nil {
		return err
	}
	if doc.EventID != eventID {
		return appErrors.Clone(appErrors.ErrNotFound, "file requirement not found")
	}
	count, err := s.repo.CountSubmissionsForFileDoc(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check requirement usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "requirement has submissions and cannot be deleted")
	}
	if err := s.repo.DeleteFileDoc(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete file requirement")
	}
	return nil
}

// CreateTextDoc adds a text requirement to an event. Submission bounds are
// inclusive but max must strictly exceed min; violations attach a field
// error on max, matching the form field it renders under.
func (s *DocumentService) CreateTextDoc(ctx context.Context, eventID string, req models.TextDocRequest) (*models.TextDoc, error) {
	if err := s.validateTextDoc(req); err != nil {
		return nil, err
	}

	doc := &models.TextDoc{
		EventID:     eventID,
		Name:        req.Name,
		Description: req.Description,
		IsOptional:  req.IsOptional,
		Measure:     req.Measure,
		Min:         req.Min,
		Max:         req.Max,
	}
	if err := s.repo.CreateTextDoc(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create text requirement")
	}
	return doc, nil
}

// UpdateTextDoc modifies a text requirement of the given event.
func (s *DocumentService) UpdateTextDoc(ctx context.Context, eventID, id string, req models.TextDocRequest) (*models.TextDoc, error) {
	if err := s.validateTextDoc(req); err != nil {
		return nil, err
	}

	doc, err := s.findTextDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.EventID != eventID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "text requirement not found")
	}
	doc.Name = req.Name
	doc.Description = req.Description
	doc.IsOptional = req.IsOptional
	doc.Measure = req.Measure
	doc.Min = req.Min
	doc.Max = req.Max

	if err := s.repo.UpdateTextDoc(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update text requirement")
	}
	return doc, nil
}

// DeleteTextDoc removes a text requirement unless submissions reference it.
func (s *DocumentService) DeleteTextDoc(ctx context.Context, eventID, id string) error {
	doc, err := s.findTextDoc(ctx, id)
	if err != nil {
		return err
	}
	if doc.EventID != eventID {
		return appErrors.Clone(appErrors.ErrNotFound, "text requirement not found")
	}
	count, err := s.repo.CountSubmissionsForTextDoc(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check requirement usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "requirement has submissions and cannot be deleted")
	}
	if err := s.repo.DeleteTextDoc(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete text requirement")
	}
	return nil
}

func (s *DocumentService) validateTextDoc(req models.TextDocRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid text requirement payload")
	}
	if req.Max <= req.Min {
		return appErrors.Field("max", "Max must be greater than min.")
	}
	return nil
}

func (s *DocumentService) findFileDoc(ctx context.Context, id string) (*models.FileDoc, error) {
	doc, err := s.repo.FindFileDoc(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file requirement")
	}
	return doc, nil
}

func (s *DocumentService) findTextDoc(ctx context.Context, id string) (*models.TextDoc, error) {
	doc, err := s.repo.FindTextDoc(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "text requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load text requirement")
	}
	return doc, nil
}
