package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	"github.com/kaizendev/post-registration-api/internal/repository"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
	"github.com/kaizendev/post-registration-api/pkg/export"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
)

type submissionRepository interface {
	CreateBatch(ctx context.Context, subs []models.Submission, codeID string) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	List(ctx context.Context, eventID string, filter models.SubmissionFilter, evaluatorID string) ([]models.SubmissionRow, int, error)
	ListForExport(ctx context.Context, eventID string) ([]models.SubmissionRow, error)
}

type submissionAttendeeRepository interface {
	FindCode(ctx context.Context, code string) (*models.AttendeeCode, error)
	FindByID(ctx context.Context, id string) (*models.Attendee, error)
}

type submissionDocLister interface {
	ListFileDocs(ctx context.Context, eventID string) ([]models.FileDoc, error)
	ListTextDocs(ctx context.Context, eventID string) ([]models.TextDoc, error)
}

// blobStore persists uploaded file payloads behind opaque handles.
type blobStore interface {
	Store(originalName string, data []byte) (string, error)
	Retrieve(handle string) ([]byte, error)
	Delete(handle string) error
}

// evaluatorAccessChecker resolves whether an evaluator email holds an
// accepted assignment for an event.
type evaluatorAccessChecker interface {
	AcceptedEvaluatorID(ctx context.Context, eventID, email string) (string, error)
}

// SubmissionService runs the all-or-nothing batch submission flow and the
// organizer/evaluator list views.
type SubmissionService struct {
	repo       submissionRepository
	attendees  submissionAttendeeRepository
	docs       submissionDocLister
	events     eventViewer
	evalAccess evaluatorAccessChecker
	store      blobStore
	notifier   mailer.Notifier
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	repo submissionRepository,
	attendees submissionAttendeeRepository,
	docs submissionDocLister,
	events eventViewer,
	evalAccess evaluatorAccessChecker,
	store blobStore,
	notifier mailer.Notifier,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:       repo,
		attendees:  attendees,
		docs:       docs,
		events:     events,
		evalAccess: evalAccess,
		store:      store,
		notifier:   notifier,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// SubmitBatch validates and persists a complete submission batch. Every
// requirement is checked before anything is written; the database commit and
// the code consumption share one transaction, so a failure anywhere leaves
// the code redeemable.
func (s *SubmissionService) SubmitBatch(ctx context.Context, input models.SubmissionInput) error {
	code, err := s.attendees.FindCode(ctx, input.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "unknown access code")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve access code")
	}
	if !code.Available {
		return appErrors.Clone(appErrors.ErrConflict, "this access code was already used")
	}

	view, err := s.events.Get(ctx, code.EventID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if now.Before(view.InitSubmission) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "the submission window has not opened yet")
	}
	if now.After(view.EndSubmission) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "the submission window has closed")
	}

	fileDocs, err := s.docs.ListFileDocs(ctx, code.EventID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	textDocs, err := s.docs.ListTextDocs(ctx, code.EventID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}

	fields := map[string]string{}
	validateFileBatch(fileDocs, input.Files, fields)
	validateTextBatch(textDocs, input.Texts, fields)
	checkUnknownRequirements(fileDocs, textDocs, input, fields)
	if len(fields) > 0 {
		return &appErrors.Error{
			Code:    appErrors.ErrValidation.Code,
			Status:  appErrors.ErrValidation.Status,
			Message: "submission does not satisfy the requirements",
			Fields:  fields,
		}
	}

	subs, stored, err := s.persistPayloads(code, fileDocs, textDocs, input)
	if err != nil {
		s.cleanupBlobs(stored)
		return err
	}

	if err := s.repo.CreateBatch(ctx, subs, code.ID); err != nil {
		s.cleanupBlobs(stored)
		if errors.Is(err, repository.ErrCodeConsumed) {
			return appErrors.Clone(appErrors.ErrConflict, "this access code was already used")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save submissions")
	}

	s.notifySuccess(ctx, code.AttendeeID, view)
	s.logger.Info("submission batch accepted",
		zap.String("event_id", code.EventID),
		zap.String("attendee_id", code.AttendeeID),
		zap.Int("documents", len(subs)))
	return nil
}

// persistPayloads writes file blobs to storage and assembles submission rows.
// Returned handles let the caller roll blobs back when the transaction fails.
func (s *SubmissionService) persistPayloads(
	code *models.AttendeeCode,
	fileDocs []models.FileDoc,
	textDocs []models.TextDoc,
	input models.SubmissionInput,
) ([]models.Submission, []string, error) {
	var subs []models.Submission
	var stored []string

	for i := range fileDocs {
		doc := fileDocs[i]
		for _, upload := range input.Files[doc.ID] {
			handle, err := s.store.Store(upload.Name, upload.Data)
			if err != nil {
				return nil, stored, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store uploaded file")
			}
			stored = append(stored, handle)
			docID := doc.ID
			name := upload.Name
			handleCopy := handle
			subs = append(subs, models.Submission{
				EventID:    code.EventID,
				AttendeeID: code.AttendeeID,
				Kind:       models.SubmissionFile,
				FileDocID:  &docID,
				FileName:   &name,
				FileHandle: &handleCopy,
			})
		}
	}

	for i := range textDocs {
		doc := textDocs[i]
		content, ok := input.Texts[doc.ID]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		docID := doc.ID
		body := content
		subs = append(subs, models.Submission{
			EventID:    code.EventID,
			AttendeeID: code.AttendeeID,
			Kind:       models.SubmissionText,
			TextDocID:  &docID,
			Content:    &body,
		})
	}

	return subs, stored, nil
}

func (s *SubmissionService) cleanupBlobs(handles []string) {
	for _, handle := range handles {
		if err := s.store.Delete(handle); err != nil {
			s.logger.Warn("orphaned upload left behind", zap.String("handle", handle), zap.Error(err))
		}
	}
}

func (s *SubmissionService) notifySuccess(ctx context.Context, attendeeID string, view *models.EventView) {
	attendee, err := s.attendees.FindByID(ctx, attendeeID)
	if err != nil {
		s.logger.Warn("attendee lookup for notification failed", zap.String("attendee_id", attendeeID), zap.Error(err))
		return
	}
	eventName := "your event"
	if view.Metadata != nil {
		eventName = view.Metadata.Name
	}
	_ = s.notifier.Send(ctx, mailer.Message{
		Template: mailer.TemplateSubmissionSuccess,
		To:       attendee.Email,
		Data: map[string]interface{}{
			"AttendeeName": attendee.Name,
			"EventName":    eventName,
		},
	})
}

func validateFileBatch(docs []models.FileDoc, files map[string][]models.FileUpload, fields map[string]string) {
	for _, doc := range docs {
		uploads := files[doc.ID]
		if len(uploads) == 0 {
			if !doc.IsOptional {
				fields[doc.ID] = "This document is required."
			}
			continue
		}
		if len(uploads) != doc.Quantity {
			fields[doc.ID] = fmt.Sprintf("Exactly %d file(s) must be provided.", doc.Quantity)
			continue
		}
		for _, upload := range uploads {
			if len(upload.Data) == 0 {
				fields[doc.ID] = "Empty files are not accepted."
				break
			}
			if !extensionAllowed(upload.Name, doc.FileTypes) {
				fields[doc.ID] = "File type is not allowed for this document."
				break
			}
		}
	}
}

func validateTextBatch(docs []models.TextDoc, texts map[string]string, fields map[string]string) {
	for _, doc := range docs {
		content, ok := texts[doc.ID]
		trimmed := strings.TrimSpace(content)
		if !ok || trimmed == "" {
			if !doc.IsOptional {
				fields[doc.ID] = "This document is required."
			}
			continue
		}
		length := measureLength(trimmed, doc.Measure)
		if length < doc.Min || length > doc.Max {
			fields[doc.ID] = fmt.Sprintf("Length must be between %d and %d %s.", doc.Min, doc.Max, strings.ToLower(string(doc.Measure)))
		}
	}
}

func checkUnknownRequirements(fileDocs []models.FileDoc, textDocs []models.TextDoc, input models.SubmissionInput, fields map[string]string) {
	known := make(map[string]struct{}, len(fileDocs)+len(textDocs))
	for _, doc := range fileDocs {
		known[doc.ID] = struct{}{}
	}
	for _, doc := range textDocs {
		known[doc.ID] = struct{}{}
	}
	for id := range input.Files {
		if _, ok := known[id]; !ok {
			fields[id] = "Unknown requirement."
		}
	}
	for id := range input.Texts {
		if _, ok := known[id]; !ok {
			fields[id] = "Unknown requirement."
		}
	}
}

// measureLength counts whole whitespace-separated words or unicode runes.
// Bounds are inclusive on both ends.
func measureLength(content string, measure models.TextMeasure) int {
	if measure == models.MeasureCharacters {
		return utf8.RuneCountInString(content)
	}
	return len(strings.Fields(content))
}

func extensionAllowed(name string, types []models.FileType) bool {
	if len(types) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, t := range types {
		if strings.EqualFold(t.Name, ext) {
			return true
		}
	}
	return false
}

// ListForEvent returns submissions with a viewer-dependent display state.
// Evaluators see their own verdict per row; organizers see the stored state.
func (s *SubmissionService) ListForEvent(ctx context.Context, eventID string, filter models.SubmissionFilter, evaluatorID string) ([]models.SubmissionRow, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, eventID, filter, evaluatorID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	for i := range rows {
		rows[i].DisplayState = displayState(&rows[i], evaluatorID != "")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func displayState(row *models.SubmissionRow, evaluatorView bool) string {
	if evaluatorView {
		if row.MyVerdict == nil {
			return string(models.SubmissionPending)
		}
		if *row.MyVerdict {
			return string(models.SubmissionAccepted)
		}
		return string(models.SubmissionRejected)
	}
	return string(row.State)
}

// authorizeViewer checks that the caller may read submissions of an event:
// the owning organizer, or an evaluator with an accepted assignment.
func (s *SubmissionService) authorizeViewer(ctx context.Context, claims *models.JWTClaims, eventID string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}

	if claims.Role == models.RoleEvaluator {
		_, err := s.evalAccess.AcceptedEvaluatorID(ctx, eventID, claims.Email)
		return err
	}

	view, err := s.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if view.OrganizerID != claims.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "event belongs to another organizer")
	}
	return nil
}

// GetFile loads the stored blob of a file submission for an authorized
// viewer of its event.
func (s *SubmissionService) GetFile(ctx context.Context, claims *models.JWTClaims, submissionID string) (string, []byte, error) {
	sub, err := s.repo.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if err := s.authorizeViewer(ctx, claims, sub.EventID); err != nil {
		return "", nil, err
	}
	if sub.Kind != models.SubmissionFile || sub.FileHandle == nil {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "submission has no file attached")
	}

	data, err := s.store.Retrieve(*sub.FileHandle)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read stored file")
	}
	name := "document"
	if sub.FileName != nil {
		name = *sub.FileName
	}
	return name, data, nil
}

// ExportCSV renders every submission of an event as CSV.
func (s *SubmissionService) ExportCSV(ctx context.Context, eventID string) ([]byte, error) {
	dataset, err := s.exportDataset(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return out, nil
}

// ExportPDF renders every submission of an event as a tabular PDF.
func (s *SubmissionService) ExportPDF(ctx context.Context, eventID string) ([]byte, error) {
	dataset, err := s.exportDataset(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(*dataset, "Submissions")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return out, nil
}

func (s *SubmissionService) exportDataset(ctx context.Context, eventID string) (*export.Dataset, error) {
	rows, err := s.repo.ListForExport(ctx, eventID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions for export")
	}

	dataset := &export.Dataset{
		Headers: []string{"Attendee", "Email", "Requirement", "Kind", "State", "Submitted At"},
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Attendee":     row.AttendeeName,
			"Email":        row.AttendeeEmail,
			"Requirement":  row.DocName,
			"Kind":         string(row.Kind),
			"State":        string(row.State),
			"Submitted At": row.CreatedAt.Format(time.RFC3339),
		})
	}
	return dataset, nil
}
