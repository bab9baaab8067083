package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
)

type attendeeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendee, error)
	FindCode(ctx context.Context, code string) (*models.AttendeeCode, error)
}

// eventViewer resolves an event with provider metadata attached.
type eventViewer interface {
	Get(ctx context.Context, eventID string) (*models.EventView, error)
}

type landingDocumentLister interface {
	ListDocs(ctx context.Context, eventID string) (*models.EventDocs, error)
}

// AttendeeService backs the public code-gated landing flow.
type AttendeeService struct {
	repo   attendeeRepository
	events eventViewer
	docs   landingDocumentLister
	logger *zap.Logger
}

// NewAttendeeService constructs an AttendeeService instance.
func NewAttendeeService(repo attendeeRepository, events eventViewer, docs landingDocumentLister, logger *zap.Logger) *AttendeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendeeService{repo: repo, events: events, docs: docs, logger: logger}
}

// Landing resolves an access code into everything the submission page needs.
// A consumed code still resolves; the page renders a terminal confirmation
// instead of the form.
func (s *AttendeeService) Landing(ctx context.Context, code string) (*models.LandingPage, error) {
	row, err := s.repo.FindCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown access code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve access code")
	}

	attendee, err := s.repo.FindByID(ctx, row.AttendeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendee")
	}

	view, err := s.events.Get(ctx, row.EventID)
	if err != nil {
		return nil, err
	}

	docs, err := s.docs.ListDocs(ctx, row.EventID)
	if err != nil {
		return nil, err
	}

	return &models.LandingPage{
		Event:            *view,
		Attendee:         *attendee,
		Docs:             *docs,
		AlreadySubmitted: !row.Available,
	}, nil
}
