package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/internal/models"
	appErrors "github.com/kaizendev/post-registration-api/pkg/errors"
)

type mockDocumentRepo struct {
	fileDocs        map[string]*models.FileDoc
	textDocs        map[string]*models.TextDoc
	fileTypes       []models.FileType
	fileDocUsage    int
	textDocUsage    int
	deletedFileDocs []string
	deletedTextDocs []string
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{
		fileDocs: map[string]*models.FileDoc{},
		textDocs: map[string]*models.TextDoc{},
	}
}

func (m *mockDocumentRepo) ListFileTypes(ctx context.Context) ([]models.FileType, error) {
	return m.fileTypes, nil
}

func (m *mockDocumentRepo) CreateFileType(ctx context.Context, ft *models.FileType) error {
	if ft.ID == "" {
		ft.ID = "ft-1"
	}
	m.fileTypes = append(m.fileTypes, *ft)
	return nil
}

func (m *mockDocumentRepo) CreateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error {
	if doc.ID == "" {
		doc.ID = "fd-1"
	}
	m.fileDocs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) FindFileDoc(ctx context.Context, id string) (*models.FileDoc, error) {
	doc, ok := m.fileDocs[id]
	if !ok {
		return nil, errNoRows()
	}
	return doc, nil
}

func (m *mockDocumentRepo) UpdateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error {
	m.fileDocs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) DeleteFileDoc(ctx context.Context, id string) error {
	m.deletedFileDocs = append(m.deletedFileDocs, id)
	delete(m.fileDocs, id)
	return nil
}

func (m *mockDocumentRepo) ListFileDocs(ctx context.Context, eventID string) ([]models.FileDoc, error) {
	var docs []models.FileDoc
	for _, doc := range m.fileDocs {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *mockDocumentRepo) CreateTextDoc(ctx context.Context, doc *models.TextDoc) error {
	if doc.ID == "" {
		doc.ID = "td-1"
	}
	m.textDocs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) FindTextDoc(ctx context.Context, id string) (*models.TextDoc, error) {
	doc, ok := m.textDocs[id]
	if !ok {
		return nil, errNoRows()
	}
	return doc, nil
}

func (m *mockDocumentRepo) UpdateTextDoc(ctx context.Context, doc *models.TextDoc) error {
	m.textDocs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) DeleteTextDoc(ctx context.Context, id string) error {
	m.deletedTextDocs = append(m.deletedTextDocs, id)
	delete(m.textDocs, id)
	return nil
}

func (m *mockDocumentRepo) ListTextDocs(ctx context.Context, eventID string) ([]models.TextDoc, error) {
	var docs []models.TextDoc
	for _, doc := range m.textDocs {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *mockDocumentRepo) CountSubmissionsForFileDoc(ctx context.Context, fileDocID string) (int, error) {
	return m.fileDocUsage, nil
}

func (m *mockDocumentRepo) CountSubmissionsForTextDoc(ctx context.Context, textDocID string) (int, error) {
	return m.textDocUsage, nil
}

func TestDocumentServiceTextDocMaxBelowMinRejected(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	_, err := svc.CreateTextDoc(context.Background(), "evt-1", models.TextDocRequest{
		Name:    "Abstract",
		Measure: models.MeasureWords,
		Min:     50,
		Max:     10,
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "Max must be greater than min.", appErr.Fields["max"])
	assert.Empty(t, repo.textDocs)
}

func TestDocumentServiceTextDocEqualBoundsRejected(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	_, err := svc.CreateTextDoc(context.Background(), "evt-1", models.TextDocRequest{
		Name:    "Motto",
		Measure: models.MeasureWords,
		Min:     3,
		Max:     3,
	})
	require.Error(t, err)
	assert.Equal(t, "Max must be greater than min.", appErrors.FromError(err).Fields["max"])
	assert.Empty(t, repo.textDocs)
}

func TestDocumentServiceFileDocQuantityBounds(t *testing.T) {
	repo := newMockDocumentRepo()
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	cases := []struct {
		quantity int
		ok       bool
	}{
		{0, false},
		{1, true},
		{99, true},
		{100, false},
	}
	for _, tc := range cases {
		_, err := svc.CreateFileDoc(context.Background(), "evt-1", models.FileDocRequest{
			Name:        "Paper",
			Quantity:    tc.quantity,
			FileTypeIDs: []string{"ft-pdf"},
		})
		if tc.ok {
			assert.NoError(t, err, "quantity %d", tc.quantity)
		} else {
			assert.Error(t, err, "quantity %d", tc.quantity)
		}
	}
}

func TestDocumentServiceDeleteBlockedWhileReferenced(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.textDocs["td-1"] = &models.TextDoc{ID: "td-1", EventID: "evt-1", Name: "Abstract"}
	repo.textDocUsage = 2
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteTextDoc(context.Background(), "evt-1", "td-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedTextDocs)
}

func TestDocumentServiceDeleteUnreferencedSucceeds(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.fileDocs["fd-1"] = &models.FileDoc{ID: "fd-1", EventID: "evt-1", Name: "Paper", Quantity: 1}
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	require.NoError(t, svc.DeleteFileDoc(context.Background(), "evt-1", "fd-1"))
	assert.Equal(t, []string{"fd-1"}, repo.deletedFileDocs)
}

func TestDocumentServiceRequirementsScopedToEvent(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.textDocs["td-b"] = &models.TextDoc{ID: "td-b", EventID: "evt-b", Name: "Abstract", Measure: models.MeasureWords, Min: 1, Max: 10}
	repo.fileDocs["fd-b"] = &models.FileDoc{ID: "fd-b", EventID: "evt-b", Name: "Paper", Quantity: 1}
	svc := NewDocumentService(repo, validator.New(), zap.NewNop())

	// td-b belongs to evt-b; reaching it through evt-a must not resolve it
	_, err := svc.UpdateTextDoc(context.Background(), "evt-a", "td-b", models.TextDocRequest{
		Name:    "Hijacked",
		Measure: models.MeasureWords,
		Min:     1,
		Max:     2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Abstract", repo.textDocs["td-b"].Name)

	err = svc.DeleteFileDoc(context.Background(), "evt-a", "fd-b")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedFileDocs)

	_, err = svc.UpdateFileDoc(context.Background(), "evt-a", "fd-b", models.FileDocRequest{
		Name:        "Hijacked",
		Quantity:    1,
		FileTypeIDs: []string{"ft-pdf"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "Paper", repo.fileDocs["fd-b"].Name)
}
