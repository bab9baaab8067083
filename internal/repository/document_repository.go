package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kaizendev/post-registration-api/internal/models"
)

// DocumentRepository handles persistence for document requirements.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository instantiates a document repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListFileTypes returns the allowed-extension catalog.
func (r *DocumentRepository) ListFileTypes(ctx context.Context) ([]models.FileType, error) {
	var types []models.FileType
	if err := r.db.SelectContext(ctx, &types, `SELECT id, name, description FROM file_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list file types: %w", err)
	}
	return types, nil
}

// CreateFileType adds an allowed-extension tag.
func (r *DocumentRepository) CreateFileType(ctx context.Context, ft *models.FileType) error {
	if ft.ID == "" {
		ft.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO file_types (id, name, description) VALUES ($1, $2, $3)`,
		ft.ID, ft.Name, ft.Description); err != nil {
		return fmt.Errorf("create file type: %w", err)
	}
	return nil
}

// CreateFileDoc inserts a file requirement and its allowed-type links.
func (r *DocumentRepository) CreateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create file doc tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO file_docs (id, event_id, name, quantity, is_optional, created_at, updated_at)
		 VALUES (:id, :event_id, :name, :quantity, :is_optional, :created_at, :updated_at)`, doc); err != nil {
		return fmt.Errorf("create file doc: %w", err)
	}

	for _, typeID := range fileTypeIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO file_doc_types (file_doc_id, file_type_id) VALUES ($1, $2)`, doc.ID, typeID); err != nil {
			return fmt.Errorf("link file type: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create file doc tx: %w", err)
	}
	return nil
}

// FindFileDoc loads a file requirement with its allowed types.
func (r *DocumentRepository) FindFileDoc(ctx context.Context, id string) (*models.FileDoc, error) {
	const query = `SELECT id, event_id, name, quantity, is_optional, created_at, updated_at FROM file_docs WHERE id = $1`
	var doc models.FileDoc
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	types, err := r.fileTypesFor(ctx, []string{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.FileTypes = types[doc.ID]
	return &doc, nil
}

// UpdateFileDoc modifies a file requirement and replaces its type links.
func (r *DocumentRepository) UpdateFileDoc(ctx context.Context, doc *models.FileDoc, fileTypeIDs []string) error {
	doc.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update file doc tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx,
		`UPDATE file_docs SET name = :name, quantity = :quantity, is_optional = :is_optional, updated_at = :updated_at WHERE id = :id`, doc); err != nil {
		return fmt.Errorf("update file doc: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM file_doc_types WHERE file_doc_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear file type links: %w", err)
	}
	for _, typeID := range fileTypeIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO file_doc_types (file_doc_id, file_type_id) VALUES ($1, $2)`, doc.ID, typeID); err != nil {
			return fmt.Errorf("link file type: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update file doc tx: %w", err)
	}
	return nil
}

// DeleteFileDoc removes a file requirement.
func (r *DocumentRepository) DeleteFileDoc(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM file_docs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file doc: %w", err)
	}
	return nil
}

// ListFileDocs returns the file requirements of an event with allowed types.
func (r *DocumentRepository) ListFileDocs(ctx context.Context, eventID string) ([]models.FileDoc, error) {
	const query = `SELECT id, event_id, name, quantity, is_optional, created_at, updated_at FROM file_docs WHERE event_id = $1 ORDER BY created_at`
	var docs []models.FileDoc
	if err := r.db.SelectContext(ctx, &docs, query, eventID); err != nil {
		return nil, fmt.Errorf("list file docs: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	types, err := r.fileTypesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].FileTypes = types[docs[i].ID]
	}
	return docs, nil
}

type fileDocTypeRow struct {
	FileDocID string `db:"file_doc_id"`
	models.FileType
}

func (r *DocumentRepository) fileTypesFor(ctx context.Context, fileDocIDs []string) (map[string][]models.FileType, error) {
	const query = `SELECT l.file_doc_id, t.id, t.name, t.description
		FROM file_doc_types l JOIN file_types t ON t.id = l.file_type_id
		WHERE l.file_doc_id = ANY($1)`
	var rows []fileDocTypeRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(fileDocIDs)); err != nil {
		return nil, fmt.Errorf("load file doc types: %w", err)
	}
	result := make(map[string][]models.FileType, len(fileDocIDs))
	for _, row := range rows {
		result[row.FileDocID] = append(result[row.FileDocID], row.FileType)
	}
	return result, nil
}

// CreateTextDoc inserts a text requirement.
func (r *DocumentRepository) CreateTextDoc(ctx context.Context, doc *models.TextDoc) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	const query = `INSERT INTO text_docs (id, event_id, name, description, is_optional, measure, min, max, created_at, updated_at)
		VALUES (:id, :event_id, :name, :description, :is_optional, :measure, :min, :max, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create text doc: %w", err)
	}
	return nil
}

// FindTextDoc loads a text requirement.
func (r *DocumentRepository) FindTextDoc(ctx context.Context, id string) (*models.TextDoc, error) {
	const query = `SELECT id, event_id, name, description, is_optional, measure, min, max, created_at, updated_at FROM text_docs WHERE id = $1`
	var doc models.TextDoc
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateTextDoc modifies a text requirement.
func (r *DocumentRepository) UpdateTextDoc(ctx context.Context, doc *models.TextDoc) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE text_docs SET name = :name, description = :description, is_optional = :is_optional, measure = :measure, min = :min, max = :max, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("update text doc: %w", err)
	}
	return nil
}

// DeleteTextDoc removes a text requirement.
func (r *DocumentRepository) DeleteTextDoc(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM text_docs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete text doc: %w", err)
	}
	return nil
}

// ListTextDocs returns the text requirements of an event.
func (r *DocumentRepository) ListTextDocs(ctx context.Context, eventID string) ([]models.TextDoc, error) {
	const query = `SELECT id, event_id, name, description, is_optional, measure, min, max, created_at, updated_at FROM text_docs WHERE event_id = $1 ORDER BY created_at`
	var docs []models.TextDoc
	if err := r.db.SelectContext(ctx, &docs, query, eventID); err != nil {
		return nil, fmt.Errorf("list text docs: %w", err)
	}
	return docs, nil
}

// CountSubmissionsForFileDoc counts submissions referencing a file requirement.
func (r *DocumentRepository) CountSubmissionsForFileDoc(ctx context.Context, fileDocID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM submissions WHERE file_doc_id = $1`, fileDocID); err != nil {
		return 0, fmt.Errorf("count file doc submissions: %w", err)
	}
	return count, nil
}

// CountSubmissionsForTextDoc counts submissions referencing a text requirement.
func (r *DocumentRepository) CountSubmissionsForTextDoc(ctx context.Context, textDocID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM submissions WHERE text_doc_id = $1`, textDocID); err != nil {
		return 0, fmt.Errorf("count text doc submissions: %w", err)
	}
	return count, nil
}
