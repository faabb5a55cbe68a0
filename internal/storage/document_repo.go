package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"docflow/internal/models"
	"docflow/internal/util"
)

// DocumentRepo persists document rows and their processing status.
type DocumentRepo struct {
	db Queryer
}

func NewDocumentRepo(db Queryer) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Upsert(ctx context.Context, d *models.Document) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO documents (document_id, project_id, filename, file_handle, title, author)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (document_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			file_handle = EXCLUDED.file_handle,
			updated_at = now()`,
		d.DocumentID, d.ProjectID, d.Filename, d.FileHandle, d.Title, d.Author)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// UpdateTitleAuthor records extracted metadata once known.
func (r *DocumentRepo) UpdateTitleAuthor(ctx context.Context, documentID, title, author string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE documents SET title = $2, author = $3, updated_at = now()
		WHERE document_id = $1`, documentID, title, author)
	if err != nil {
		return fmt.Errorf("update document metadata: %w", err)
	}
	return nil
}

// UpdateStatus advances the processing milestone. Percentage only moves
// forward; a stale retry cannot roll progress back.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID string, percentage int, isProcessing, isProcessed bool, failReason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE documents SET
			percentage = GREATEST(percentage, $2),
			is_processing = $3,
			is_processed = $4,
			fail_reason = $5,
			processed_at = CASE WHEN $4 THEN now() ELSE processed_at END,
			updated_at = now()
		WHERE document_id = $1`,
		documentID, percentage, isProcessing, isProcessed, failReason)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, documentID string) (*models.Document, error) {
	var d models.Document
	err := r.db.QueryRow(ctx, `
		SELECT document_id, project_id, filename, file_handle, title, author,
		       percentage, is_processing, is_processed, processed_at, fail_reason,
		       created_at, updated_at
		FROM documents WHERE document_id = $1`, documentID).
		Scan(&d.DocumentID, &d.ProjectID, &d.Filename, &d.FileHandle, &d.Title, &d.Author,
			&d.Percentage, &d.IsProcessing, &d.IsProcessed, &d.ProcessedAt, &d.FailReason,
			&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepo) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT document_id, project_id, filename, file_handle, title, author,
		       percentage, is_processing, is_processed, processed_at, fail_reason,
		       created_at, updated_at
		FROM documents WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocumentID, &d.ProjectID, &d.Filename, &d.FileHandle, &d.Title, &d.Author,
			&d.Percentage, &d.IsProcessing, &d.IsProcessed, &d.ProcessedAt, &d.FailReason,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
