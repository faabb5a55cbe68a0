package storage

import (
	"context"
	"fmt"
	"time"
)

// ProviderCall is an audit record of one outbound provider request.
type ProviderCall struct {
	ProjectID  string
	DocumentID string
	ChunkID    string
	Provider   string
	Operation  string
	Status     string
	ErrorType  string
	Detail     string
	CreatedAt  time.Time
}

// CallAuditRepo records provider call outcomes for diagnostics.
type CallAuditRepo struct {
	db Queryer
}

func NewCallAuditRepo(db Queryer) *CallAuditRepo {
	return &CallAuditRepo{db: db}
}

func (r *CallAuditRepo) Record(ctx context.Context, c ProviderCall) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO provider_calls (project_id, document_id, chunk_id, provider, operation, status, error_type, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ProjectID, c.DocumentID, c.ChunkID, c.Provider, c.Operation, c.Status, c.ErrorType, c.Detail)
	if err != nil {
		return fmt.Errorf("record provider call: %w", err)
	}
	return nil
}

// ListByDocument returns the most recent calls for a document, newest first.
func (r *CallAuditRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]ProviderCall, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT project_id, document_id, chunk_id, provider, operation, status, error_type, detail, created_at
		FROM provider_calls WHERE document_id = $1
		ORDER BY created_at DESC LIMIT $2`, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list provider calls: %w", err)
	}
	defer rows.Close()
	var out []ProviderCall
	for rows.Next() {
		var c ProviderCall
		if err := rows.Scan(&c.ProjectID, &c.DocumentID, &c.ChunkID, &c.Provider, &c.Operation,
			&c.Status, &c.ErrorType, &c.Detail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan provider call: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
