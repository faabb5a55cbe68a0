package retrieve

import (
	"context"
	"fmt"

	"docflow/internal/models"
	"docflow/internal/storage"
)

// Searcher runs similarity and full-text queries over stored chunks.
type Searcher struct {
	db storage.Queryer
}

func NewSearcher(db storage.Queryer) *Searcher {
	return &Searcher{db: db}
}

// SearchByVector returns the chunks nearest to the query embedding by cosine
// distance. Score is 1 - distance, so higher is closer.
func (s *Searcher) SearchByVector(ctx context.Context, projectID string, embedding []float32, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT c.chunk_id, c.document_id, c.doc_title, d.filename, c.chunk_number,
		       c.snippet, c.content,
		       1 - (c.embedding <=> $2::vector) AS score
		FROM chunks c
		JOIN documents d ON d.document_id = c.document_id
		WHERE c.project_id = $1 AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $2::vector
		LIMIT $3`,
		projectID, storage.VectorLiteral(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

// SearchByText runs a lexical full-text query ranked by ts_rank.
func (s *Searcher) SearchByText(ctx context.Context, projectID, query string, limit int) ([]models.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, `
		SELECT c.chunk_id, c.document_id, c.doc_title, d.filename, c.chunk_number,
		       c.snippet, c.content,
		       ts_rank(c.content_tsv, plainto_tsquery('english', $2)) AS score
		FROM chunks c
		JOIN documents d ON d.document_id = c.document_id
		WHERE c.project_id = $1 AND c.content_tsv @@ plainto_tsquery('english', $2)
		ORDER BY score DESC
		LIMIT $3`,
		projectID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}

type resultRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanResults(rows resultRows) ([]models.SearchResult, error) {
	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Title, &r.Filename,
			&r.ChunkNumber, &r.Snippet, &r.Content, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
