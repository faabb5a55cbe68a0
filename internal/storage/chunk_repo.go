package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"docflow/internal/models"
)

// ChunkRepo persists chunks and their embeddings.
type ChunkRepo struct {
	pool *pgxpool.Pool
}

func NewChunkRepo(pool *pgxpool.Pool) *ChunkRepo {
	return &ChunkRepo{pool: pool}
}

// InsertChunks writes a document's chunks in one transaction. Re-running the
// same document is a no-op per chunk id.
func (r *ChunkRepo) InsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert chunks: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO chunks (chunk_id, document_id, project_id, chunk_number, content,
				page_number, doc_title, doc_author, headings, keywords, entities, topics,
				num_tokens, snippet)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (chunk_id) DO NOTHING`,
			c.ChunkID, c.DocumentID, c.ProjectID, c.ChunkNumber, c.Content,
			c.Metadata.PageNumber, c.Metadata.DocTitle, c.Metadata.DocAuthor,
			c.Metadata.Headings, c.Metadata.Keywords, c.Metadata.Entities, c.Metadata.Topics,
			c.Metadata.NumTokens, c.Metadata.Snippet)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert chunks: %w", err)
	}
	return nil
}

// UpdateEmbeddings writes computed vectors back in one transaction. Chunks
// with nil embeddings are skipped so a partial batch still lands.
func (r *ChunkRepo) UpdateEmbeddings(ctx context.Context, chunks []models.Chunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update embeddings: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		if c.Embedding == nil {
			continue
		}
		_, err := tx.Exec(ctx, `
			UPDATE chunks SET embedding = $2::vector WHERE chunk_id = $1`,
			c.ChunkID, VectorLiteral(c.Embedding))
		if err != nil {
			return fmt.Errorf("update embedding %s: %w", c.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update embeddings: %w", err)
	}
	return nil
}

// ListByDocument returns a document's chunks in reading order, without
// embeddings.
func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]models.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chunk_id, document_id, project_id, chunk_number, content,
		       page_number, doc_title, doc_author, headings, keywords, entities, topics,
		       num_tokens, snippet
		FROM chunks WHERE document_id = $1 ORDER BY chunk_number`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, false)
}

// ListWithEmbeddings returns every embedded chunk in a project, vectors
// included. Used by the graph builder.
func (r *ChunkRepo) ListWithEmbeddings(ctx context.Context, projectID string) ([]models.Chunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chunk_id, document_id, project_id, chunk_number, content,
		       page_number, doc_title, doc_author, headings, keywords, entities, topics,
		       num_tokens, snippet, embedding::text
		FROM chunks
		WHERE project_id = $1 AND embedding IS NOT NULL
		ORDER BY document_id, chunk_number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list embedded chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows, true)
}

type chunkRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanChunks(rows chunkRows, withEmbedding bool) ([]models.Chunk, error) {
	var out []models.Chunk
	for rows.Next() {
		var c models.Chunk
		dest := []any{
			&c.ChunkID, &c.DocumentID, &c.ProjectID, &c.ChunkNumber, &c.Content,
			&c.Metadata.PageNumber, &c.Metadata.DocTitle, &c.Metadata.DocAuthor,
			&c.Metadata.Headings, &c.Metadata.Keywords, &c.Metadata.Entities, &c.Metadata.Topics,
			&c.Metadata.NumTokens, &c.Metadata.Snippet,
		}
		var embText string
		if withEmbedding {
			dest = append(dest, &embText)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if withEmbedding {
			emb, err := ParseVectorLiteral(embText)
			if err != nil {
				return nil, fmt.Errorf("parse embedding: %w", err)
			}
			c.Embedding = emb
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
