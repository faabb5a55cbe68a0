package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryer is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// repositories can run inside or outside a transaction.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against the given Postgres URL and verifies it with a
// ping.
func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close releases the pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Migrate applies the schema. Statements are idempotent so this is safe to run
// at every startup. The embedding column is sized to embedDim; changing the
// dimension against an existing chunks table requires a manual migration.
func (db *DB) Migrate(ctx context.Context, embedDim int) error {
	for _, s := range schemaStatements(embedDim) {
		if _, err := db.Pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func schemaStatements(embedDim int) []string {
	if embedDim <= 0 {
		embedDim = 1536
	}
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			document_id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(project_id),
			filename TEXT NOT NULL,
			file_handle TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			percentage INT NOT NULL DEFAULT 0,
			is_processing BOOLEAN NOT NULL DEFAULT false,
			is_processed BOOLEAN NOT NULL DEFAULT false,
			processed_at TIMESTAMPTZ,
			fail_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(document_id),
			project_id TEXT NOT NULL,
			chunk_number INT NOT NULL,
			content TEXT NOT NULL,
			page_number INT NOT NULL DEFAULT 0,
			doc_title TEXT NOT NULL DEFAULT '',
			doc_author TEXT NOT NULL DEFAULT '',
			headings TEXT[] NOT NULL DEFAULT '{}',
			keywords TEXT[] NOT NULL DEFAULT '{}',
			entities TEXT[] NOT NULL DEFAULT '{}',
			topics TEXT[] NOT NULL DEFAULT '{}',
			num_tokens INT NOT NULL DEFAULT 0,
			snippet TEXT NOT NULL DEFAULT '',
			embedding vector(%d),
			content_tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, embedDim),
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_project ON chunks(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_tsv ON chunks USING GIN(content_tsv)`,
		`CREATE TABLE IF NOT EXISTS graph_nodes (
			chunk_id TEXT PRIMARY KEY REFERENCES chunks(chunk_id),
			document_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			label TEXT NOT NULL,
			node_group TEXT NOT NULL DEFAULT 'Unknown',
			significance DOUBLE PRECISION NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_nodes_project ON graph_nodes(project_id)`,
		`CREATE TABLE IF NOT EXISTS graph_links (
			source_chunk_id TEXT NOT NULL,
			target_chunk_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			similarity DOUBLE PRECISION NOT NULL,
			relationship TEXT NOT NULL DEFAULT 'similar',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (source_chunk_id, target_chunk_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_links_project ON graph_links(project_id)`,
		`CREATE TABLE IF NOT EXISTS provider_calls (
			id BIGSERIAL PRIMARY KEY,
			project_id TEXT NOT NULL DEFAULT '',
			document_id TEXT NOT NULL DEFAULT '',
			chunk_id TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL,
			operation TEXT NOT NULL,
			status TEXT NOT NULL,
			error_type TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_calls_document ON provider_calls(document_id)`,
	}
}
