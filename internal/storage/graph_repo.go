package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"docflow/internal/models"
)

// GraphRepo persists similarity graph nodes and links.
type GraphRepo struct {
	pool *pgxpool.Pool
}

func NewGraphRepo(pool *pgxpool.Pool) *GraphRepo {
	return &GraphRepo{pool: pool}
}

// UpsertNodes writes graph nodes keyed by chunk id. Rebuilds overwrite
// existing nodes in place.
func (r *GraphRepo) UpsertNodes(ctx context.Context, nodes []models.GraphNode) error {
	if len(nodes) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert nodes: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range nodes {
		_, err := tx.Exec(ctx, `
			INSERT INTO graph_nodes (chunk_id, document_id, project_id, label, node_group, significance)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (chunk_id) DO UPDATE SET
				label = EXCLUDED.label,
				node_group = EXCLUDED.node_group,
				significance = EXCLUDED.significance,
				updated_at = now()`,
			n.ChunkID, n.DocumentID, n.ProjectID, n.Label, n.Group, n.Significance)
		if err != nil {
			return fmt.Errorf("upsert node %s: %w", n.ChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert nodes: %w", err)
	}
	return nil
}

// UpsertLinks writes graph edges keyed by (source, target).
func (r *GraphRepo) UpsertLinks(ctx context.Context, links []models.GraphLink) error {
	if len(links) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert links: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, l := range links {
		_, err := tx.Exec(ctx, `
			INSERT INTO graph_links (source_chunk_id, target_chunk_id, project_id, similarity, relationship)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (source_chunk_id, target_chunk_id) DO UPDATE SET
				similarity = EXCLUDED.similarity,
				relationship = EXCLUDED.relationship,
				updated_at = now()`,
			l.SourceChunkID, l.TargetChunkID, l.ProjectID, l.Similarity, l.Relationship)
		if err != nil {
			return fmt.Errorf("upsert link %s->%s: %w", l.SourceChunkID, l.TargetChunkID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert links: %w", err)
	}
	return nil
}

// GetGraph loads a project's full graph.
func (r *GraphRepo) GetGraph(ctx context.Context, projectID string) ([]models.GraphNode, []models.GraphLink, error) {
	nodeRows, err := r.pool.Query(ctx, `
		SELECT chunk_id, document_id, project_id, label, node_group, significance
		FROM graph_nodes WHERE project_id = $1 ORDER BY chunk_id`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("query nodes: %w", err)
	}
	defer nodeRows.Close()
	var nodes []models.GraphNode
	for nodeRows.Next() {
		var n models.GraphNode
		if err := nodeRows.Scan(&n.ChunkID, &n.DocumentID, &n.ProjectID, &n.Label, &n.Group, &n.Significance); err != nil {
			return nil, nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := r.pool.Query(ctx, `
		SELECT source_chunk_id, target_chunk_id, project_id, similarity, relationship
		FROM graph_links WHERE project_id = $1 ORDER BY source_chunk_id, target_chunk_id`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("query links: %w", err)
	}
	defer linkRows.Close()
	var links []models.GraphLink
	for linkRows.Next() {
		var l models.GraphLink
		if err := linkRows.Scan(&l.SourceChunkID, &l.TargetChunkID, &l.ProjectID, &l.Similarity, &l.Relationship); err != nil {
			return nil, nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return nodes, links, linkRows.Err()
}
