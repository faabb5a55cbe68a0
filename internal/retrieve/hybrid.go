package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"docflow/internal/models"
	"docflow/internal/util"
)

// Embedder produces a query embedding.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// ChunkSearcher is the query surface HybridRetriever needs.
type ChunkSearcher interface {
	SearchByVector(ctx context.Context, projectID string, embedding []float32, limit int) ([]models.SearchResult, error)
	SearchByText(ctx context.Context, projectID, query string, limit int) ([]models.SearchResult, error)
}

// HybridRetriever combines vector and lexical retrieval over one project.
type HybridRetriever struct {
	embedder Embedder
	searcher ChunkSearcher
	topK     int
	log      *slog.Logger
}

func NewHybridRetriever(embedder Embedder, searcher ChunkSearcher, topK int, log *slog.Logger) *HybridRetriever {
	if topK <= 0 {
		topK = 10
	}
	if log == nil {
		log = slog.Default()
	}
	return &HybridRetriever{embedder: embedder, searcher: searcher, topK: topK, log: log}
}

// limit resolves a per-call topK, falling back to the configured default.
func (h *HybridRetriever) limit(topK int) int {
	if topK <= 0 {
		return h.topK
	}
	return topK
}

// Search runs vector-only retrieval. A topK of 0 uses the configured default.
func (h *HybridRetriever) Search(ctx context.Context, projectID, query string, topK int) ([]models.SearchResult, error) {
	emb, err := h.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return h.searcher.SearchByVector(ctx, projectID, emb, h.limit(topK))
}

// LexicalOnly runs full-text retrieval without touching the embedder.
func (h *HybridRetriever) LexicalOnly(ctx context.Context, projectID, query string, topK int) ([]models.SearchResult, error) {
	return h.searcher.SearchByText(ctx, projectID, query, h.limit(topK))
}

// HybridSearch runs both legs concurrently and merges vector results first,
// then lexical, deduplicated by chunk id and truncated to the limit. Either
// leg failing fails the whole search; callers wanting degraded retrieval use
// Search or LexicalOnly explicitly.
func (h *HybridRetriever) HybridSearch(ctx context.Context, projectID, query string, topK int) ([]models.SearchResult, error) {
	emb, err := h.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := h.limit(topK)
	var vecResults, lexResults []models.SearchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecResults, err = h.searcher.SearchByVector(gctx, projectID, emb, limit)
		return err
	})
	g.Go(func() error {
		var err error
		lexResults, err = h.searcher.SearchByText(gctx, projectID, query, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Warn("hybrid search leg failed", "project_id", projectID, "error", err)
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	return MergeResults(vecResults, lexResults, limit), nil
}

// MergeResults concatenates vector results ahead of lexical ones, drops
// duplicate chunk ids keeping the first occurrence, and truncates to limit.
func MergeResults(vector, lexical []models.SearchResult, limit int) []models.SearchResult {
	merged := make([]models.SearchResult, 0, len(vector)+len(lexical))
	merged = append(merged, vector...)
	merged = append(merged, lexical...)
	merged = util.DeduplicateBy(merged, func(r models.SearchResult) string { return r.ChunkID })
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func (h *HybridRetriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := h.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("embed query: empty embedding")
	}
	return vecs[0], nil
}
