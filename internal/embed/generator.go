// Package embed computes chunk embeddings in bounded concurrent batches with
// per-chunk retry.
package embed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"docflow/internal/models"
	"docflow/internal/providers"
	"docflow/internal/util"
)

// ChunkStore receives computed embeddings.
type ChunkStore interface {
	UpdateEmbeddings(ctx context.Context, chunks []models.Chunk) error
}

// Config bounds the generator's batching, parallelism and retry behavior.
type Config struct {
	BatchSize   int
	Concurrency int
	MaxRetries  int
	Backoff     time.Duration
	Dimension   int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	return c
}

// Generator embeds chunks and writes vectors back batch by batch.
type Generator struct {
	cfg      Config
	provider providers.EmbeddingProvider
	store    ChunkStore
	log      *slog.Logger
}

func NewGenerator(cfg Config, provider providers.EmbeddingProvider, store ChunkStore, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{cfg: cfg.withDefaults(), provider: provider, store: store, log: log}
}

// Result summarizes one EmbedAll run.
type Result struct {
	Total     int
	Succeeded int
	Failed    []string
}

// EmbedAll embeds every chunk, writing each batch back as it completes.
// Chunks whose retries are exhausted keep a nil embedding and are reported in
// Result.Failed; the run itself only errors when the context dies or a
// write-back fails. Embeddings land at the same index as their chunk
// regardless of completion order.
func (g *Generator) EmbedAll(ctx context.Context, chunks []models.Chunk) (Result, error) {
	res := Result{Total: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}

	for start := 0; start < len(chunks); start += g.cfg.BatchSize {
		end := start + g.cfg.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := g.embedBatch(ctx, batch, &res); err != nil {
			return res, err
		}
		if err := g.store.UpdateEmbeddings(ctx, batch); err != nil {
			return res, fmt.Errorf("write embeddings batch %d: %w", start/g.cfg.BatchSize, err)
		}
	}
	return res, nil
}

// embedBatch runs one batch through a bounded worker pool. Each worker embeds
// a single chunk with retry; results are placed by index so ordering is
// preserved.
func (g *Generator) embedBatch(ctx context.Context, batch []models.Chunk, res *Result) error {
	sem := make(chan struct{}, g.cfg.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range batch {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			vec, err := g.embedOne(ctx, batch[idx].Content)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch[idx].Embedding = nil
				res.Failed = append(res.Failed, batch[idx].ChunkID)
				g.log.Warn("embedding failed",
					"document_id", batch[idx].DocumentID,
					"chunk_id", batch[idx].ChunkID,
					"stage", "embed",
					"error", err)
				return
			}
			batch[idx].Embedding = vec
			res.Succeeded++
		}(i)
	}
	wg.Wait()
	return ctx.Err()
}

func (g *Generator) embedOne(ctx context.Context, content string) ([]float32, error) {
	var vec []float32
	err := util.WithRetry(ctx, g.cfg.MaxRetries, util.ExponentialBackoff(g.cfg.Backoff), providers.IsRetryable, func() error {
		vecs, _, err := g.provider.Embed(ctx, providers.EmbedRequest{
			Operation: "ingest",
			Inputs:    []string{content},
			Dimension: g.cfg.Dimension,
		})
		if err != nil {
			return err
		}
		if len(vecs) != 1 {
			return fmt.Errorf("provider returned %d vectors for 1 input", len(vecs))
		}
		if g.cfg.Dimension > 0 && len(vecs[0]) != g.cfg.Dimension {
			return fmt.Errorf("%w: got %d want %d", util.ErrEmbeddingDimension, len(vecs[0]), g.cfg.Dimension)
		}
		vec = vecs[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}
