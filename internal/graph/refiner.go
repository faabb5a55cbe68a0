package graph

import (
	"context"
	"log/slog"

	"docflow/internal/cache"
	"docflow/internal/models"
	"docflow/internal/providers"
	"docflow/internal/util"
)

// Refiner replaces the generic "similar" relationship on strong links with an
// LLM-derived label. Replies are cached by snippet pair so rebuilds do not
// repeat calls.
type Refiner struct {
	llm   providers.LLMProvider
	cache cache.Cache
	log   *slog.Logger

	// MinSimilarity gates which links are worth a model call.
	MinSimilarity float64
}

func NewRefiner(llm providers.LLMProvider, c cache.Cache, log *slog.Logger) *Refiner {
	if log == nil {
		log = slog.Default()
	}
	return &Refiner{llm: llm, cache: c, log: log, MinSimilarity: 0.85}
}

// Refine labels links in place. Failures leave the default label; refinement
// never blocks a graph build.
func (r *Refiner) Refine(ctx context.Context, links []models.GraphLink, snippets map[string]string) {
	if r.llm == nil {
		return
	}
	for i := range links {
		if links[i].Similarity < r.MinSimilarity {
			continue
		}
		a, okA := snippets[links[i].SourceChunkID]
		b, okB := snippets[links[i].TargetChunkID]
		if !okA || !okB || a == "" || b == "" {
			continue
		}
		links[i].Relationship = r.label(ctx, a, b)
	}
}

func (r *Refiner) label(ctx context.Context, a, b string) string {
	key := util.SHA256Hex([]byte(a + "\x00" + b))
	if r.cache != nil {
		if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			return parseRelationship(cached)
		}
	}
	resp, _, err := r.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "relationship",
		Prompt:    relationshipPrompt(a, b),
	})
	if err != nil {
		r.log.Warn("relationship refinement failed", "stage", "graph", "error", err)
		return "similar"
	}
	label := parseRelationship(resp.Text)
	if r.cache != nil {
		if err := r.cache.Put(ctx, key, label); err != nil {
			r.log.Warn("relationship cache write failed", "error", err)
		}
	}
	return label
}
