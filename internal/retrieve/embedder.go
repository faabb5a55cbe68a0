package retrieve

import (
	"context"

	"docflow/internal/providers"
)

// ProviderEmbedder adapts a provider to the Embedder interface for query
// embeddings.
type ProviderEmbedder struct {
	Provider  providers.EmbeddingProvider
	Dimension int
}

func (p ProviderEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	vecs, _, err := p.Provider.Embed(ctx, providers.EmbedRequest{
		Operation: "search",
		Inputs:    inputs,
		Dimension: p.Dimension,
	})
	return vecs, err
}
