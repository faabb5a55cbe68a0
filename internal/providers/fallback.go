package providers

import (
	"context"
	"fmt"
)

// FallbackLLM tries each provider in order until one answers. Order comes
// from the manager's preferred list, so mock providers are tried last.
type FallbackLLM struct {
	chain []NamedLLMProvider
}

func NewFallbackLLM(chain []NamedLLMProvider) *FallbackLLM {
	return &FallbackLLM{chain: chain}
}

func (f *FallbackLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var lastErr error
	for _, p := range f.chain {
		if ctx.Err() != nil {
			return GenerateResponse{}, ProviderInfo{}, ctx.Err()
		}
		resp, info, err := p.Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr = fmt.Errorf("%s: %w", p.Ref.Name, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no llm providers configured")
	}
	return GenerateResponse{}, ProviderInfo{}, lastErr
}

// FallbackEmbedder is the embedding counterpart of FallbackLLM.
type FallbackEmbedder struct {
	chain []NamedEmbedProvider
}

func NewFallbackEmbedder(chain []NamedEmbedProvider) *FallbackEmbedder {
	return &FallbackEmbedder{chain: chain}
}

func (f *FallbackEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	var lastErr error
	for _, p := range f.chain {
		if ctx.Err() != nil {
			return nil, ProviderInfo{}, ctx.Err()
		}
		vecs, info, err := p.Provider.Embed(ctx, req)
		if err == nil {
			return vecs, info, nil
		}
		lastErr = fmt.Errorf("%s: %w", p.Ref.Name, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no embedding providers configured")
	}
	return nil, ProviderInfo{}, lastErr
}

// FallbackLLM returns the single configured provider directly, or a chain
// over all of them in preferred order.
func (m *Manager) FallbackLLM() LLMProvider {
	if m.LLMCount() == 1 {
		return m.FirstLLMProvider()
	}
	chain := make([]NamedLLMProvider, 0, m.LLMCount())
	for _, i := range m.PreferredLLMOrder() {
		p, ref := m.LLMProviderByIndex(i)
		chain = append(chain, NamedLLMProvider{Ref: ref, Provider: p})
	}
	return NewFallbackLLM(chain)
}

func (m *Manager) FallbackEmbedder() EmbeddingProvider {
	if m.EmbedCount() == 1 {
		return m.FirstEmbedProvider()
	}
	chain := make([]NamedEmbedProvider, 0, m.EmbedCount())
	for _, i := range m.PreferredEmbedOrder() {
		p, ref := m.EmbedProviderByIndex(i)
		chain = append(chain, NamedEmbedProvider{Ref: ref, Provider: p})
	}
	return NewFallbackEmbedder(chain)
}
