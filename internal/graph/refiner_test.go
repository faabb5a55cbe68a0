package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"docflow/internal/cache"
	"docflow/internal/models"
	"docflow/internal/providers"
)

type stubLLM struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (s *stubLLM) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return providers.GenerateResponse{}, providers.ProviderInfo{}, s.err
	}
	return providers.GenerateResponse{Text: s.text}, providers.ProviderInfo{Name: "stub"}, nil
}

func TestRefineLabelsStrongLinks(t *testing.T) {
	llm := &stubLLM{text: "extends"}
	r := NewRefiner(llm, cache.NewMemory(), nil)
	links := []models.GraphLink{
		{SourceChunkID: "a", TargetChunkID: "b", Similarity: 0.95, Relationship: "similar"},
		{SourceChunkID: "a", TargetChunkID: "c", Similarity: 0.60, Relationship: "similar"},
	}
	snippets := map[string]string{"a": "snippet a", "b": "snippet b", "c": "snippet c"}

	r.Refine(context.Background(), links, snippets)
	if links[0].Relationship != "extends" {
		t.Errorf("strong link not refined: %q", links[0].Relationship)
	}
	if links[1].Relationship != "similar" {
		t.Errorf("weak link should keep default: %q", links[1].Relationship)
	}
	if llm.calls != 1 {
		t.Errorf("got %d llm calls, want 1", llm.calls)
	}
}

func TestRefineUsesCache(t *testing.T) {
	llm := &stubLLM{text: "cites"}
	c := cache.NewMemory()
	r := NewRefiner(llm, c, nil)
	link := func() []models.GraphLink {
		return []models.GraphLink{{SourceChunkID: "a", TargetChunkID: "b", Similarity: 0.99, Relationship: "similar"}}
	}
	snippets := map[string]string{"a": "same a", "b": "same b"}

	first := link()
	r.Refine(context.Background(), first, snippets)
	second := link()
	r.Refine(context.Background(), second, snippets)

	if first[0].Relationship != "cites" || second[0].Relationship != "cites" {
		t.Fatalf("refinement lost: %q / %q", first[0].Relationship, second[0].Relationship)
	}
	if llm.calls != 1 {
		t.Fatalf("got %d llm calls, want 1 (second should hit cache)", llm.calls)
	}
}

func TestRefineFailureKeepsDefault(t *testing.T) {
	llm := &stubLLM{err: errors.New("provider down")}
	r := NewRefiner(llm, cache.NewMemory(), nil)
	links := []models.GraphLink{{SourceChunkID: "a", TargetChunkID: "b", Similarity: 0.99, Relationship: "similar"}}
	r.Refine(context.Background(), links, map[string]string{"a": "x", "b": "y"})
	if links[0].Relationship != "similar" {
		t.Fatalf("failure should keep default label: %q", links[0].Relationship)
	}
}

func TestRefineSkipsMissingSnippets(t *testing.T) {
	llm := &stubLLM{text: "extends"}
	r := NewRefiner(llm, cache.NewMemory(), nil)
	links := []models.GraphLink{{SourceChunkID: "a", TargetChunkID: "b", Similarity: 0.99, Relationship: "similar"}}
	r.Refine(context.Background(), links, map[string]string{"a": "only a"})
	if llm.calls != 0 {
		t.Fatalf("missing snippet should skip the call, got %d calls", llm.calls)
	}
}
