package retrieve

import (
	"context"
	"errors"
	"testing"

	"docflow/internal/models"
)

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeSearcher struct {
	vector    []models.SearchResult
	lexical   []models.SearchResult
	vectorErr error
	lexErr    error
	gotLimit  *int
}

func (f fakeSearcher) SearchByVector(_ context.Context, _ string, _ []float32, limit int) ([]models.SearchResult, error) {
	if f.gotLimit != nil {
		*f.gotLimit = limit
	}
	return f.vector, f.vectorErr
}

func (f fakeSearcher) SearchByText(context.Context, string, string, int) ([]models.SearchResult, error) {
	return f.lexical, f.lexErr
}

func results(ids ...string) []models.SearchResult {
	out := make([]models.SearchResult, len(ids))
	for i, id := range ids {
		out[i] = models.SearchResult{ChunkID: id}
	}
	return out
}

func ids(rs []models.SearchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ChunkID
	}
	return out
}

func TestMergeResultsVectorFirstDeduped(t *testing.T) {
	merged := MergeResults(results("c1", "c3", "c5", "c9"), results("c3", "c7"), 10)
	want := []string{"c1", "c3", "c5", "c9", "c7"}
	got := ids(merged)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMergeResultsTruncatesToLimit(t *testing.T) {
	merged := MergeResults(results("a", "b", "c"), results("d", "e", "f"), 4)
	if len(merged) != 4 {
		t.Fatalf("got %d results, want 4", len(merged))
	}
	if merged[3].ChunkID != "d" {
		t.Fatalf("unexpected tail: %v", ids(merged))
	}
}

func TestHybridSearchMergesLegs(t *testing.T) {
	h := NewHybridRetriever(fakeEmbedder{}, fakeSearcher{
		vector:  results("c1", "c2"),
		lexical: results("c2", "c3"),
	}, 10, nil)
	got, err := h.HybridSearch(context.Background(), "p", "query", 0)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	want := []string{"c1", "c2", "c3"}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Fatalf("got %v, want %v", ids(got), want)
		}
	}
}

func TestHybridSearchFailsWhenVectorLegFails(t *testing.T) {
	h := NewHybridRetriever(fakeEmbedder{}, fakeSearcher{
		vectorErr: errors.New("pgvector down"),
		lexical:   results("c1"),
	}, 10, nil)
	if _, err := h.HybridSearch(context.Background(), "p", "query", 0); err == nil {
		t.Fatal("expected error when vector leg fails")
	}
}

func TestHybridSearchFailsWhenLexicalLegFails(t *testing.T) {
	h := NewHybridRetriever(fakeEmbedder{}, fakeSearcher{
		vector: results("c1", "c2"),
		lexErr: errors.New("tsquery parse error"),
	}, 10, nil)
	if _, err := h.HybridSearch(context.Background(), "p", "query", 0); err == nil {
		t.Fatal("expected error when lexical leg fails")
	}
}

func TestHybridSearchFailsWhenEmbedFails(t *testing.T) {
	h := NewHybridRetriever(fakeEmbedder{err: errors.New("provider down")},
		fakeSearcher{vector: results("c1")}, 10, nil)
	if _, err := h.HybridSearch(context.Background(), "p", "query", 0); err == nil {
		t.Fatal("expected error when query embedding fails")
	}
	if _, err := h.Search(context.Background(), "p", "query", 0); err == nil {
		t.Fatal("expected error from vector search too")
	}
}

func TestLexicalOnlyBypassesEmbedder(t *testing.T) {
	h := NewHybridRetriever(fakeEmbedder{err: errors.New("provider down")},
		fakeSearcher{lexical: results("c1")}, 10, nil)
	got, err := h.LexicalOnly(context.Background(), "p", "query", 0)
	if err != nil {
		t.Fatalf("LexicalOnly: %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != "c1" {
		t.Fatalf("unexpected results: %v", ids(got))
	}
}

func TestPerCallTopKOverridesDefault(t *testing.T) {
	var limit int
	h := NewHybridRetriever(fakeEmbedder{}, fakeSearcher{
		vector:   results("c1"),
		gotLimit: &limit,
	}, 10, nil)

	if _, err := h.Search(context.Background(), "p", "query", 7); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if limit != 7 {
		t.Fatalf("got limit %d, want 7", limit)
	}

	if _, err := h.Search(context.Background(), "p", "query", 0); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if limit != 10 {
		t.Fatalf("got limit %d, want configured default 10", limit)
	}
}
