package providers

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorType
	}{
		{nil, ""},
		{errors.New("insufficient_quota for this key"), ErrorQuota},
		{errors.New("you have no credit left"), ErrorQuota},
		{errors.New("429 rate limit exceeded"), ErrorRate},
		{errors.New("request timeout"), ErrorTransient},
		{errors.New("service unavailable"), ErrorTransient},
		{errors.New("upstream returned 503"), ErrorTransient},
		{errors.New("context length exceeded"), ErrorContext},
		{errors.New("model not found"), ErrorPermanent},
	}
	for _, c := range cases {
		if got := ClassifyError(c.err); got != c.want {
			t.Errorf("ClassifyError(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(errors.New("429 slow down")) {
		t.Error("rate limit should be retryable")
	}
	if !IsRetryable(errors.New("gateway 502")) {
		t.Error("transient failure should be retryable")
	}
	if IsRetryable(errors.New("invalid api key")) {
		t.Error("permanent failure should not be retryable")
	}
	if IsRetryable(errors.New("context length exceeded")) {
		t.Error("context overflow should not be retryable")
	}
}

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("openai:primary|ollama:nomic | mock")
	if len(refs) != 3 {
		t.Fatalf("got %d refs, want 3", len(refs))
	}
	if refs[0].Name != "openai" || refs[0].KeyAlias != "primary" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Name != "ollama" || refs[1].KeyAlias != "nomic" {
		t.Fatalf("unexpected second ref: %+v", refs[1])
	}
	if refs[2].Name != "mock" || refs[2].KeyAlias != "" {
		t.Fatalf("unexpected third ref: %+v", refs[2])
	}
}

func TestParseProviderListEmptyFallsBackToMock(t *testing.T) {
	refs := ParseProviderList("")
	if len(refs) != 1 || refs[0].Name != "mock" {
		t.Fatalf("expected mock fallback, got %+v", refs)
	}
}

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMockProvider(64)
	req := EmbedRequest{Inputs: []string{"alpha", "beta"}}
	a, _, err := m.Embed(context.Background(), req)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _, err := m.Embed(context.Background(), req)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(a) != 2 || len(a[0]) != 64 {
		t.Fatalf("unexpected shape: %d vectors of %d", len(a), len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vector not deterministic at %d", i)
		}
	}
	same := true
	for i := range a[0] {
		if a[0][i] != a[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different inputs produced identical vectors")
	}
}

func TestMockEmbedUnitNorm(t *testing.T) {
	m := NewMockProvider(32)
	vecs, _, err := m.Embed(context.Background(), EmbedRequest{Inputs: []string{"norm check"}})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	var sum float64
	for _, x := range vecs[0] {
		sum += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(sum)-1) > 1e-3 {
		t.Fatalf("vector magnitude %f, want ~1", math.Sqrt(sum))
	}
}

func TestMockGenerateRelationship(t *testing.T) {
	m := NewMockProvider(0)
	resp, info, err := m.Generate(context.Background(), GenerateRequest{Operation: "relationship", Prompt: "x"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "similar" {
		t.Fatalf("got %q, want similar", resp.Text)
	}
	if info.Name != "mock" {
		t.Fatalf("unexpected provider name %q", info.Name)
	}
}
