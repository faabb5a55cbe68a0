package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.APIAddr != ":8080" {
		t.Errorf("APIAddr = %q", cfg.APIAddr)
	}
	if cfg.MinPageTextChars != 50 {
		t.Errorf("MinPageTextChars = %d", cfg.MinPageTextChars)
	}
	if cfg.EmbedDim != 1536 || cfg.EmbedBatchSize != 20 || cfg.EmbedConcurrency != 3 {
		t.Errorf("embed defaults wrong: %+v", cfg)
	}
	if cfg.GraphThreshold != 0.75 || cfg.GraphTopK != 5 {
		t.Errorf("graph defaults wrong: %+v", cfg)
	}
	if cfg.LLMProviders != "mock" || cfg.EmbedProviders != "mock" {
		t.Errorf("provider defaults wrong: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DOCFLOW_EMBED_DIM", "768")
	t.Setenv("DOCFLOW_GRAPH_THRESHOLD", "0.5")
	t.Setenv("DOCFLOW_EMBED_BATCH_SIZE", "not-a-number")

	cfg := Load()
	if cfg.EmbedDim != 768 {
		t.Errorf("EmbedDim = %d, want 768", cfg.EmbedDim)
	}
	if cfg.GraphThreshold != 0.5 {
		t.Errorf("GraphThreshold = %f, want 0.5", cfg.GraphThreshold)
	}
	if cfg.EmbedBatchSize != 20 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.EmbedBatchSize)
	}
}
