package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docflow/internal/models"
	"docflow/internal/providers"
	"docflow/internal/retrieve"
	"docflow/internal/util"
)

// Answer is the response to a question, with the evidence it was grounded on.
type Answer struct {
	Text     string     `json:"text"`
	Provider string     `json:"provider"`
	Evidence []Evidence `json:"evidence"`
}

type Evidence struct {
	ChunkID     string  `json:"chunk_id"`
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	ChunkNumber int     `json:"chunk_number"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
}

// ErrUnknownProvider is returned when the caller names an LLM provider that
// is not configured.
var ErrUnknownProvider = errors.New("unknown llm provider")

// Asker answers questions over a project using retrieved chunks as context.
// Generation falls through the manager's provider chain unless the caller
// pins a provider by name.
type Asker struct {
	retriever *retrieve.HybridRetriever
	manager   *providers.Manager
}

func NewAsker(retriever *retrieve.HybridRetriever, manager *providers.Manager) *Asker {
	return &Asker{retriever: retriever, manager: manager}
}

func (a *Asker) Ask(ctx context.Context, projectID, question, providerName string) (*Answer, error) {
	llm := a.manager.FallbackLLM()
	if providerName != "" {
		p, _, ok := a.manager.FindLLMProviderByName(providerName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
		}
		llm = p
	}

	results, err := a.retriever.HybridSearch(ctx, projectID, question, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	results = util.DeduplicateBy(results, func(r models.SearchResult) string { return r.ChunkID })

	contexts := make([]string, 0, len(results))
	evidence := make([]Evidence, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, r.Content)
		evidence = append(evidence, Evidence{
			ChunkID:     r.ChunkID,
			DocumentID:  r.DocumentID,
			Title:       r.Title,
			ChunkNumber: r.ChunkNumber,
			Snippet:     util.DisplayEvidenceSnippet(r.Content, question, 240),
			Score:       r.Score,
		})
	}

	resp, info, err := llm.Generate(ctx, providers.GenerateRequest{
		Operation: "ask",
		Prompt:    askPrompt(question),
		Context:   contexts,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Answer{
		Text:     strings.TrimSpace(resp.Text),
		Provider: info.Name,
		Evidence: evidence,
	}, nil
}

func askPrompt(question string) string {
	return fmt.Sprintf(`Answer the question using only the provided document excerpts.
Quote or paraphrase the excerpts; say so when they do not contain the answer.

Question: %s`, question)
}
