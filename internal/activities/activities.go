// Package activities implements the Temporal activities behind document
// ingestion.
package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/temporal"

	"docflow/internal/chunker"
	"docflow/internal/embed"
	"docflow/internal/enrich"
	"docflow/internal/extract"
	"docflow/internal/graph"
	"docflow/internal/models"
	"docflow/internal/objstore"
	"docflow/internal/storage"
	"docflow/internal/util"
)

// Activities bundles the pipeline's dependencies for Temporal registration.
type Activities struct {
	Documents    *storage.DocumentRepo
	Chunks       *storage.ChunkRepo
	Graph        *storage.GraphRepo
	Audit        *storage.CallAuditRepo
	Files        objstore.Store
	Artifacts    objstore.Store
	Extractor    *extract.Extractor
	Embedder     *embed.Generator
	GraphBuilder *graph.Builder
	Refiner      *graph.Refiner
	Log          *slog.Logger
}

func (a *Activities) logger() *slog.Logger {
	if a.Log == nil {
		return slog.Default()
	}
	return a.Log
}

// ExtractDocumentActivity pulls the stored PDF, extracts page texts with OCR
// fallback, and persists the result as an artifact. A document with no
// extractable text fails non-retryably; retrying cannot produce text.
func (a *Activities) ExtractDocumentActivity(ctx context.Context, in ExtractDocumentInput) (ExtractDocumentOutput, error) {
	var out ExtractDocumentOutput
	data, err := a.Files.Get(ctx, in.FileHandle)
	if err != nil {
		return out, fmt.Errorf("load document %s: %w", in.DocumentID, err)
	}

	res, err := a.Extractor.Extract(ctx, in.DocumentID, data)
	if errors.Is(err, util.ErrNoExtractableText) {
		return out, temporal.NewNonRetryableApplicationError(
			"document has no extractable text", "NoExtractableText", err)
	}
	if err != nil {
		return out, fmt.Errorf("extract %s: %w", in.DocumentID, err)
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return out, fmt.Errorf("marshal extraction: %w", err)
	}
	handle, err := a.Artifacts.Put(ctx, in.DocumentID+"-extract.json", payload)
	if err != nil {
		return out, fmt.Errorf("store extraction artifact: %w", err)
	}

	if res.Title != "" || res.Author != "" {
		if err := a.Documents.UpdateTitleAuthor(ctx, in.DocumentID, res.Title, res.Author); err != nil {
			a.logger().Warn("title/author update failed", "document_id", in.DocumentID, "error", err)
		}
	}

	out.ArtifactHandle = handle
	out.PageCount = len(res.Pages)
	out.Title = res.Title
	out.Author = res.Author
	for _, p := range res.Pages {
		if p.OCRUsed {
			out.OCRPages++
		}
	}
	return out, nil
}

// ChunkDocumentActivity splits the extracted pages into adaptive chunks and
// enriches each chunk's metadata. The chunk set is written as an artifact for
// the persistence step.
func (a *Activities) ChunkDocumentActivity(ctx context.Context, in ChunkDocumentInput) (ChunkDocumentOutput, error) {
	var out ChunkDocumentOutput
	payload, err := a.Artifacts.Get(ctx, in.ArtifactHandle)
	if err != nil {
		return out, fmt.Errorf("load extraction artifact: %w", err)
	}
	var res extract.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return out, fmt.Errorf("decode extraction artifact: %w", err)
	}

	chunks := chunker.BuildChunks(in.ProjectID, in.DocumentID, res)
	for i := range chunks {
		m := enrich.Enrich(chunks[i].Content)
		chunks[i].Metadata.Keywords = m.Keywords
		chunks[i].Metadata.Entities = m.Entities
		chunks[i].Metadata.Topics = m.Topics
	}

	encoded, err := json.Marshal(chunks)
	if err != nil {
		return out, fmt.Errorf("marshal chunks: %w", err)
	}
	handle, err := a.Artifacts.Put(ctx, in.DocumentID+"-chunks.json", encoded)
	if err != nil {
		return out, fmt.Errorf("store chunks artifact: %w", err)
	}
	out.ChunksHandle = handle
	out.TotalChunks = len(chunks)
	return out, nil
}

// PersistChunksActivity writes the chunk artifact to Postgres. Inserts are
// idempotent by chunk id so a retried activity does not duplicate rows.
func (a *Activities) PersistChunksActivity(ctx context.Context, in PersistChunksInput) (PersistChunksOutput, error) {
	var out PersistChunksOutput
	payload, err := a.Artifacts.Get(ctx, in.ChunksHandle)
	if err != nil {
		return out, fmt.Errorf("load chunks artifact: %w", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(payload, &chunks); err != nil {
		return out, fmt.Errorf("decode chunks artifact: %w", err)
	}
	if err := a.Chunks.InsertChunks(ctx, chunks); err != nil {
		return out, fmt.Errorf("persist chunks for %s: %w", in.DocumentID, err)
	}
	out.Persisted = len(chunks)
	return out, nil
}

// EmbedChunksActivity embeds a document's chunks. Exhausted per-chunk
// failures are reported, not fatal; the pipeline completes with partial
// coverage.
func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	var out EmbedChunksOutput
	chunks, err := a.Chunks.ListByDocument(ctx, in.DocumentID)
	if err != nil {
		return out, fmt.Errorf("load chunks for %s: %w", in.DocumentID, err)
	}

	res, err := a.Embedder.EmbedAll(ctx, chunks)
	if err != nil {
		return out, fmt.Errorf("embed chunks for %s: %w", in.DocumentID, err)
	}
	a.auditEmbedFailures(ctx, in, res.Failed)

	out.Total = res.Total
	out.Succeeded = res.Succeeded
	out.Failed = res.Failed
	return out, nil
}

func (a *Activities) auditEmbedFailures(ctx context.Context, in EmbedChunksInput, failed []string) {
	if a.Audit == nil {
		return
	}
	for _, chunkID := range failed {
		err := a.Audit.Record(ctx, storage.ProviderCall{
			ProjectID:  in.ProjectID,
			DocumentID: in.DocumentID,
			ChunkID:    chunkID,
			Provider:   "embedding",
			Operation:  "ingest",
			Status:     "failed",
			ErrorType:  "exhausted",
		})
		if err != nil {
			a.logger().Warn("audit record failed", "chunk_id", chunkID, "error", err)
		}
	}
}

// BuildGraphActivity recomputes the project similarity graph from every
// embedded chunk and upserts nodes and links.
func (a *Activities) BuildGraphActivity(ctx context.Context, in BuildGraphInput) (BuildGraphOutput, error) {
	var out BuildGraphOutput
	chunks, err := a.Chunks.ListWithEmbeddings(ctx, in.ProjectID)
	if err != nil {
		return out, fmt.Errorf("load embedded chunks: %w", err)
	}

	nodes, links := a.GraphBuilder.Build(chunks)
	if a.Refiner != nil {
		a.Refiner.Refine(ctx, links, snippetIndex(chunks))
	}

	if err := a.Graph.UpsertNodes(ctx, nodes); err != nil {
		return out, fmt.Errorf("upsert graph nodes: %w", err)
	}
	if err := a.Graph.UpsertLinks(ctx, links); err != nil {
		return out, fmt.Errorf("upsert graph links: %w", err)
	}
	out.Nodes = len(nodes)
	out.Links = len(links)
	return out, nil
}

func snippetIndex(chunks []models.Chunk) map[string]string {
	idx := make(map[string]string, len(chunks))
	for _, c := range chunks {
		s := c.Metadata.Snippet
		if s == "" {
			s = util.DisplaySnippet(c.Content, 200)
		}
		idx[c.ChunkID] = s
	}
	return idx
}

// UpdateDocumentStatusActivity records a milestone on the document row.
func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateStatusInput) error {
	if err := a.Documents.UpdateStatus(ctx, in.DocumentID, in.Percentage, in.IsProcessing, in.IsProcessed, in.FailReason); err != nil {
		return fmt.Errorf("update status for %s: %w", in.DocumentID, err)
	}
	return nil
}
