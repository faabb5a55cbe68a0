// Package workflows defines the Temporal workflows orchestrating document
// ingestion and graph rebuilds.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"docflow/internal/activities"
)

// IngestStatusQuery is the query name exposing live ingest progress.
const IngestStatusQuery = "ingest-status"

func defaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
}

// DocumentIngestWorkflow runs a document through extraction, chunking,
// persistence, embedding and graph build, recording a status milestone after
// each stage. Embedding failures for individual chunks do not fail the run;
// a document with no extractable text does.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (IngestResult, error) {
	var result IngestResult
	status := IngestStatus{Step: "starting"}
	if err := workflow.SetQueryHandler(ctx, IngestStatusQuery, func() (IngestStatus, error) {
		return status, nil
	}); err != nil {
		return result, err
	}

	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())
	var a *activities.Activities

	fail := func(reason string) {
		status.Step = "failed"
		_ = workflow.ExecuteActivity(ctx, a.UpdateDocumentStatusActivity, activities.UpdateStatusInput{
			DocumentID: input.DocumentID,
			Percentage: status.Percentage,
			FailReason: reason,
		}).Get(ctx, nil)
	}
	milestone := func(step string, pct int, processed bool) error {
		status.Step = step
		status.Percentage = pct
		return workflow.ExecuteActivity(ctx, a.UpdateDocumentStatusActivity, activities.UpdateStatusInput{
			DocumentID:   input.DocumentID,
			Percentage:   pct,
			IsProcessing: !processed,
			IsProcessed:  processed,
		}).Get(ctx, nil)
	}

	status.Step = "extracting"
	var extracted activities.ExtractDocumentOutput
	err := workflow.ExecuteActivity(ctx, a.ExtractDocumentActivity, activities.ExtractDocumentInput{
		ProjectID:  input.ProjectID,
		DocumentID: input.DocumentID,
		FileHandle: input.FileHandle,
	}).Get(ctx, &extracted)
	if err != nil {
		logger.Error("extraction failed", "document_id", input.DocumentID, "error", err)
		fail(err.Error())
		return result, err
	}
	if err := milestone("chunking", 30, false); err != nil {
		return result, err
	}

	var chunked activities.ChunkDocumentOutput
	err = workflow.ExecuteActivity(ctx, a.ChunkDocumentActivity, activities.ChunkDocumentInput{
		ProjectID:      input.ProjectID,
		DocumentID:     input.DocumentID,
		ArtifactHandle: extracted.ArtifactHandle,
	}).Get(ctx, &chunked)
	if err != nil {
		fail(err.Error())
		return result, err
	}
	status.TotalChunks = chunked.TotalChunks
	result.TotalChunks = chunked.TotalChunks
	if err := milestone("persisting", 50, false); err != nil {
		return result, err
	}

	err = workflow.ExecuteActivity(ctx, a.PersistChunksActivity, activities.PersistChunksInput{
		DocumentID:   input.DocumentID,
		ChunksHandle: chunked.ChunksHandle,
	}).Get(ctx, nil)
	if err != nil {
		fail(err.Error())
		return result, err
	}
	if err := milestone("embedding", 60, false); err != nil {
		return result, err
	}

	var embedded activities.EmbedChunksOutput
	err = workflow.ExecuteActivity(ctx, a.EmbedChunksActivity, activities.EmbedChunksInput{
		ProjectID:  input.ProjectID,
		DocumentID: input.DocumentID,
	}).Get(ctx, &embedded)
	if err != nil {
		fail(err.Error())
		return result, err
	}
	status.Embedded = embedded.Succeeded
	status.FailedCount = len(embedded.Failed)
	result.TotalEmbeddings = embedded.Succeeded
	if len(embedded.Failed) > 0 {
		logger.Warn("embedding incomplete",
			"document_id", input.DocumentID,
			"failed", len(embedded.Failed))
	}
	if err := milestone("building graph", 90, false); err != nil {
		return result, err
	}

	var built activities.BuildGraphOutput
	err = workflow.ExecuteActivity(ctx, a.BuildGraphActivity, activities.BuildGraphInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &built)
	if err != nil {
		fail(err.Error())
		return result, err
	}
	result.GraphNodes = built.Nodes
	result.GraphLinks = built.Links

	if err := milestone("done", 100, true); err != nil {
		return result, err
	}
	return result, nil
}
