package workflows

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"docflow/internal/activities"
)

type statusRecorder struct {
	mu      sync.Mutex
	updates []activities.UpdateStatusInput
}

func (s *statusRecorder) record(_ context.Context, in activities.UpdateStatusInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, in)
	return nil
}

func (s *statusRecorder) percentages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.updates))
	for i, u := range s.updates {
		out[i] = u.Percentage
	}
	return out
}

func newIngestEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *statusRecorder) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	rec := &statusRecorder{}
	var a *activities.Activities
	env.OnActivity(a.UpdateDocumentStatusActivity, mock.Anything, mock.Anything).Return(rec.record)
	return env, rec
}

func ingestInput() DocumentIngestInput {
	return DocumentIngestInput{ProjectID: "proj-1", DocumentID: "doc-1", FileHandle: "ab/cd.pdf"}
}

func TestDocumentIngestWorkflowSuccess(t *testing.T) {
	env, rec := newIngestEnv(t)
	var a *activities.Activities

	env.OnActivity(a.ExtractDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ExtractDocumentOutput{ArtifactHandle: "x/extract.json", PageCount: 4}, nil)
	env.OnActivity(a.ChunkDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{ChunksHandle: "x/chunks.json", TotalChunks: 10}, nil)
	env.OnActivity(a.PersistChunksActivity, mock.Anything, mock.Anything).
		Return(activities.PersistChunksOutput{Persisted: 10}, nil)
	env.OnActivity(a.EmbedChunksActivity, mock.Anything, mock.Anything).
		Return(activities.EmbedChunksOutput{Total: 10, Succeeded: 10}, nil)
	env.OnActivity(a.BuildGraphActivity, mock.Anything, mock.Anything).
		Return(activities.BuildGraphOutput{Nodes: 10, Links: 18}, nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result IngestResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 10, result.TotalChunks)
	require.Equal(t, 10, result.TotalEmbeddings)
	require.Equal(t, 10, result.GraphNodes)
	require.Equal(t, 18, result.GraphLinks)

	require.Equal(t, []int{30, 50, 60, 90, 100}, rec.percentages())
	final := rec.updates[len(rec.updates)-1]
	require.True(t, final.IsProcessed)
	require.False(t, final.IsProcessing)
}

func TestDocumentIngestWorkflowNoExtractableText(t *testing.T) {
	env, rec := newIngestEnv(t)
	var a *activities.Activities

	env.OnActivity(a.ExtractDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ExtractDocumentOutput{}, temporal.NewNonRetryableApplicationError(
			"document has no extractable text", "NoExtractableText", nil))

	env.ExecuteWorkflow(DocumentIngestWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	require.Len(t, rec.updates, 1)
	failure := rec.updates[0]
	require.False(t, failure.IsProcessed)
	require.False(t, failure.IsProcessing)
	require.NotEmpty(t, failure.FailReason)
}

func TestDocumentIngestWorkflowPartialEmbeddingStillCompletes(t *testing.T) {
	env, rec := newIngestEnv(t)
	var a *activities.Activities

	env.OnActivity(a.ExtractDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ExtractDocumentOutput{ArtifactHandle: "x/extract.json", PageCount: 2}, nil)
	env.OnActivity(a.ChunkDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{ChunksHandle: "x/chunks.json", TotalChunks: 10}, nil)
	env.OnActivity(a.PersistChunksActivity, mock.Anything, mock.Anything).
		Return(activities.PersistChunksOutput{Persisted: 10}, nil)
	env.OnActivity(a.EmbedChunksActivity, mock.Anything, mock.Anything).
		Return(activities.EmbedChunksOutput{Total: 10, Succeeded: 9, Failed: []string{"chunk-4"}}, nil)
	env.OnActivity(a.BuildGraphActivity, mock.Anything, mock.Anything).
		Return(activities.BuildGraphOutput{Nodes: 9, Links: 12}, nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, ingestInput())

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result IngestResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, 9, result.TotalEmbeddings)

	pcts := rec.percentages()
	require.Equal(t, 100, pcts[len(pcts)-1])
}

func TestDocumentIngestWorkflowStatusQuery(t *testing.T) {
	env, _ := newIngestEnv(t)
	var a *activities.Activities

	env.OnActivity(a.ExtractDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ExtractDocumentOutput{ArtifactHandle: "x/extract.json"}, nil)
	env.OnActivity(a.ChunkDocumentActivity, mock.Anything, mock.Anything).
		Return(activities.ChunkDocumentOutput{ChunksHandle: "x/chunks.json", TotalChunks: 3}, nil)
	env.OnActivity(a.PersistChunksActivity, mock.Anything, mock.Anything).
		Return(activities.PersistChunksOutput{Persisted: 3}, nil)
	env.OnActivity(a.EmbedChunksActivity, mock.Anything, mock.Anything).
		Return(activities.EmbedChunksOutput{Total: 3, Succeeded: 3}, nil)
	env.OnActivity(a.BuildGraphActivity, mock.Anything, mock.Anything).
		Return(activities.BuildGraphOutput{Nodes: 3, Links: 2}, nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, ingestInput())
	require.True(t, env.IsWorkflowCompleted())

	val, err := env.QueryWorkflow(IngestStatusQuery)
	require.NoError(t, err)
	var status IngestStatus
	require.NoError(t, val.Get(&status))
	require.Equal(t, "done", status.Step)
	require.Equal(t, 100, status.Percentage)
	require.Equal(t, 3, status.TotalChunks)
	require.Equal(t, 3, status.Embedded)
}

func TestProjectGraphRebuildWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ProjectGraphRebuildWorkflow)
	var a *activities.Activities

	env.OnActivity(a.BuildGraphActivity, mock.Anything, mock.Anything).
		Return(activities.BuildGraphOutput{Nodes: 7, Links: 11}, nil)

	env.ExecuteWorkflow(ProjectGraphRebuildWorkflow, ProjectGraphRebuildInput{ProjectID: "proj-1"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out activities.BuildGraphOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, 7, out.Nodes)
	require.Equal(t, 11, out.Links)
}
