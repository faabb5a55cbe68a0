package workflows

import "go.temporal.io/sdk/worker"

// Register attaches the workflows to a worker.
func Register(w worker.Worker) {
	w.RegisterWorkflow(DocumentIngestWorkflow)
	w.RegisterWorkflow(ProjectGraphRebuildWorkflow)
}
