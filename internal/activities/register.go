package activities

import "go.temporal.io/sdk/worker"

// Register attaches every pipeline activity to the worker.
func (a *Activities) Register(w worker.Worker) {
	w.RegisterActivity(a.ExtractDocumentActivity)
	w.RegisterActivity(a.ChunkDocumentActivity)
	w.RegisterActivity(a.PersistChunksActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.BuildGraphActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
}
