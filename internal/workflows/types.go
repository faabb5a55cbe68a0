package workflows

// DocumentIngestInput starts one document through the pipeline.
type DocumentIngestInput struct {
	ProjectID  string `json:"project_id"`
	DocumentID string `json:"document_id"`
	FileHandle string `json:"file_handle"`
}

// IngestResult is the workflow's terminal summary.
type IngestResult struct {
	TotalChunks     int `json:"total_chunks"`
	TotalEmbeddings int `json:"total_embeddings"`
	GraphNodes      int `json:"graph_nodes"`
	GraphLinks      int `json:"graph_links"`
}

// IngestStatus is exposed through the status query handler.
type IngestStatus struct {
	Step        string `json:"step"`
	Percentage  int    `json:"percentage"`
	TotalChunks int    `json:"total_chunks"`
	Embedded    int    `json:"embedded"`
	FailedCount int    `json:"failed_count"`
}

// ProjectGraphRebuildInput recomputes a project's graph outside ingestion.
type ProjectGraphRebuildInput struct {
	ProjectID string `json:"project_id"`
}
