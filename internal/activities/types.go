package activities

// ExtractDocumentInput identifies the stored file to extract.
type ExtractDocumentInput struct {
	ProjectID  string `json:"project_id"`
	DocumentID string `json:"document_id"`
	FileHandle string `json:"file_handle"`
}

// ExtractDocumentOutput summarizes extraction; page texts are persisted as an
// artifact so activity payloads stay small.
type ExtractDocumentOutput struct {
	ArtifactHandle string `json:"artifact_handle"`
	PageCount      int    `json:"page_count"`
	OCRPages       int    `json:"ocr_pages"`
	Title          string `json:"title"`
	Author         string `json:"author"`
}

// ChunkDocumentInput points at an extraction artifact.
type ChunkDocumentInput struct {
	ProjectID      string `json:"project_id"`
	DocumentID     string `json:"document_id"`
	ArtifactHandle string `json:"artifact_handle"`
}

// ChunkDocumentOutput carries the chunk artifact forward to persistence.
type ChunkDocumentOutput struct {
	ChunksHandle string `json:"chunks_handle"`
	TotalChunks  int    `json:"total_chunks"`
}

type PersistChunksInput struct {
	DocumentID   string `json:"document_id"`
	ChunksHandle string `json:"chunks_handle"`
}

type PersistChunksOutput struct {
	Persisted int `json:"persisted"`
}

type EmbedChunksInput struct {
	ProjectID  string `json:"project_id"`
	DocumentID string `json:"document_id"`
}

type EmbedChunksOutput struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    []string `json:"failed,omitempty"`
}

type BuildGraphInput struct {
	ProjectID string `json:"project_id"`
}

type BuildGraphOutput struct {
	Nodes int `json:"nodes"`
	Links int `json:"links"`
}

// UpdateStatusInput advances a document's processing milestone.
type UpdateStatusInput struct {
	DocumentID   string `json:"document_id"`
	Percentage   int    `json:"percentage"`
	IsProcessing bool   `json:"is_processing"`
	IsProcessed  bool   `json:"is_processed"`
	FailReason   string `json:"fail_reason,omitempty"`
}
