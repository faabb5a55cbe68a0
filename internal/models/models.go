package models

import "time"

type Project struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Document tracks one uploaded source file and its processing lifecycle.
// Percentage only moves forward; the repo guards updates with GREATEST.
type Document struct {
	DocumentID   string     `json:"document_id"`
	ProjectID    string     `json:"project_id"`
	Filename     string     `json:"filename"`
	FileHandle   string     `json:"file_handle"`
	Title        string     `json:"title,omitempty"`
	Author       string     `json:"author,omitempty"`
	Percentage   int        `json:"percentage"`
	IsProcessing bool       `json:"is_processing"`
	IsProcessed  bool       `json:"is_processed"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	FailReason   string     `json:"fail_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ChunkMetadata is the per-chunk metadata carried alongside the content.
type ChunkMetadata struct {
	PageNumber int      `json:"page_number,omitempty"`
	DocTitle   string   `json:"doc_title,omitempty"`
	DocAuthor  string   `json:"doc_author,omitempty"`
	Headings   []string `json:"headings,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Entities   []string `json:"entities,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	NumTokens  int      `json:"num_tokens,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
}

type Chunk struct {
	ChunkID     string        `json:"chunk_id"`
	DocumentID  string        `json:"document_id"`
	ProjectID   string        `json:"project_id"`
	ChunkNumber int           `json:"chunk_number"`
	Content     string        `json:"content"`
	Metadata    ChunkMetadata `json:"metadata"`
	Embedding   []float32     `json:"embedding,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// GraphNode is one node per chunk, upserted by chunk id.
type GraphNode struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	ProjectID    string  `json:"project_id"`
	Label        string  `json:"label"`
	Group        string  `json:"group"`
	Significance float64 `json:"significance"`
}

// GraphLink is a similarity edge, upserted by (source, target). Links are
// stored directed; the builder keeps top-K per source without symmetrizing.
type GraphLink struct {
	SourceChunkID string  `json:"source"`
	TargetChunkID string  `json:"target"`
	ProjectID     string  `json:"project_id"`
	Similarity    float64 `json:"similarity"`
	Relationship  string  `json:"relationship"`
}

type SearchResult struct {
	ChunkID     string  `json:"chunk_id"`
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	Filename    string  `json:"filename"`
	ChunkNumber int     `json:"chunk_number"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
	Content     string  `json:"content,omitempty"`
}
