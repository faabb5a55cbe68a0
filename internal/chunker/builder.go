package chunker

import (
	"fmt"

	"docflow/internal/extract"
	"docflow/internal/models"
	"docflow/internal/util"
)

// BuildChunks runs adaptive splitting over all pages of a document and
// assigns the contiguous 1..N chunk numbering. Chunk ids are derived from
// document id, position and content hash so re-ingesting the same file
// upserts instead of duplicating.
func BuildChunks(projectID, documentID string, res extract.Result) []models.Chunk {
	totalChars := 0
	for _, p := range res.Pages {
		totalChars += len([]rune(p.Text))
	}
	chunkSize, chunkOverlap := AdaptiveParams(totalChars)

	chunks := make([]models.Chunk, 0, totalChars/chunkSize+1)
	number := 0
	for _, page := range res.Pages {
		for _, piece := range Split(page.Text, chunkSize, chunkOverlap) {
			text := util.SanitizeText(piece.Text)
			if text == "" {
				continue
			}
			number++
			contentHash := util.SHA256Hex([]byte(text))
			chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s", documentID, number, contentHash)))
			chunks = append(chunks, models.Chunk{
				ChunkID:     chunkID,
				DocumentID:  documentID,
				ProjectID:   projectID,
				ChunkNumber: number,
				Content:     text,
				Metadata: models.ChunkMetadata{
					PageNumber: page.Number,
					DocTitle:   res.Title,
					DocAuthor:  res.Author,
					Headings:   piece.Headings,
					Snippet:    ExtractSnippet(text),
					NumTokens:  CountTokens(text),
				},
			})
		}
	}
	return chunks
}
