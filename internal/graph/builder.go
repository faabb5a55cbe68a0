// Package graph builds a chunk similarity graph from stored embeddings.
package graph

import (
	"math"
	"sort"
	"strings"

	"docflow/internal/models"
)

// Cosine returns the cosine similarity of two vectors. Mismatched lengths or
// a zero-magnitude side yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Builder derives nodes and links from embedded chunks.
type Builder struct {
	Threshold float64
	TopK      int
}

func NewBuilder(threshold float64, topK int) *Builder {
	if threshold <= 0 {
		threshold = 0.75
	}
	if topK <= 0 {
		topK = 5
	}
	return &Builder{Threshold: threshold, TopK: topK}
}

// Build produces one node per embedded chunk and, per source chunk, directed
// links to its top K most similar peers above the threshold. Links are not
// symmetrized; a chunk inside another's top K need not have it inside its own.
func (b *Builder) Build(chunks []models.Chunk) ([]models.GraphNode, []models.GraphLink) {
	embedded := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) > 0 {
			embedded = append(embedded, c)
		}
	}

	nodes := make([]models.GraphNode, 0, len(embedded))
	for _, c := range embedded {
		nodes = append(nodes, models.GraphNode{
			ChunkID:      c.ChunkID,
			DocumentID:   c.DocumentID,
			ProjectID:    c.ProjectID,
			Label:        nodeLabel(c),
			Group:        nodeGroup(c),
			Significance: nodeSignificance(c),
		})
	}

	var links []models.GraphLink
	for i, src := range embedded {
		type cand struct {
			idx int
			sim float64
		}
		var cands []cand
		for j, dst := range embedded {
			if i == j {
				continue
			}
			sim := Cosine(src.Embedding, dst.Embedding)
			if sim >= b.Threshold {
				cands = append(cands, cand{idx: j, sim: sim})
			}
		}
		sort.Slice(cands, func(x, y int) bool {
			if cands[x].sim == cands[y].sim {
				return embedded[cands[x].idx].ChunkID < embedded[cands[y].idx].ChunkID
			}
			return cands[x].sim > cands[y].sim
		})
		if len(cands) > b.TopK {
			cands = cands[:b.TopK]
		}
		for _, c := range cands {
			links = append(links, models.GraphLink{
				SourceChunkID: src.ChunkID,
				TargetChunkID: embedded[c.idx].ChunkID,
				ProjectID:     src.ProjectID,
				Similarity:    c.sim,
				Relationship:  "similar",
			})
		}
	}
	return nodes, links
}

// nodeLabel prefers the document title, then the first heading, then the
// snippet, then the leading content.
func nodeLabel(c models.Chunk) string {
	if t := strings.TrimSpace(c.Metadata.DocTitle); t != "" && !isPlaceholderTitle(t) {
		return t
	}
	if len(c.Metadata.Headings) > 0 {
		if h := strings.TrimSpace(c.Metadata.Headings[0]); h != "" {
			return h
		}
	}
	if s := strings.TrimSpace(c.Metadata.Snippet); s != "" {
		return s
	}
	return leadingRunes(c.Content, 60)
}

func nodeGroup(c models.Chunk) string {
	if len(c.Metadata.Topics) > 0 {
		if t := strings.TrimSpace(c.Metadata.Topics[0]); t != "" {
			return t
		}
	}
	if a := strings.TrimSpace(c.Metadata.DocAuthor); a != "" {
		return a
	}
	return "Unknown"
}

func nodeSignificance(c models.Chunk) float64 {
	return math.Max(1, math.Log10(float64(c.Metadata.NumTokens)+1))
}

func isPlaceholderTitle(t string) bool {
	switch strings.ToLower(t) {
	case "untitled", "unknown", "document", "n/a":
		return true
	}
	return false
}

func leadingRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
