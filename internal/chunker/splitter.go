package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

// Piece is one produced chunk of a page with the headings detected in its
// span. Chunk numbering and metadata enrichment happen in the builder.
type Piece struct {
	Text     string
	Headings []string
}

var (
	numberedHeading = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)
	markdownHeading = regexp.MustCompile(`^#{1,6}\s+\S`)
	snippetMarker   = regexp.MustCompile(`(?mi)^(?:abstract|summary|tl;dr)\s*[:.]\s*(\S.*)$`)
)

// Split divides one page of text into overlapping pieces. It is hierarchical:
// structural blocks (headings, paragraph breaks) are found first, then blocks
// are greedily packed into windows of about chunkSize runes with
// chunkOverlap runes carried between consecutive windows. Heading context is
// preserved on each piece.
func Split(pageText string, chunkSize, chunkOverlap int) []Piece {
	pageText = strings.TrimSpace(pageText)
	if pageText == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = MinChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}

	if len([]rune(pageText)) <= chunkSize {
		return []Piece{{Text: pageText, Headings: headingsIn(pageText)}}
	}

	blocks := structuralBlocks(pageText)
	pieces := make([]Piece, 0, 4)
	var window []rune
	var headings []string

	flush := func() {
		text := strings.TrimSpace(string(window))
		if text == "" {
			return
		}
		pieces = append(pieces, Piece{Text: text, Headings: dedupeStrings(headings)})
		if chunkOverlap > 0 && len(window) > chunkOverlap {
			tail := make([]rune, chunkOverlap)
			copy(tail, window[len(window)-chunkOverlap:])
			window = tail
		} else {
			window = nil
		}
		headings = nil
	}

	for _, b := range blocks {
		if b.heading != "" {
			headings = append(headings, b.heading)
		}
		runes := []rune(b.text)
		if len(runes) > chunkSize {
			// Oversized block: emit what we have, then hard-split the block.
			flush()
			window = nil
			for _, part := range hardSplit(runes, chunkSize, chunkOverlap) {
				pieces = append(pieces, Piece{Text: part, Headings: dedupeStrings(append([]string{}, headings...))})
			}
			headings = nil
			continue
		}
		if len(window) > 0 && len(window)+1+len(runes) > chunkSize {
			flush()
		}
		if len(window) > 0 {
			window = append(window, '\n')
		}
		window = append(window, runes...)
	}
	flush()
	return pieces
}

type block struct {
	heading string
	text    string
}

// structuralBlocks splits text on headings and paragraph breaks, keeping the
// heading line attached to the block that starts it.
func structuralBlocks(text string) []block {
	lines := strings.Split(text, "\n")
	blocks := make([]block, 0, 8)
	var cur strings.Builder
	curHeading := ""

	emit := func() {
		t := strings.TrimSpace(cur.String())
		if t != "" {
			blocks = append(blocks, block{heading: curHeading, text: t})
		}
		cur.Reset()
		curHeading = ""
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emit()
			continue
		}
		if IsHeading(trimmed) {
			emit()
			curHeading = trimmed
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(trimmed)
	}
	emit()
	return blocks
}

func hardSplit(runes []rune, chunkSize, overlap int) []string {
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	out := make([]string, 0)
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// IsHeading reports whether a trimmed line looks like a section heading:
// markdown hashes, numbered sections, or short all-caps lines.
func IsHeading(line string) bool {
	if line == "" || len([]rune(line)) > 80 {
		return false
	}
	if markdownHeading.MatchString(line) || numberedHeading.MatchString(line) {
		return true
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

func headingsIn(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if IsHeading(line) {
			out = append(out, line)
		}
	}
	return dedupeStrings(out)
}

// ExtractSnippet pulls the abstract/summary line from a span when one is
// marked, used as a display snippet and graph label fallback.
func ExtractSnippet(text string) string {
	m := snippetMarker.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	s := strings.TrimSpace(m[1])
	runes := []rune(s)
	if len(runes) > 200 {
		s = strings.TrimSpace(string(runes[:200]))
	}
	return s
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
