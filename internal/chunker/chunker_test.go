package chunker

import (
	"fmt"
	"strings"
	"testing"

	"docflow/internal/extract"
)

func TestAdaptiveParamsMonotonic(t *testing.T) {
	sizes := []int{0, 1_000, 10_000, 10_001, 50_000, 50_001, 200_000, 200_001, 1_000_000}
	prevSize, prevOverlap := 0, 0
	for _, total := range sizes {
		size, overlap := AdaptiveParams(total)
		if size < prevSize {
			t.Fatalf("chunk size decreased at totalChars=%d: %d < %d", total, size, prevSize)
		}
		if overlap < prevOverlap {
			t.Fatalf("overlap decreased at totalChars=%d: %d < %d", total, overlap, prevOverlap)
		}
		if size < MinChunkSize || size > MaxChunkSize {
			t.Fatalf("chunk size %d out of bounds", size)
		}
		if overlap < MinOverlap || overlap > MaxOverlap {
			t.Fatalf("overlap %d out of bounds", overlap)
		}
		if overlap >= size {
			t.Fatalf("overlap %d >= chunk size %d", overlap, size)
		}
		prevSize, prevOverlap = size, overlap
	}
}

func TestSplitEmptyPage(t *testing.T) {
	if got := Split("", 800, 100); got != nil {
		t.Fatalf("expected nil for empty page, got %d pieces", len(got))
	}
	if got := Split("   \n\t  ", 800, 100); got != nil {
		t.Fatalf("expected nil for whitespace page, got %d pieces", len(got))
	}
}

func TestSplitShortPageSinglePiece(t *testing.T) {
	text := "A short page that fits in one chunk."
	pieces := Split(text, 800, 100)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Text != text {
		t.Fatalf("piece text altered: %q", pieces[0].Text)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Paragraph %02d has some words in it that pad the text out.\n\n", i)
	}
	const size, overlap = 200, 50
	pieces := Split(b.String(), size, overlap)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if n := len([]rune(p.Text)); n > size {
			t.Errorf("piece %d has %d runes, chunk size is %d", i, n, size)
		}
	}
}

func TestSplitCarriesOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "paragraph%02d word word word word word word word\n\n", i)
	}
	const size, overlap = 300, 80
	pieces := Split(b.String(), size, overlap)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	first := []rune(pieces[0].Text)
	tail := strings.TrimSpace(string(first[len(first)-overlap:]))
	if !strings.HasPrefix(pieces[1].Text, tail) {
		t.Fatalf("second piece does not start with overlap tail %q:\n%q", tail, pieces[1].Text)
	}
}

func TestSplitTracksHeadings(t *testing.T) {
	var b strings.Builder
	b.WriteString("1. Introduction\n")
	for i := 0; i < 30; i++ {
		b.WriteString("Context sentence establishing the topic of the work.\n")
	}
	b.WriteString("\n2. Methods\n")
	for i := 0; i < 30; i++ {
		b.WriteString("Detail sentence describing what was actually done here.\n")
	}
	pieces := Split(b.String(), 400, 50)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	var sawIntro, sawMethods bool
	for _, p := range pieces {
		for _, h := range p.Headings {
			if h == "1. Introduction" {
				sawIntro = true
			}
			if h == "2. Methods" {
				sawMethods = true
			}
		}
	}
	if !sawIntro || !sawMethods {
		t.Fatalf("headings not tracked: intro=%v methods=%v", sawIntro, sawMethods)
	}
}

func TestIsHeading(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"# Overview", true},
		{"### Deep Section", true},
		{"2.1 Experimental Setup", true},
		{"3) Results", true},
		{"RELATED WORK", true},
		{"A normal sentence about the topic.", false},
		{"", false},
		{strings.Repeat("X", 81), false},
		{"IT", true},
		{"I", false},
	}
	for _, c := range cases {
		if got := IsHeading(c.line); got != c.want {
			t.Errorf("IsHeading(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestExtractSnippet(t *testing.T) {
	text := "Some preamble.\nAbstract: This work studies document pipelines.\nMore text."
	if got := ExtractSnippet(text); got != "This work studies document pipelines." {
		t.Fatalf("unexpected snippet: %q", got)
	}
	if got := ExtractSnippet("No marker anywhere in this text."); got != "" {
		t.Fatalf("expected empty snippet, got %q", got)
	}
	long := "Summary: " + strings.Repeat("w", 500)
	if got := ExtractSnippet(long); len([]rune(got)) > 200 {
		t.Fatalf("snippet not capped: %d runes", len([]rune(got)))
	}
}

func TestCountTokens(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Fatalf("empty text: got %d tokens", got)
	}
	// "word" is one 4-rune token; trailing period is one punctuation token.
	if got := CountTokens("word."); got != 2 {
		t.Fatalf("got %d tokens, want 2", got)
	}
	if got := CountTokens("internationalization"); got != 5 {
		t.Fatalf("got %d tokens, want 5", got)
	}
	short := CountTokens("a b c")
	long := CountTokens("a b c d e f g h")
	if long <= short {
		t.Fatalf("token count not increasing: %d <= %d", long, short)
	}
}

func TestBuildChunksNumberingContiguous(t *testing.T) {
	var long strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&long, "Sentence %02d fills the first page with enough material to force several chunks.\n\n", i)
	}
	res := extract.Result{
		Title:  "Sample Document",
		Author: "Jordan Writer",
		Pages: []extract.Page{
			{Number: 1, Text: long.String()},
			{Number: 2, Text: ""},
			{Number: 3, Text: "The closing page is short."},
		},
	}
	chunks := BuildChunks("proj-1", "doc-1", res)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkNumber != i+1 {
			t.Fatalf("chunk %d has number %d, want %d", i, c.ChunkNumber, i+1)
		}
		if c.ChunkID == "" {
			t.Fatalf("chunk %d has empty id", i)
		}
		if c.Metadata.DocTitle != "Sample Document" || c.Metadata.DocAuthor != "Jordan Writer" {
			t.Fatalf("chunk %d missing document metadata", i)
		}
		if c.Metadata.NumTokens <= 0 {
			t.Fatalf("chunk %d has no token count", i)
		}
	}
	last := chunks[len(chunks)-1]
	if last.Metadata.PageNumber != 3 {
		t.Fatalf("last chunk on page %d, want 3", last.Metadata.PageNumber)
	}
}

func TestBuildChunksEmptyPageYieldsNothing(t *testing.T) {
	res := extract.Result{Pages: []extract.Page{{Number: 1, Text: "   "}}}
	if chunks := BuildChunks("p", "d", res); len(chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestBuildChunksDeterministicIDs(t *testing.T) {
	res := extract.Result{Pages: []extract.Page{{Number: 1, Text: "Stable content for id derivation."}}}
	a := BuildChunks("p", "d", res)
	b := BuildChunks("p", "d", res)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected single chunks, got %d and %d", len(a), len(b))
	}
	if a[0].ChunkID != b[0].ChunkID {
		t.Fatalf("chunk ids differ across identical builds")
	}
}
