package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docflow/internal/providers"
	"docflow/internal/util"

	"github.com/ledongthuc/pdf"
)

// Page is one parsed page of a source document. OCRUsed marks pages whose
// text came from the OCR fallback rather than the embedded text layer.
type Page struct {
	Number  int    `json:"number"`
	Text    string `json:"text"`
	OCRUsed bool   `json:"ocr_used,omitempty"`
}

type Result struct {
	Pages  []Page `json:"pages"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
}

// Extractor turns stored PDF bytes into ordered page texts, falling back to
// OCR for pages whose embedded text layer is missing or too short.
type Extractor struct {
	ocr         providers.OCRClient
	minPageText int
	log         *slog.Logger
}

func New(ocr providers.OCRClient, minPageText int, log *slog.Logger) *Extractor {
	if minPageText <= 0 {
		minPageText = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{ocr: ocr, minPageText: minPageText, log: log}
}

func (e *Extractor) Extract(ctx context.Context, documentID string, data []byte) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]Page, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		text := ""
		if !p.V.IsNull() {
			extracted, err := p.GetPlainText(nil)
			if err != nil {
				e.log.Warn("page text extraction failed", "document_id", documentID, "page", i, "stage", "extract", "error", err)
			} else {
				text = extracted
			}
		}
		pages = append(pages, Page{Number: i, Text: util.SanitizeText(text)})
	}

	pages = e.applyOCRFallback(ctx, documentID, data, pages)

	title, author := embeddedTitleAuthor(r)
	if title == "" || author == "" {
		t, a := detectTitleAuthor(pages)
		if title == "" {
			title = t
		}
		if author == "" {
			author = a
		}
	}

	if !anyContent(pages) {
		return Result{}, util.ErrNoExtractableText
	}
	return Result{Pages: pages, Title: title, Author: author}, nil
}

// applyOCRFallback re-extracts too-short pages through OCR. OCR failures are
// logged and the page keeps whatever text it had, empty allowed.
func (e *Extractor) applyOCRFallback(ctx context.Context, documentID string, data []byte, pages []Page) []Page {
	if e.ocr == nil {
		return pages
	}
	for i := range pages {
		if !needsOCR(pages[i].Text, e.minPageText) {
			continue
		}
		text, err := e.ocr.RecognizePage(ctx, data, pages[i].Number)
		if err != nil {
			e.log.Warn("ocr failed", "document_id", documentID, "page", pages[i].Number, "stage", "ocr", "error", err)
			continue
		}
		text = util.SanitizeText(text)
		if text == "" {
			continue
		}
		pages[i].Text = text
		pages[i].OCRUsed = true
	}
	return pages
}

func needsOCR(text string, minChars int) bool {
	return len([]rune(strings.TrimSpace(text))) < minChars
}

func anyContent(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

func embeddedTitleAuthor(r *pdf.Reader) (string, string) {
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return "", ""
	}
	title := util.SanitizeText(info.Key("Title").RawString())
	author := util.SanitizeText(info.Key("Author").RawString())
	return title, author
}

// detectTitleAuthor pattern-matches Title:/Author: lines on the first page
// with content, falling back to the first two non-empty lines.
func detectTitleAuthor(pages []Page) (string, string) {
	var first string
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			first = p.Text
			break
		}
	}
	if first == "" {
		return "", ""
	}

	title := ""
	author := ""
	nonEmpty := make([]string, 0, 4)
	for _, line := range strings.Split(first, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)
		if title == "" && strings.HasPrefix(low, "title:") {
			title = strings.TrimSpace(line[len("title:"):])
			continue
		}
		if author == "" && strings.HasPrefix(low, "author:") {
			author = strings.TrimSpace(line[len("author:"):])
			continue
		}
		if len(nonEmpty) < 4 {
			nonEmpty = append(nonEmpty, line)
		}
	}
	if title == "" && len(nonEmpty) > 0 {
		title = nonEmpty[0]
	}
	if author == "" && len(nonEmpty) > 1 {
		author = nonEmpty[1]
	}
	return title, author
}
