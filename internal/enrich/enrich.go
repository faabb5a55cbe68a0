package enrich

import (
	"sort"
	"strings"
	"unicode"
)

// Metadata is the enrichment derived from a chunk's text. All fields may be
// empty; enrichment is best-effort and never blocks ingestion.
type Metadata struct {
	Keywords []string
	Entities []string
	Topics   []string
}

const (
	maxKeywords = 8
	maxEntities = 8
	maxTopics   = 3
)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "from": {}, "by": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {}, "which": {},
	"can": {}, "will": {}, "would": {}, "should": {}, "could": {}, "may": {}, "not": {},
	"we": {}, "our": {}, "they": {}, "their": {}, "you": {}, "your": {}, "he": {}, "she": {},
	"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {}, "than": {}, "then": {},
	"also": {}, "into": {}, "over": {}, "such": {}, "other": {}, "more": {}, "most": {},
}

// Enrich derives keywords, entities and topics from chunk text with simple
// extraction heuristics. It never fails: unusable input yields empty slices.
func Enrich(text string) Metadata {
	text = strings.TrimSpace(text)
	if text == "" {
		return Metadata{}
	}
	keywords := extractKeywords(text)
	return Metadata{
		Keywords: keywords,
		Entities: extractEntities(text),
		Topics:   deriveTopics(keywords),
	}
}

// extractKeywords ranks lowercase terms by frequency, ties broken
// alphabetically for determinism.
func extractKeywords(text string) []string {
	freq := map[string]int{}
	for _, w := range tokenize(text) {
		w = strings.ToLower(w)
		if len(w) < 4 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		freq[w]++
	}
	terms := make([]string, 0, len(freq))
	for w := range freq {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] == freq[terms[j]] {
			return terms[i] < terms[j]
		}
		return freq[terms[i]] > freq[terms[j]]
	})
	if len(terms) > maxKeywords {
		terms = terms[:maxKeywords]
	}
	return terms
}

// extractEntities collects capitalized word sequences that are not sentence
// starts, a cheap proper-noun heuristic.
func extractEntities(text string) []string {
	words := strings.Fields(text)
	seen := map[string]struct{}{}
	out := make([]string, 0, maxEntities)
	var run []string

	flush := func() {
		if len(run) >= 2 || (len(run) == 1 && len(run[0]) >= 4) {
			name := strings.Join(run, " ")
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
		run = nil
	}

	prevEndedSentence := true
	for _, w := range words {
		clean := strings.Trim(w, ",.;:!?()[]{}\"'")
		if clean == "" {
			flush()
			prevEndedSentence = true
			continue
		}
		if prevEndedSentence {
			// Sentence boundaries always break a run, and the first word of a
			// sentence is capitalized regardless, so it never starts one.
			flush()
		}
		if capitalizedWord(clean) && !(prevEndedSentence && len(run) == 0) {
			run = append(run, clean)
		} else {
			flush()
		}
		prevEndedSentence = strings.ContainsAny(w, ".!?")
		if len(out) >= maxEntities {
			break
		}
	}
	flush()
	if len(out) > maxEntities {
		out = out[:maxEntities]
	}
	return out
}

// deriveTopics promotes the strongest keywords to topics.
func deriveTopics(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	n := maxTopics
	if len(keywords) < n {
		n = len(keywords)
	}
	topics := make([]string, n)
	copy(topics, keywords[:n])
	return topics
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func capitalizedWord(s string) bool {
	if isAllCapsWord(s) {
		return true
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsUpper(r) {
				return false
			}
			continue
		}
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isAllCapsWord(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}
