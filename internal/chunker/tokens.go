package chunker

import "strings"

// CountTokens approximates the subword token count of a text span. It is
// deterministic: one token per run of up to four runes within a word, plus
// one per punctuation cluster, which tracks the ~4 chars/token budget of the
// embedding and chat models closely enough for prompt-length accounting.
func CountTokens(text string) int {
	total := 0
	for _, field := range strings.Fields(text) {
		word, punct := splitTrailingPunct(field)
		if n := len([]rune(word)); n > 0 {
			total += (n + 3) / 4
		}
		if punct > 0 {
			total++
		}
	}
	return total
}

func splitTrailingPunct(field string) (string, int) {
	runes := []rune(field)
	punct := 0
	for len(runes) > 0 {
		last := runes[len(runes)-1]
		if strings.ContainsRune(".,;:!?()[]{}\"'", last) {
			punct++
			runes = runes[:len(runes)-1]
			continue
		}
		break
	}
	return string(runes), punct
}
