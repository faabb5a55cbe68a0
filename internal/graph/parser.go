package graph

import "strings"

// allowed relationship labels; anything else collapses to "similar".
var knownRelationships = map[string]struct{}{
	"similar":    {},
	"extends":    {},
	"contrasts":  {},
	"cites":      {},
	"background": {},
}

// parseRelationship normalizes a model reply into a known label.
func parseRelationship(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, ".\"'`")
	if i := strings.IndexAny(label, " \n\t"); i > 0 {
		label = label[:i]
	}
	if _, ok := knownRelationships[label]; ok {
		return label
	}
	return "similar"
}
