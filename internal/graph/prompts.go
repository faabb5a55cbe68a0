package graph

import "fmt"

// relationshipPrompt asks the model to name the relationship between two
// passages with a single short label.
func relationshipPrompt(a, b string) string {
	return fmt.Sprintf(`Two passages from a document collection are semantically similar.

Passage A:
%s

Passage B:
%s

Reply with one short lowercase label describing how B relates to A, such as
"similar", "extends", "contrasts", "cites", or "background". Reply with the
label only.`, a, b)
}
