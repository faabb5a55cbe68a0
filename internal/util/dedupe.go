package util

// DeduplicateBy keeps the first occurrence of each key, preserving input
// order. Both the hybrid retriever and the chat context assembler merge
// result lists through this one function, so there is exactly one merge
// policy: earlier entries win.
func DeduplicateBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}
