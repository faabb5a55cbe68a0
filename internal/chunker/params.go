package chunker

// Chunk sizing bounds. Larger documents get larger chunks and overlaps so a
// huge upload does not explode into thousands of tiny chunks, and a short one
// is not under-segmented.
const (
	MinChunkSize = 800
	MaxChunkSize = 2000
	MinOverlap   = 100
	MaxOverlap   = 300
)

// AdaptiveParams maps total document length to (chunkSize, chunkOverlap).
// The mapping is a monotonic step function: doubling totalChars never
// decreases chunkSize.
func AdaptiveParams(totalChars int) (int, int) {
	switch {
	case totalChars <= 10_000:
		return MinChunkSize, MinOverlap
	case totalChars <= 50_000:
		return 1200, 200
	case totalChars <= 200_000:
		return 1600, 240
	default:
		return MaxChunkSize, MaxOverlap
	}
}
