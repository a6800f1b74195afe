package ingestion

import "strings"

// SplitChunks splits text into overlapping windows of size characters with
// the given overlap. Windows advance by size-overlap, so consecutive chunks
// share their boundary text and no sentence is lost to a cut. Whitespace-only
// windows are discarded.
func SplitChunks(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	// Work in runes so multi-byte characters never get split.
	runes := []rune(text)
	step := size - overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
