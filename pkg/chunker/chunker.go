// Package chunker splits long documents into overlapping text windows
// suitable for embedding. Splitting is deterministic: the same input always
// yields the same chunk sequence.
package chunker

import "strings"

const (
	// DefaultTargetChars is the sliding window size.
	DefaultTargetChars = 1500
	// DefaultOverlapChars is how far consecutive windows overlap.
	DefaultOverlapChars = 200

	// boundarySearch is how far back from the window end a sentence
	// boundary is searched before falling back to a word boundary.
	boundarySearch = 100
)

// Split cuts text into overlapping windows of at most targetChars. Before
// cutting, the last boundarySearch characters of the window are scanned for
// a sentence end (punctuation followed by whitespace); failing that, the cut
// backs off to the nearest preceding space; failing that, it is a hard cut.
// Each chunk is trimmed and empty chunks are dropped.
//
// Precondition: overlapChars < targetChars. Larger overlaps are a caller
// configuration error and are not defended against here.
func Split(text string, targetChars, overlapChars int) []string {
	if len(text) <= targetChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + targetChars
		if end < len(text) {
			searchStart := end - boundarySearch
			if searchStart < start {
				searchStart = start
			}
			if cut := sentenceBreak(text[searchStart:end]); cut >= 0 {
				end = searchStart + cut + 1
			} else if lastSpace := strings.LastIndex(text[:end+1], " "); lastSpace > start {
				end = lastSpace
			}
		} else {
			end = len(text)
		}

		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}
		if end == len(text) {
			break
		}

		// Overlap the next window, but always make forward progress so
		// pathological input (no spaces at all) cannot loop forever.
		next := end - overlapChars
		if next < start+1 {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// SplitDefault applies the default window and overlap sizes.
func SplitDefault(text string) []string {
	return Split(text, DefaultTargetChars, DefaultOverlapChars)
}

// sentenceBreak returns the index of the first sentence-ending punctuation
// mark that is followed by whitespace, or -1.
func sentenceBreak(window string) int {
	for i := 0; i+1 < len(window); i++ {
		switch window[i] {
		case '.', '!', '?':
			if isSpace(window[i+1]) {
				return i
			}
		}
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
