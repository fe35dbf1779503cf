package extractor

import (
	"strings"
	"unicode/utf8"
)

// SplitIntoChunks cuts text into windows of size runes that overlap by overlap runes.
// Cuts prefer the last whitespace inside the window.
func SplitIntoChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > size/2 {
			end = start + cut
		}
		if c := strings.TrimSpace(string(runes[start:end])); c != "" {
			chunks = append(chunks, c)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' || r[i] == '\n' || r[i] == '\t' {
			return i
		}
	}
	return -1
}

// LeadingChunks returns chunks from the start while their total length stays within
// budget runes. The first chunk is always kept, cut down to budget if it is longer.
func LeadingChunks(chunks []string, budget int) []string {
	if len(chunks) == 0 || budget <= 0 {
		return chunks
	}
	out := []string{Truncate(chunks[0], budget)}
	used := utf8.RuneCountInString(out[0])
	for _, c := range chunks[1:] {
		n := utf8.RuneCountInString(c)
		if used+n > budget {
			break
		}
		out = append(out, c)
		used += n
	}
	return out
}

// Truncate keeps at most max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
