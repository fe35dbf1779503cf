package extractor

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	KindText    = "text"
	KindHTML    = "html"
	KindPDF     = "pdf"
	KindDOCX    = "docx"
	KindImage   = "image"
	KindVideo   = "video"
	KindAudio   = "audio"
	KindUnknown = "unknown"
)

func ClassifyKind(name, mime string, head []byte) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case strings.HasPrefix(m, "video/") || ext == ".mp4" || ext == ".mov" || ext == ".webm":
		return KindVideo
	case strings.HasPrefix(m, "audio/") || ext == ".mp3" || ext == ".wav" || ext == ".flac" || ext == ".ogg":
		return KindAudio
	case strings.HasPrefix(m, "image/") || ext == ".png" || ext == ".jpg" || ext == ".jpeg":
		return KindImage
	case m == "application/pdf" || ext == ".pdf" || isPDFHeader(head):
		return KindPDF
	case ext == ".docx" || strings.Contains(m, "wordprocessingml"):
		return KindDOCX
	case m == "text/html" || ext == ".html" || ext == ".htm":
		return KindHTML
	case strings.HasPrefix(m, "text/") || m == "application/json" ||
		ext == ".txt" || ext == ".md" || ext == ".csv" || ext == ".json":
		return KindText
	default:
		return KindUnknown
	}
}

func isPDFHeader(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

// looksLikeText reports whether more than 90% of the runes are printable.
func looksLikeText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	printable, total := 0, 0
	for _, r := range string(data) {
		total++
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			printable++
		}
	}
	return total > 0 && float64(printable)/float64(total) > 0.90
}

// normalizeText repairs UTF-8 and collapses runs of spaces inside each line.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, " ")
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
