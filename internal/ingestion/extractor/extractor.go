package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sparkonix11/Knowtopia/internal/observability"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

var (
	// ErrNeedsTranscript means the file is media; its text lives in the transcript.
	ErrNeedsTranscript = errors.New("media file has no inline text; use its transcript")
	ErrUnsupported     = errors.New("unsupported file type for text extraction")
	ErrNoText          = errors.New("no text could be extracted")
)

type ImageOCR interface {
	OCRImageBytes(ctx context.Context, img []byte) (string, error)
}

type DocumentOCR interface {
	ProcessBytes(ctx context.Context, mimeType string, data []byte) (string, error)
}

type Extractor struct {
	log    *logger.Logger
	vision ImageOCR
	docAI  DocumentOCR

	MaxBytes     int
	ChunkSize    int
	ChunkOverlap int
}

// New accepts nil OCR backends; the matching file types then fail with ErrUnsupported.
func New(log *logger.Logger, vision ImageOCR, docAI DocumentOCR) *Extractor {
	return &Extractor{
		log:          log.With("component", "TextExtractor"),
		vision:       vision,
		docAI:        docAI,
		MaxBytes:     50 * 1024 * 1024,
		ChunkSize:    1200,
		ChunkOverlap: 200,
	}
}

// Extract returns the normalized text of a file.
func (e *Extractor) Extract(ctx context.Context, name, mime string, data []byte) (string, error) {
	kind := ClassifyKind(name, mime, data)
	text, err := e.extract(ctx, kind, name, mime, data)
	status := "ok"
	switch {
	case errors.Is(err, ErrNeedsTranscript):
		status = "transcript"
	case err != nil:
		status = "error"
	}
	observability.Current().IncExtraction(kind, status)
	if err != nil {
		return "", err
	}
	text = normalizeText(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (e *Extractor) extract(ctx context.Context, kind, name, mime string, data []byte) (string, error) {
	if len(data) == 0 && kind != KindVideo && kind != KindAudio {
		return "", ErrNoText
	}
	if e.MaxBytes > 0 && len(data) > e.MaxBytes {
		return "", fmt.Errorf("file too large for extraction: %d bytes", len(data))
	}

	switch kind {
	case KindText:
		return string(data), nil
	case KindHTML:
		return sanitize.HTMLToText(string(data)), nil
	case KindPDF:
		txt, err := pdfText(data)
		if err != nil {
			e.log.Debug("Native PDF extraction failed", "name", name, "error", err)
		}
		if strings.TrimSpace(txt) != "" {
			return txt, nil
		}
		if e.docAI == nil {
			if err != nil {
				return "", fmt.Errorf("pdf: %w", err)
			}
			return "", ErrNoText
		}
		e.log.Debug("Falling back to Document AI", "name", name)
		return e.docAI.ProcessBytes(ctx, "application/pdf", data)
	case KindDOCX:
		return docxText(data)
	case KindImage:
		if e.vision == nil {
			return "", ErrUnsupported
		}
		return e.vision.OCRImageBytes(ctx, data)
	case KindVideo, KindAudio:
		return "", ErrNeedsTranscript
	default:
		if looksLikeText(data) {
			return string(data), nil
		}
		return "", ErrUnsupported
	}
}

// Chunks splits text with the extractor's chunk settings.
func (e *Extractor) Chunks(text string) []string {
	return SplitIntoChunks(text, e.ChunkSize, e.ChunkOverlap)
}

// Excerpt keeps the leading chunks of text that fit in budget runes, separated by blank lines.
func (e *Extractor) Excerpt(text string, budget int) string {
	return strings.Join(LeadingChunks(e.Chunks(text), budget), "\n\n")
}
