package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/ingestion/extractor"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// materialTexter turns a stored material into plain text.
type materialTexter struct {
	log       *logger.Logger
	bucket    gcp.BucketService
	extractor *extractor.Extractor
}

// Text prefers the transcript for videos and extracts the file otherwise.
func (mt *materialTexter) Text(ctx context.Context, m *types.Material) (string, error) {
	if m.IsVideo() {
		if m.TranscriptKey == "" {
			return "", extractor.ErrNeedsTranscript
		}
		text, err := readObjectText(ctx, mt.bucket, m.TranscriptKey, maxTranscriptBytes)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", extractor.ErrNoText
		}
		return text, nil
	}

	rc, err := mt.bucket.DownloadFile(ctx, gcp.BucketCategoryMaterial, m.FileKey)
	if err != nil {
		return "", fmt.Errorf("download material: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(mt.extractor.MaxBytes)))
	if err != nil {
		return "", fmt.Errorf("read material: %w", err)
	}
	text, err := mt.extractor.Extract(ctx, m.FileKey, gcp.ContentTypeForKey(m.FileKey), data)
	if err != nil && m.TranscriptKey != "" && errors.Is(err, extractor.ErrNoText) {
		return readObjectText(ctx, mt.bucket, m.TranscriptKey, maxTranscriptBytes)
	}
	return text, err
}
