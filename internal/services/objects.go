package services

import (
	"context"
	"strings"

	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type objectRef struct {
	category gcp.BucketCategory
	key      string
}

func materialObjects(keys ...string) []objectRef {
	out := make([]objectRef, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			out = append(out, objectRef{category: gcp.BucketCategoryMaterial, key: k})
		}
	}
	return out
}

// deleteObjects removes stored files after their rows are gone. Failures are only logged.
func deleteObjects(ctx context.Context, bucket gcp.BucketService, log *logger.Logger, refs []objectRef) {
	if bucket == nil || len(refs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range refs {
		if err := bucket.DeleteFile(ctx, r.category, r.key); err != nil {
			log.Warn("failed to delete stored object (ignored)", "category", r.category, "key", r.key, "error", err)
		}
	}
}
