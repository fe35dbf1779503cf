package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// LocalPublicPrefix is the URL prefix the router serves local objects under.
const LocalPublicPrefix = "/uploads"

type localBucketService struct {
	log           *logger.Logger
	root          string
	publicBaseURL string
}

// NewLocalBucketService stores objects under root/<category>/<key>.
func NewLocalBucketService(log *logger.Logger, root, publicBaseURL string) (BucketService, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage dir: %w", err)
	}
	serviceLog := log.With("service", "BucketService")
	serviceLog.Info("Object storage initialized", "mode", ObjectStorageModeLocal, "dir", abs)
	return &localBucketService{
		log:           serviceLog,
		root:          abs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// LocalRoot reports the directory backing a local store, or "" for remote stores.
func LocalRoot(bs BucketService) string {
	if l, ok := bs.(*localBucketService); ok {
		return l.root
	}
	return ""
}

func (ls *localBucketService) Mode() ObjectStorageMode { return ObjectStorageModeLocal }

func (ls *localBucketService) objectPath(category BucketCategory, key string) (string, error) {
	switch category {
	case BucketCategoryAvatar, BucketCategoryMaterial:
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
	clean := path.Clean("/" + strings.TrimSpace(key))
	if clean == "/" {
		return "", fmt.Errorf("empty object key")
	}
	return filepath.Join(ls.root, string(category), filepath.FromSlash(clean)), nil
}

func (ls *localBucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	p, err := ls.objectPath(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close object: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (ls *localBucketService) DeleteFile(_ context.Context, category BucketCategory, key string) error {
	p, err := ls.objectPath(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (ls *localBucketService) DownloadFile(_ context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	p, err := ls.objectPath(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return f, nil
}

func (ls *localBucketService) GetPublicURL(category BucketCategory, key string) string {
	clean := strings.TrimLeft(path.Clean("/"+strings.TrimSpace(key)), "/")
	return fmt.Sprintf("%s%s/%s/%s", ls.publicBaseURL, LocalPublicPrefix, category, clean)
}

func (ls *localBucketService) GCSURI(BucketCategory, string) (string, bool) { return "", false }
