package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

var errTranscriptionUnavailable = apierr.New(http.StatusInternalServerError, "transcription_unavailable", errors.New("Transcription is not configured"))

type TranscriptService interface {
	// Generate transcribes a video material and stores the text next to it.
	Generate(ctx context.Context, materialID uuid.UUID) (*types.Material, string, error)
	Get(ctx context.Context, materialID uuid.UUID) (string, error)
}

type transcriptService struct {
	db        *gorm.DB
	log       *logger.Logger
	materials repos.MaterialRepo
	owner     *ownership
	bucket    gcp.BucketService
	video     gcp.Video
	speech    gcp.Speech
}

// NewTranscriptService accepts nil video or speech clients; the matching path then reports unavailable.
func NewTranscriptService(db *gorm.DB, log *logger.Logger, r repos.Set, bucket gcp.BucketService, video gcp.Video, speech gcp.Speech) TranscriptService {
	return &transcriptService{
		db:        db,
		log:       log.With("service", "TranscriptService"),
		materials: r.Material,
		owner:     newOwnership(r),
		bucket:    bucket,
		video:     video,
		speech:    speech,
	}
}

func (ts *transcriptService) Generate(ctx context.Context, materialID uuid.UUID) (*types.Material, string, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, "", err
	}
	m, err := ts.owner.ownedMaterial(dbctx.Context{Ctx: ctx}, materialID, rd.UserID)
	if err != nil {
		return nil, "", err
	}
	if !m.IsVideo() {
		return nil, "", apierr.BadRequest("Transcripts can only be generated for video materials")
	}

	res, err := ts.transcribe(ctx, m)
	if err != nil {
		return nil, "", err
	}
	text := strings.TrimSpace(res.PrimaryText)
	if text == "" {
		return nil, "", apierr.BadRequest("No speech found in video")
	}

	key := fmt.Sprintf("transcripts/%s-%s.txt", m.ID, uuid.NewString()[:8])
	if err := ts.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, key, strings.NewReader(text)); err != nil {
		return nil, "", fmt.Errorf("upload transcript: %w", err)
	}
	oldKey := m.TranscriptKey

	var out *types.Material
	err = ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ts.materials.Update(dbc, m.ID, map[string]any{
			"transcript_key":  key,
			"transcript_path": ts.bucket.GetPublicURL(gcp.BucketCategoryMaterial, key),
		}); err != nil {
			return fmt.Errorf("update material transcript: %w", err)
		}
		out, err = ts.materials.GetByID(dbc, m.ID)
		return err
	})
	if err != nil {
		deleteObjects(ctx, ts.bucket, ts.log, materialObjects(key))
		return nil, "", err
	}
	deleteObjects(ctx, ts.bucket, ts.log, materialObjects(oldKey))
	ts.log.Info("transcript generated", "material_id", m.ID, "provider", res.Provider, "segments", len(res.Segments))
	return out, text, nil
}

func (ts *transcriptService) transcribe(ctx context.Context, m *types.Material) (*gcp.TranscriptResult, error) {
	if uri, ok := ts.bucket.GCSURI(gcp.BucketCategoryMaterial, m.FileKey); ok && ts.video != nil {
		res, err := ts.video.TranscribeGCS(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("video transcription: %w", err)
		}
		return res, nil
	}
	if ts.speech == nil {
		return nil, errTranscriptionUnavailable
	}
	rc, err := ts.bucket.DownloadFile(ctx, gcp.BucketCategoryMaterial, m.FileKey)
	if err != nil {
		return nil, fmt.Errorf("download material: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxMaterialBytes))
	if err != nil {
		return nil, fmt.Errorf("read material: %w", err)
	}
	res, err := ts.speech.TranscribeAudio(ctx, data, gcp.ContentTypeForKey(m.FileKey))
	if err != nil {
		return nil, fmt.Errorf("speech transcription: %w", err)
	}
	return res, nil
}

func (ts *transcriptService) Get(ctx context.Context, materialID uuid.UUID) (string, error) {
	if _, err := requestUser(ctx); err != nil {
		return "", err
	}
	m, err := ts.owner.material(dbctx.Context{Ctx: ctx}, materialID)
	if err != nil {
		return "", err
	}
	if m.TranscriptKey == "" {
		return "", apierr.NotFound("Transcript not found")
	}
	return readObjectText(ctx, ts.bucket, m.TranscriptKey, maxTranscriptBytes)
}

func readObjectText(ctx context.Context, bucket gcp.BucketService, key string, limit int64) (string, error) {
	rc, err := bucket.DownloadFile(ctx, gcp.BucketCategoryMaterial, key)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(b), nil
}
