package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

const (
	maxMaterialBytes   = 512 << 20
	maxTranscriptBytes = 5 << 20
)

type MaterialInput struct {
	Name        string
	Description string
	Duration    string
	File        *FileUpload
	Transcript  *FileUpload
}

type MaterialUpdate struct {
	Name        *string
	Description *string
	Duration    *string
	File        *FileUpload
	Transcript  *FileUpload
}

type MaterialService interface {
	Create(ctx context.Context, weekID uuid.UUID, in MaterialInput) (*types.Material, error)
	Get(ctx context.Context, materialID uuid.UUID) (*types.Material, error)
	Update(ctx context.Context, materialID uuid.UUID, in MaterialUpdate) (*types.Material, error)
	Delete(ctx context.Context, materialID uuid.UUID) error
}

type materialService struct {
	db        *gorm.DB
	log       *logger.Logger
	materials repos.MaterialRepo
	owner     *ownership
	cascade   *cascader
	bucket    gcp.BucketService
}

func NewMaterialService(db *gorm.DB, log *logger.Logger, r repos.Set, bucket gcp.BucketService) MaterialService {
	return &materialService{
		db:        db,
		log:       log.With("service", "MaterialService"),
		materials: r.Material,
		owner:     newOwnership(r),
		cascade:   newCascader(r),
		bucket:    bucket,
	}
}

func parseDuration(raw string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		return 0, apierr.BadRequest("Duration must be a non-negative integer")
	}
	return d, nil
}

// checkMaterialFile returns the lower-cased extension of an acceptable upload.
func checkMaterialFile(f *FileUpload) (string, error) {
	if f == nil || f.Reader == nil {
		return "", apierr.BadRequest("No file uploaded")
	}
	if strings.TrimSpace(f.Filename) == "" {
		return "", apierr.BadRequest("No selected file")
	}
	ext := types.FileExtension(f.Filename)
	if !types.AllowedMaterialExtensions[ext] {
		return "", apierr.BadRequest("File type not allowed")
	}
	return ext, nil
}

func materialFileKey(weekID, materialID uuid.UUID, ext string) string {
	return fmt.Sprintf("materials/%s/%s.%s", weekID, materialID, ext)
}

func transcriptKey(materialID uuid.UUID) string {
	return fmt.Sprintf("transcripts/%s.txt", materialID)
}

func (ms *materialService) put(ctx context.Context, key string, f *FileUpload, limit int64) error {
	data, err := readUpload(f, limit)
	if err != nil {
		return err
	}
	if err := ms.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func checkTranscriptFile(f *FileUpload) error {
	if types.FileExtension(f.Filename) != "txt" {
		return apierr.BadRequest("Transcript must be a txt file")
	}
	return nil
}

func (ms *materialService) Create(ctx context.Context, weekID uuid.UUID, in MaterialInput) (*types.Material, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	material := &types.Material{ID: uuid.New(), WeekID: weekID, Name: name, Description: sanitize.Text(in.Description)}

	var uploaded []objectRef
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, _, err := ms.owner.ownedWeek(dbc, weekID, rd.UserID, "Invalid week_id"); err != nil {
			return err
		}
		if blank(name, in.Duration) {
			return apierr.BadRequest(msgMissingFields)
		}
		duration, err := parseDuration(in.Duration)
		if err != nil {
			return err
		}
		material.Duration = duration

		taken, err := ms.materials.NameTaken(dbc, weekID, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check material name: %w", err)
		}
		if taken {
			return apierr.AlreadyExists("Material already exists")
		}
		ext, err := checkMaterialFile(in.File)
		if err != nil {
			return err
		}
		if in.Transcript.Present() {
			if err := checkTranscriptFile(in.Transcript); err != nil {
				return err
			}
		}

		material.FileType = ext
		material.FileKey = materialFileKey(weekID, material.ID, ext)
		if err := ms.put(ctx, material.FileKey, in.File, maxMaterialBytes); err != nil {
			return err
		}
		uploaded = append(uploaded, materialObjects(material.FileKey)...)
		material.FilePath = ms.bucket.GetPublicURL(gcp.BucketCategoryMaterial, material.FileKey)

		if in.Transcript.Present() {
			material.TranscriptKey = transcriptKey(material.ID)
			if err := ms.put(ctx, material.TranscriptKey, in.Transcript, maxTranscriptBytes); err != nil {
				return err
			}
			uploaded = append(uploaded, materialObjects(material.TranscriptKey)...)
			material.TranscriptPath = ms.bucket.GetPublicURL(gcp.BucketCategoryMaterial, material.TranscriptKey)
		}

		if _, err := ms.materials.Create(dbc, []*types.Material{material}); err != nil {
			return uniqueOr(err, "Material already exists", "create material")
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, ms.bucket, ms.log, uploaded)
		return nil, err
	}
	ms.log.Info("material created", "material_id", material.ID, "week_id", weekID, "file_type", material.FileType)
	return material, nil
}

func (ms *materialService) Get(ctx context.Context, materialID uuid.UUID) (*types.Material, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	return ms.owner.material(dbctx.Context{Ctx: ctx}, materialID)
}

func (ms *materialService) Update(ctx context.Context, materialID uuid.UUID, in MaterialUpdate) (*types.Material, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}

	var uploaded, replaced []objectRef
	var out *types.Material
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		m, err := ms.owner.ownedMaterial(dbc, materialID, rd.UserID)
		if err != nil {
			return err
		}
		fields := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apierr.BadRequest(msgMissingFields)
			}
			if name != m.Name {
				taken, err := ms.materials.NameTaken(dbc, m.WeekID, name, m.ID)
				if err != nil {
					return fmt.Errorf("check material name: %w", err)
				}
				if taken {
					return apierr.AlreadyExists("Material already exists")
				}
				fields["name"] = name
			}
		}
		if in.Description != nil {
			fields["description"] = sanitize.Text(*in.Description)
		}
		if in.Duration != nil {
			d, err := parseDuration(*in.Duration)
			if err != nil {
				return err
			}
			fields["duration"] = d
		}
		if in.File != nil {
			ext, err := checkMaterialFile(in.File)
			if err != nil {
				return err
			}
			// A new key per upload so a failed commit never clobbers the live file.
			key := fmt.Sprintf("materials/%s/%s-%s.%s", m.WeekID, m.ID, uuid.NewString()[:8], ext)
			if err := ms.put(ctx, key, in.File, maxMaterialBytes); err != nil {
				return err
			}
			uploaded = append(uploaded, materialObjects(key)...)
			replaced = append(replaced, materialObjects(m.FileKey)...)
			fields["file_key"] = key
			fields["file_type"] = ext
			fields["file_path"] = ms.bucket.GetPublicURL(gcp.BucketCategoryMaterial, key)
		}
		if in.Transcript.Present() {
			if err := checkTranscriptFile(in.Transcript); err != nil {
				return err
			}
			key := fmt.Sprintf("transcripts/%s-%s.txt", m.ID, uuid.NewString()[:8])
			if err := ms.put(ctx, key, in.Transcript, maxTranscriptBytes); err != nil {
				return err
			}
			uploaded = append(uploaded, materialObjects(key)...)
			replaced = append(replaced, materialObjects(m.TranscriptKey)...)
			fields["transcript_key"] = key
			fields["transcript_path"] = ms.bucket.GetPublicURL(gcp.BucketCategoryMaterial, key)
		}
		if err := ms.materials.Update(dbc, m.ID, fields); err != nil {
			return uniqueOr(err, "Material already exists", "update material")
		}
		out, err = ms.materials.GetByID(dbc, m.ID)
		return err
	})
	if err != nil {
		deleteObjects(ctx, ms.bucket, ms.log, uploaded)
		return nil, err
	}
	deleteObjects(ctx, ms.bucket, ms.log, replaced)
	return out, nil
}

func (ms *materialService) Delete(ctx context.Context, materialID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	var refs []objectRef
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		m, err := ms.owner.material(dbc, materialID)
		if err != nil {
			return err
		}
		if !rd.IsInstructor {
			return apierr.Forbidden(msgNotInstructor)
		}
		if _, _, err := ms.owner.ownedWeek(dbc, m.WeekID, rd.UserID, msgWeekNotFound); err != nil {
			return err
		}
		refs, err = ms.cascade.deleteMaterials(dbc, []*types.Material{m})
		return err
	})
	if err != nil {
		return err
	}
	deleteObjects(ctx, ms.bucket, ms.log, refs)
	return nil
}
