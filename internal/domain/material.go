package domain

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AllowedMaterialExtensions is the set of uploadable material file types.
var AllowedMaterialExtensions = map[string]bool{
	"pdf": true,
	"mp4": true,
	"jpg": true,
	"png": true,
	"txt": true,
}

// FileExtension returns the lower-cased extension of name without the dot.
func FileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(strings.TrimSpace(name)), "."))
}

type Material struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WeekID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_material_week_name,priority:1;column:week_id" json:"week_id"`
	Name           string    `gorm:"not null;uniqueIndex:idx_material_week_name,priority:2;column:name" json:"name"`
	Description    string    `gorm:"column:description" json:"description"`
	Duration       int       `gorm:"not null;default:0;column:duration" json:"duration"`
	FilePath       string    `gorm:"column:file_path" json:"file_path"`
	FileKey        string    `gorm:"column:file_key" json:"-"`
	FileType       string    `gorm:"column:file_type" json:"file_type"`
	TranscriptPath string    `gorm:"column:transcript_path" json:"transcript_path,omitempty"`
	TranscriptKey  string    `gorm:"column:transcript_key" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Material) TableName() string { return "material" }

func (m *Material) IsVideo() bool { return m != nil && m.FileType == "mp4" }

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_material,priority:1;column:user_id" json:"user_id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_material,priority:2;index;column:material_id" json:"material_id"`
	Rating     int       `gorm:"not null;column:rating" json:"rating"`
	Comment    string    `gorm:"not null;column:comment" json:"comment"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Review) TableName() string { return "review" }

type MaterialDoubt struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index;column:material_id" json:"material_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	DoubtText  string    `gorm:"not null;column:doubt_text" json:"doubt_text"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MaterialDoubt) TableName() string { return "material_doubt" }
