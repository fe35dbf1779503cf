package material

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// MaterialDoubtCount is a material with the number of doubts raised on it.
type MaterialDoubtCount struct {
	MaterialID   uuid.UUID `json:"material_id"`
	MaterialName string    `json:"material_name"`
	WeekID       uuid.UUID `json:"week_id"`
	WeekName     string    `json:"week_name"`
	CourseID     uuid.UUID `json:"course_id"`
	CourseName   string    `json:"course_name"`
	DoubtsCount  int64     `json:"doubts_count"`
}

type DoubtRepo interface {
	Create(dbc dbctx.Context, doubts []*types.MaterialDoubt) ([]*types.MaterialDoubt, error)
	ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialDoubt, error)
	ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.MaterialDoubt, error)
	CountByCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]MaterialDoubtCount, error)
	DeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type doubtRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDoubtRepo(db *gorm.DB, baseLog *logger.Logger) DoubtRepo {
	repoLog := baseLog.With("repo", "DoubtRepo")
	return &doubtRepo{db: db, log: repoLog}
}

func (dr *doubtRepo) Create(dbc dbctx.Context, doubts []*types.MaterialDoubt) ([]*types.MaterialDoubt, error) {
	if len(doubts) == 0 {
		return []*types.MaterialDoubt{}, nil
	}
	for _, d := range doubts {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
	}
	if err := dbc.DB(dr.db).Create(&doubts).Error; err != nil {
		return nil, err
	}
	return doubts, nil
}

func (dr *doubtRepo) ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.MaterialDoubt, error) {
	var results []*types.MaterialDoubt
	if err := dbc.DB(dr.db).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *doubtRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.MaterialDoubt, error) {
	var results []*types.MaterialDoubt
	if err := dbc.DB(dr.db).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CountByCourses returns materials of the given courses that have doubts, most doubted first.
func (dr *doubtRepo) CountByCourses(dbc dbctx.Context, courseIDs []uuid.UUID) ([]MaterialDoubtCount, error) {
	results := []MaterialDoubtCount{}
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(dr.db).
		Table("material_doubt AS d").
		Select(`m.id AS material_id, m.name AS material_name, w.id AS week_id, w.name AS week_name,
			c.id AS course_id, c.name AS course_name, COUNT(d.id) AS doubts_count`).
		Joins("JOIN material AS m ON m.id = d.material_id").
		Joins("JOIN week AS w ON w.id = m.week_id").
		Joins("JOIN course AS c ON c.id = w.course_id").
		Where("c.id IN ?", courseIDs).
		Group("m.id, m.name, w.id, w.name, c.id, c.name").
		Having("COUNT(d.id) > 0").
		Order("doubts_count DESC, m.name ASC").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *doubtRepo) DeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
	if len(materialIDs) == 0 {
		return nil
	}
	return dbc.DB(dr.db).Where("material_id IN ?", materialIDs).Delete(&types.MaterialDoubt{}).Error
}
