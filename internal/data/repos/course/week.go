package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type WeekRepo interface {
	Create(dbc dbctx.Context, weeks []*types.Week) ([]*types.Week, error)
	GetByID(dbc dbctx.Context, weekID uuid.UUID) (*types.Week, error)
	ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Week, error)
	IDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error)
	NameTaken(dbc dbctx.Context, courseID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Update(dbc dbctx.Context, weekID uuid.UUID, fields map[string]any) error
	DeleteByIDs(dbc dbctx.Context, weekIDs []uuid.UUID) error
}

type weekRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeekRepo(db *gorm.DB, baseLog *logger.Logger) WeekRepo {
	repoLog := baseLog.With("repo", "WeekRepo")
	return &weekRepo{db: db, log: repoLog}
}

func (wr *weekRepo) Create(dbc dbctx.Context, weeks []*types.Week) ([]*types.Week, error) {
	if len(weeks) == 0 {
		return []*types.Week{}, nil
	}
	for _, w := range weeks {
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
	}
	if err := dbc.DB(wr.db).Omit("Materials", "Assignments").Create(&weeks).Error; err != nil {
		return nil, err
	}
	return weeks, nil
}

func (wr *weekRepo) GetByID(dbc dbctx.Context, weekID uuid.UUID) (*types.Week, error) {
	var results []*types.Week
	if err := dbc.DB(wr.db).Where("id = ?", weekID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (wr *weekRepo) ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Week, error) {
	var results []*types.Week
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(wr.db).
		Where("course_id IN ?", courseIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (wr *weekRepo) IDsByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(courseIDs) == 0 {
		return ids, nil
	}
	if err := dbc.DB(wr.db).
		Model(&types.Week{}).
		Where("course_id IN ?", courseIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (wr *weekRepo) NameTaken(dbc dbctx.Context, courseID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(wr.db).Model(&types.Week{}).Where("course_id = ? AND name = ?", courseID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (wr *weekRepo) Update(dbc dbctx.Context, weekID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(wr.db).Model(&types.Week{}).Where("id = ?", weekID).Updates(fields).Error
}

func (wr *weekRepo) DeleteByIDs(dbc dbctx.Context, weekIDs []uuid.UUID) error {
	if len(weekIDs) == 0 {
		return nil
	}
	return dbc.DB(wr.db).Where("id IN ?", weekIDs).Delete(&types.Week{}).Error
}
