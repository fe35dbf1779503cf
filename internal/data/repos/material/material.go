package material

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, materials []*types.Material) ([]*types.Material, error)
	GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.Material, error)
	GetByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.Material, error)
	ListByWeekIDs(dbc dbctx.Context, weekIDs []uuid.UUID) ([]*types.Material, error)
	NameTaken(dbc dbctx.Context, weekID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
	Update(dbc dbctx.Context, materialID uuid.UUID, fields map[string]any) error
	DeleteByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (mr *materialRepo) Create(dbc dbctx.Context, materials []*types.Material) ([]*types.Material, error) {
	if len(materials) == 0 {
		return []*types.Material{}, nil
	}
	for _, m := range materials {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	if err := dbc.DB(mr.db).Create(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}

func (mr *materialRepo) GetByID(dbc dbctx.Context, materialID uuid.UUID) (*types.Material, error) {
	var results []*types.Material
	if err := dbc.DB(mr.db).Where("id = ?", materialID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (mr *materialRepo) GetByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) ([]*types.Material, error) {
	var results []*types.Material
	if len(materialIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(mr.db).Where("id IN ?", materialIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *materialRepo) ListByWeekIDs(dbc dbctx.Context, weekIDs []uuid.UUID) ([]*types.Material, error) {
	var results []*types.Material
	if len(weekIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(mr.db).
		Where("week_id IN ?", weekIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *materialRepo) NameTaken(dbc dbctx.Context, weekID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(mr.db).Model(&types.Material{}).Where("week_id = ? AND name = ?", weekID, name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (mr *materialRepo) Update(dbc dbctx.Context, materialID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(mr.db).Model(&types.Material{}).Where("id = ?", materialID).Updates(fields).Error
}

func (mr *materialRepo) DeleteByIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
	if len(materialIDs) == 0 {
		return nil
	}
	return dbc.DB(mr.db).Where("id IN ?", materialIDs).Delete(&types.Material{}).Error
}
