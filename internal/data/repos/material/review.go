package material

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type ReviewRepo interface {
	Create(dbc dbctx.Context, reviews []*types.Review) ([]*types.Review, error)
	GetByID(dbc dbctx.Context, reviewID uuid.UUID) (*types.Review, error)
	Exists(dbc dbctx.Context, userID, materialID uuid.UUID) (bool, error)
	ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Review, error)
	DeleteByIDs(dbc dbctx.Context, reviewIDs []uuid.UUID) error
	DeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	repoLog := baseLog.With("repo", "ReviewRepo")
	return &reviewRepo{db: db, log: repoLog}
}

func (rr *reviewRepo) Create(dbc dbctx.Context, reviews []*types.Review) ([]*types.Review, error) {
	if len(reviews) == 0 {
		return []*types.Review{}, nil
	}
	for _, r := range reviews {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
	}
	if err := dbc.DB(rr.db).Create(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (rr *reviewRepo) GetByID(dbc dbctx.Context, reviewID uuid.UUID) (*types.Review, error) {
	var results []*types.Review
	if err := dbc.DB(rr.db).Where("id = ?", reviewID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *reviewRepo) Exists(dbc dbctx.Context, userID, materialID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(rr.db).
		Model(&types.Review{}).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *reviewRepo) ListByMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Review, error) {
	var results []*types.Review
	if err := dbc.DB(rr.db).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *reviewRepo) DeleteByIDs(dbc dbctx.Context, reviewIDs []uuid.UUID) error {
	if len(reviewIDs) == 0 {
		return nil
	}
	return dbc.DB(rr.db).Where("id IN ?", reviewIDs).Delete(&types.Review{}).Error
}

func (rr *reviewRepo) DeleteByMaterialIDs(dbc dbctx.Context, materialIDs []uuid.UUID) error {
	if len(materialIDs) == 0 {
		return nil
	}
	return dbc.DB(rr.db).Where("material_id IN ?", materialIDs).Delete(&types.Review{}).Error
}
