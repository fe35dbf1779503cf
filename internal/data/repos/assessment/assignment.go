package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(dbc dbctx.Context, assignments []*types.Assignment) ([]*types.Assignment, error)
	GetByID(dbc dbctx.Context, assignmentID uuid.UUID) (*types.Assignment, error)
	ListByWeekIDs(dbc dbctx.Context, weekIDs []uuid.UUID) ([]*types.Assignment, error)
	DeleteByIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	repoLog := baseLog.With("repo", "AssignmentRepo")
	return &assignmentRepo{db: db, log: repoLog}
}

func (ar *assignmentRepo) Create(dbc dbctx.Context, assignments []*types.Assignment) ([]*types.Assignment, error) {
	if len(assignments) == 0 {
		return []*types.Assignment{}, nil
	}
	for _, a := range assignments {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
	}
	if err := dbc.DB(ar.db).Omit("Questions").Create(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (ar *assignmentRepo) GetByID(dbc dbctx.Context, assignmentID uuid.UUID) (*types.Assignment, error) {
	var results []*types.Assignment
	if err := dbc.DB(ar.db).Where("id = ?", assignmentID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ar *assignmentRepo) ListByWeekIDs(dbc dbctx.Context, weekIDs []uuid.UUID) ([]*types.Assignment, error) {
	var results []*types.Assignment
	if len(weekIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(ar.db).
		Where("week_id IN ?", weekIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *assignmentRepo) DeleteByIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	return dbc.DB(ar.db).Where("id IN ?", assignmentIDs).Delete(&types.Assignment{}).Error
}
