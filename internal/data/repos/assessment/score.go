package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type ScoreRepo interface {
	Create(dbc dbctx.Context, scores []*types.Score) ([]*types.Score, error)
	GetByStudentAndAssignment(dbc dbctx.Context, studentID, assignmentID uuid.UUID) (*types.Score, error)
	ListByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) ([]*types.Score, error)
	DeleteByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error
}

type scoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScoreRepo(db *gorm.DB, baseLog *logger.Logger) ScoreRepo {
	repoLog := baseLog.With("repo", "ScoreRepo")
	return &scoreRepo{db: db, log: repoLog}
}

func (sr *scoreRepo) Create(dbc dbctx.Context, scores []*types.Score) ([]*types.Score, error) {
	if len(scores) == 0 {
		return []*types.Score{}, nil
	}
	for _, s := range scores {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := dbc.DB(sr.db).Create(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (sr *scoreRepo) GetByStudentAndAssignment(dbc dbctx.Context, studentID, assignmentID uuid.UUID) (*types.Score, error) {
	var results []*types.Score
	if err := dbc.DB(sr.db).
		Where("student_id = ? AND assignment_id = ?", studentID, assignmentID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (sr *scoreRepo) ListByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) ([]*types.Score, error) {
	var results []*types.Score
	if len(assignmentIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(sr.db).
		Where("assignment_id IN ?", assignmentIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *scoreRepo) DeleteByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	return dbc.DB(sr.db).Where("assignment_id IN ?", assignmentIDs).Delete(&types.Score{}).Error
}
