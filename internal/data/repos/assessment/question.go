package assessment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.Question, error)
	ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.Question, error)
	DeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error
	DeleteByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (qr *questionRepo) Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := dbc.DB(qr.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (qr *questionRepo) GetByID(dbc dbctx.Context, questionID uuid.UUID) (*types.Question, error) {
	var results []*types.Question
	if err := dbc.DB(qr.db).Where("id = ?", questionID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (qr *questionRepo) ListByAssignment(dbc dbctx.Context, assignmentID uuid.UUID) ([]*types.Question, error) {
	var results []*types.Question
	if err := dbc.DB(qr.db).
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (qr *questionRepo) DeleteByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) error {
	if len(questionIDs) == 0 {
		return nil
	}
	return dbc.DB(qr.db).Where("id IN ?", questionIDs).Delete(&types.Question{}).Error
}

func (qr *questionRepo) DeleteByAssignmentIDs(dbc dbctx.Context, assignmentIDs []uuid.UUID) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	return dbc.DB(qr.db).Where("assignment_id IN ?", assignmentIDs).Delete(&types.Question{}).Error
}
