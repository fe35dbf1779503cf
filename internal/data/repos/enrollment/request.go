package enrollment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type EnrollmentRequestRepo interface {
	Create(dbc dbctx.Context, requests []*types.EnrollmentRequest) ([]*types.EnrollmentRequest, error)
	GetByID(dbc dbctx.Context, requestID uuid.UUID) (*types.EnrollmentRequest, error)
	HasPending(dbc dbctx.Context, studentID, courseID uuid.UUID) (bool, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.EnrollmentRequest, error)
	ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.EnrollmentRequest, error)
	ResolvePending(dbc dbctx.Context, requestID uuid.UUID, status types.EnrollmentStatus) (bool, error)
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type enrollmentRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRequestRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRequestRepo {
	repoLog := baseLog.With("repo", "EnrollmentRequestRepo")
	return &enrollmentRequestRepo{db: db, log: repoLog}
}

func (rr *enrollmentRequestRepo) Create(dbc dbctx.Context, requests []*types.EnrollmentRequest) ([]*types.EnrollmentRequest, error) {
	if len(requests) == 0 {
		return []*types.EnrollmentRequest{}, nil
	}
	for _, r := range requests {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.Status == "" {
			r.Status = types.EnrollmentPending
		}
	}
	if err := dbc.DB(rr.db).Create(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (rr *enrollmentRequestRepo) GetByID(dbc dbctx.Context, requestID uuid.UUID) (*types.EnrollmentRequest, error) {
	var results []*types.EnrollmentRequest
	if err := dbc.DB(rr.db).Where("id = ?", requestID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *enrollmentRequestRepo) HasPending(dbc dbctx.Context, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(rr.db).
		Model(&types.EnrollmentRequest{}).
		Where("student_id = ? AND course_id = ? AND status = ?", studentID, courseID, types.EnrollmentPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *enrollmentRequestRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.EnrollmentRequest, error) {
	var results []*types.EnrollmentRequest
	if err := dbc.DB(rr.db).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *enrollmentRequestRepo) ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.EnrollmentRequest, error) {
	var results []*types.EnrollmentRequest
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(rr.db).
		Where("course_id IN ?", courseIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ResolvePending moves a pending request to status. It reports false when the
// request is missing or was already resolved, leaving the row untouched.
func (rr *enrollmentRequestRepo) ResolvePending(dbc dbctx.Context, requestID uuid.UUID, status types.EnrollmentStatus) (bool, error) {
	res := dbc.DB(rr.db).
		Model(&types.EnrollmentRequest{}).
		Where("id = ? AND status = ?", requestID, types.EnrollmentPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (rr *enrollmentRequestRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return dbc.DB(rr.db).Where("course_id IN ?", courseIDs).Delete(&types.EnrollmentRequest{}).Error
}
