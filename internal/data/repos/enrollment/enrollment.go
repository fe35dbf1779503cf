package enrollment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, enrollments []*types.Enrollment) ([]*types.Enrollment, error)
	Exists(dbc dbctx.Context, studentID, courseID uuid.UUID) (bool, error)
	CourseIDsByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error)
	DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (er *enrollmentRepo) Create(dbc dbctx.Context, enrollments []*types.Enrollment) ([]*types.Enrollment, error) {
	if len(enrollments) == 0 {
		return []*types.Enrollment{}, nil
	}
	for _, e := range enrollments {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}
	if err := dbc.DB(er.db).Create(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (er *enrollmentRepo) Exists(dbc dbctx.Context, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(er.db).
		Model(&types.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (er *enrollmentRepo) CourseIDsByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.DB(er.db).
		Model(&types.Enrollment{}).
		Where("student_id = ?", studentID).
		Pluck("course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (er *enrollmentRepo) DeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return dbc.DB(er.db).Where("course_id IN ?", courseIDs).Delete(&types.Enrollment{}).Error
}
