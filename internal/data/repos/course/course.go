package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	GetTree(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error)
	List(dbc dbctx.Context) ([]*types.Course, error)
	ListByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error)
	ListByInstructor(dbc dbctx.Context, instructorID uuid.UUID, withTree bool) ([]*types.Course, error)
	IDsByInstructor(dbc dbctx.Context, instructorID uuid.UUID) ([]uuid.UUID, error)
	NameTaken(dbc dbctx.Context, name string, excludeID uuid.UUID) (bool, error)
	Update(dbc dbctx.Context, courseID uuid.UUID, fields map[string]any) error
	DeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (cr *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	for _, c := range courses {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := dbc.DB(cr.db).Omit("Weeks").Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (cr *courseRepo) GetByID(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	var results []*types.Course
	if err := dbc.DB(cr.db).Where("id = ?", courseID).Limit(1).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// GetTree loads a course with its weeks, each week's materials and assignments.
func (cr *courseRepo) GetTree(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	var results []*types.Course
	if err := withTree(dbc.DB(cr.db)).
		Where("id = ?", courseID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *courseRepo) List(dbc dbctx.Context) ([]*types.Course, error) {
	var results []*types.Course
	if err := dbc.DB(cr.db).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) ListByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(cr.db).
		Where("id IN ?", courseIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) ListByInstructor(dbc dbctx.Context, instructorID uuid.UUID, tree bool) ([]*types.Course, error) {
	var results []*types.Course
	q := dbc.DB(cr.db)
	if tree {
		q = withTree(q)
	}
	if err := q.
		Where("instructor_id = ?", instructorID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) IDsByInstructor(dbc dbctx.Context, instructorID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.DB(cr.db).
		Model(&types.Course{}).
		Where("instructor_id = ?", instructorID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (cr *courseRepo) NameTaken(dbc dbctx.Context, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := dbc.DB(cr.db).Model(&types.Course{}).Where("name = ?", name)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (cr *courseRepo) Update(dbc dbctx.Context, courseID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(cr.db).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(fields).Error
}

func (cr *courseRepo) DeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return dbc.DB(cr.db).Where("id IN ?", courseIDs).Delete(&types.Course{}).Error
}

func withTree(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Weeks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Weeks.Materials", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Weeks.Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}
