package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

const maxThumbnailBytes = 10 << 20

var allowedThumbnailExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

type CourseInput struct {
	Name        string
	Description string
	Thumbnail   *FileUpload
}

type CourseUpdate struct {
	Name        *string
	Description *string
	Thumbnail   *FileUpload
}

// WeekSummary is a week with the summed duration of its materials.
type WeekSummary struct {
	types.Week
	TotalDuration int `json:"total_duration"`
}

type InstructorCourse struct {
	types.Course
	Weeks         []WeekSummary `json:"weeks"`
	TotalDuration int           `json:"total_duration"`
}

type CourseService interface {
	List(ctx context.Context) ([]*types.Course, error)
	Get(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	Create(ctx context.Context, in CourseInput) (*types.Course, error)
	Update(ctx context.Context, courseID uuid.UUID, in CourseUpdate) (*types.Course, error)
	Delete(ctx context.Context, courseID uuid.UUID) error
	ListInstructor(ctx context.Context) ([]InstructorCourse, error)
	ListEnrolled(ctx context.Context) ([]*types.Course, error)
	EnrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*types.Enrollment, error)
}

type courseService struct {
	db      *gorm.DB
	log     *logger.Logger
	repos   repos.Set
	owner   *ownership
	cascade *cascader
	bucket  gcp.BucketService
}

func NewCourseService(db *gorm.DB, log *logger.Logger, r repos.Set, bucket gcp.BucketService) CourseService {
	return &courseService{
		db:      db,
		log:     log.With("service", "CourseService"),
		repos:   r,
		owner:   newOwnership(r),
		cascade: newCascader(r),
		bucket:  bucket,
	}
}

func (cs *courseService) List(ctx context.Context) ([]*types.Course, error) {
	courses, err := cs.repos.Course.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (cs *courseService) Get(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	c, err := cs.repos.Course.GetTree(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound(msgCourseNotFound)
	}
	return c, nil
}

func (cs *courseService) Create(ctx context.Context, in CourseInput) (*types.Course, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	desc := sanitize.Text(in.Description)
	if blank(name, desc) {
		return nil, apierr.BadRequest(msgMissingFields)
	}

	course := &types.Course{
		ID:           uuid.New(),
		Name:         name,
		Description:  desc,
		InstructorID: rd.UserID,
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		taken, err := cs.repos.Course.NameTaken(dbc, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check course name: %w", err)
		}
		if taken {
			return apierr.AlreadyExists("Course already exists")
		}
		if in.Thumbnail.Present() {
			key, url, err := cs.storeThumbnail(ctx, course.ID, in.Thumbnail)
			if err != nil {
				return err
			}
			course.ThumbnailKey, course.Thumbnail = key, url
		}
		if _, err := cs.repos.Course.Create(dbc, []*types.Course{course}); err != nil {
			return uniqueOr(err, "Course already exists", "create course")
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, cs.bucket, cs.log, materialObjects(course.ThumbnailKey))
		return nil, err
	}
	return course, nil
}

func (cs *courseService) storeThumbnail(ctx context.Context, courseID uuid.UUID, f *FileUpload) (string, string, error) {
	ext := types.FileExtension(f.Filename)
	if !allowedThumbnailExtensions[ext] {
		return "", "", apierr.BadRequest("File type not allowed")
	}
	data, err := readUpload(f, maxThumbnailBytes)
	if err != nil {
		return "", "", err
	}
	key := fmt.Sprintf("course_thumbnail/%s/%d.%s", courseID, time.Now().UnixNano(), ext)
	if err := cs.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, key, bytes.NewReader(data)); err != nil {
		return "", "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return key, cs.bucket.GetPublicURL(gcp.BucketCategoryMaterial, key), nil
}

func (cs *courseService) Update(ctx context.Context, courseID uuid.UUID, in CourseUpdate) (*types.Course, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}

	var newKey, oldKey string
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		course, err := cs.owner.ownedCourse(dbc, courseID, rd.UserID)
		if err != nil {
			return err
		}
		fields := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apierr.BadRequest(msgMissingFields)
			}
			if name != course.Name {
				taken, err := cs.repos.Course.NameTaken(dbc, name, course.ID)
				if err != nil {
					return fmt.Errorf("check course name: %w", err)
				}
				if taken {
					return apierr.AlreadyExists("Course already exists")
				}
				fields["name"] = name
			}
		}
		if in.Description != nil {
			desc := sanitize.Text(*in.Description)
			if desc == "" {
				return apierr.BadRequest(msgMissingFields)
			}
			fields["description"] = desc
		}
		if in.Thumbnail.Present() {
			key, url, err := cs.storeThumbnail(ctx, course.ID, in.Thumbnail)
			if err != nil {
				return err
			}
			newKey, oldKey = key, course.ThumbnailKey
			fields["thumbnail"] = url
			fields["thumbnail_key"] = key
		}
		if err := cs.repos.Course.Update(dbc, course.ID, fields); err != nil {
			return uniqueOr(err, "Course already exists", "update course")
		}
		return nil
	})
	if err != nil {
		deleteObjects(ctx, cs.bucket, cs.log, materialObjects(newKey))
		return nil, err
	}
	deleteObjects(ctx, cs.bucket, cs.log, materialObjects(oldKey))
	return cs.Get(ctx, courseID)
}

func (cs *courseService) Delete(ctx context.Context, courseID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	var refs []objectRef
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		course, err := cs.owner.ownedCourse(dbc, courseID, rd.UserID)
		if err != nil {
			return err
		}
		refs, err = cs.cascade.deleteCourses(dbc, []*types.Course{course})
		return err
	})
	if err != nil {
		return err
	}
	deleteObjects(ctx, cs.bucket, cs.log, refs)
	cs.log.Info("course deleted", "course_id", courseID, "objects", len(refs))
	return nil
}

func (cs *courseService) ListInstructor(ctx context.Context) ([]InstructorCourse, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := cs.repos.Course.ListByInstructor(dbctx.Context{Ctx: ctx}, rd.UserID, true)
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	out := make([]InstructorCourse, 0, len(courses))
	for _, c := range courses {
		out = append(out, summarizeCourse(c))
	}
	return out, nil
}

func summarizeCourse(c *types.Course) InstructorCourse {
	ic := InstructorCourse{Course: *c, Weeks: make([]WeekSummary, 0, len(c.Weeks))}
	for _, w := range c.Weeks {
		ws := WeekSummary{Week: w}
		for _, m := range w.Materials {
			ws.TotalDuration += m.Duration
		}
		ic.TotalDuration += ws.TotalDuration
		ic.Weeks = append(ic.Weeks, ws)
	}
	ic.Course.Weeks = nil
	return ic
}

func (cs *courseService) ListEnrolled(ctx context.Context) ([]*types.Course, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	ids, err := cs.repos.Enrollment.CourseIDsByStudent(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	courses, err := cs.repos.Course.ListByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}

func (cs *courseService) EnrollStudent(ctx context.Context, courseID, studentID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	var enrollment *types.Enrollment
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := cs.owner.ownedCourse(dbc, courseID, rd.UserID); err != nil {
			return err
		}
		student, err := cs.repos.User.GetByID(dbc, studentID)
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		if student == nil {
			return apierr.NotFound("Student not found")
		}
		if student.IsInstructor {
			return apierr.BadRequest("User is not a student")
		}
		enrolled, err := cs.repos.Enrollment.Exists(dbc, studentID, courseID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if enrolled {
			return apierr.AlreadyExists("Student already enrolled")
		}
		created, err := cs.repos.Enrollment.Create(dbc, []*types.Enrollment{{StudentID: studentID, CourseID: courseID}})
		if err != nil {
			return uniqueOr(err, "Student already enrolled", "create enrollment")
		}
		enrollment = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}
