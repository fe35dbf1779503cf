package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
)

// cascader deletes an entity and everything below it. Callers run it inside a transaction
// and delete the returned objects once that transaction commits.
type cascader struct {
	courseRepo     repos.CourseRepo
	weekRepo       repos.WeekRepo
	materialRepo   repos.MaterialRepo
	reviewRepo     repos.ReviewRepo
	doubtRepo      repos.DoubtRepo
	assignmentRepo repos.AssignmentRepo
	questionRepo   repos.QuestionRepo
	scoreRepo      repos.ScoreRepo
	enrollmentRepo repos.EnrollmentRepo
	requestRepo    repos.EnrollmentRequestRepo
}

func (c *cascader) deleteCourses(dbc dbctx.Context, courses []*types.Course) ([]objectRef, error) {
	if len(courses) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(courses))
	var refs []objectRef
	for _, co := range courses {
		ids = append(ids, co.ID)
		refs = append(refs, materialObjects(co.ThumbnailKey)...)
	}
	weekIDs, err := c.weekRepo.IDsByCourseIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	weekRefs, err := c.deleteWeeks(dbc, weekIDs)
	if err != nil {
		return nil, err
	}
	refs = append(refs, weekRefs...)
	if err := c.enrollmentRepo.DeleteByCourseIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete enrollments: %w", err)
	}
	if err := c.requestRepo.DeleteByCourseIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete enrollment requests: %w", err)
	}
	if err := c.courseRepo.DeleteByIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete courses: %w", err)
	}
	return refs, nil
}

func (c *cascader) deleteWeeks(dbc dbctx.Context, weekIDs []uuid.UUID) ([]objectRef, error) {
	if len(weekIDs) == 0 {
		return nil, nil
	}
	materials, err := c.materialRepo.ListByWeekIDs(dbc, weekIDs)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	refs, err := c.deleteMaterials(dbc, materials)
	if err != nil {
		return nil, err
	}
	assignments, err := c.assignmentRepo.ListByWeekIDs(dbc, weekIDs)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	assignmentIDs := make([]uuid.UUID, 0, len(assignments))
	for _, a := range assignments {
		assignmentIDs = append(assignmentIDs, a.ID)
	}
	if err := c.deleteAssignments(dbc, assignmentIDs); err != nil {
		return nil, err
	}
	if err := c.weekRepo.DeleteByIDs(dbc, weekIDs); err != nil {
		return nil, fmt.Errorf("delete weeks: %w", err)
	}
	return refs, nil
}

func (c *cascader) deleteMaterials(dbc dbctx.Context, materials []*types.Material) ([]objectRef, error) {
	if len(materials) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(materials))
	var refs []objectRef
	for _, m := range materials {
		ids = append(ids, m.ID)
		refs = append(refs, materialObjects(m.FileKey, m.TranscriptKey)...)
	}
	if err := c.reviewRepo.DeleteByMaterialIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete reviews: %w", err)
	}
	if err := c.doubtRepo.DeleteByMaterialIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete doubts: %w", err)
	}
	if err := c.materialRepo.DeleteByIDs(dbc, ids); err != nil {
		return nil, fmt.Errorf("delete materials: %w", err)
	}
	return refs, nil
}

func (c *cascader) deleteAssignments(dbc dbctx.Context, assignmentIDs []uuid.UUID) error {
	if len(assignmentIDs) == 0 {
		return nil
	}
	if err := c.questionRepo.DeleteByAssignmentIDs(dbc, assignmentIDs); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	if err := c.scoreRepo.DeleteByAssignmentIDs(dbc, assignmentIDs); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	if err := c.assignmentRepo.DeleteByIDs(dbc, assignmentIDs); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}
	return nil
}

func newCascader(r repos.Set) *cascader {
	return &cascader{
		courseRepo:     r.Course,
		weekRepo:       r.Week,
		materialRepo:   r.Material,
		reviewRepo:     r.Review,
		doubtRepo:      r.Doubt,
		assignmentRepo: r.Assignment,
		questionRepo:   r.Question,
		scoreRepo:      r.Score,
		enrollmentRepo: r.Enrollment,
		requestRepo:    r.EnrollmentRequest,
	}
}
