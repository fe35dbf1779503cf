package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
)

// ownership resolves an entity up to its course and checks who created that course.
type ownership struct {
	courseRepo     repos.CourseRepo
	weekRepo       repos.WeekRepo
	materialRepo   repos.MaterialRepo
	assignmentRepo repos.AssignmentRepo
}

func (o *ownership) course(dbc dbctx.Context, courseID uuid.UUID) (*types.Course, error) {
	c, err := o.courseRepo.GetByID(dbc, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound(msgCourseNotFound)
	}
	return c, nil
}

func (o *ownership) ownedCourse(dbc dbctx.Context, courseID, userID uuid.UUID) (*types.Course, error) {
	c, err := o.course(dbc, courseID)
	if err != nil {
		return nil, err
	}
	if c.InstructorID != userID {
		return nil, apierr.Forbidden(msgNotCourseOwner)
	}
	return c, nil
}

func (o *ownership) ownedWeek(dbc dbctx.Context, weekID, userID uuid.UUID, notFound string) (*types.Week, *types.Course, error) {
	w, err := o.weekRepo.GetByID(dbc, weekID)
	if err != nil {
		return nil, nil, fmt.Errorf("load week: %w", err)
	}
	if w == nil {
		return nil, nil, apierr.NotFound(notFound)
	}
	c, err := o.ownedCourse(dbc, w.CourseID, userID)
	if err != nil {
		return nil, nil, err
	}
	return w, c, nil
}

func (o *ownership) material(dbc dbctx.Context, materialID uuid.UUID) (*types.Material, error) {
	m, err := o.materialRepo.GetByID(dbc, materialID)
	if err != nil {
		return nil, fmt.Errorf("load material: %w", err)
	}
	if m == nil {
		return nil, apierr.NotFound(msgMaterialMissing)
	}
	return m, nil
}

func (o *ownership) ownedMaterial(dbc dbctx.Context, materialID, userID uuid.UUID) (*types.Material, error) {
	m, err := o.material(dbc, materialID)
	if err != nil {
		return nil, err
	}
	if _, _, err := o.ownedWeek(dbc, m.WeekID, userID, msgWeekNotFound); err != nil {
		return nil, err
	}
	return m, nil
}

func (o *ownership) assignment(dbc dbctx.Context, assignmentID uuid.UUID, notFound string) (*types.Assignment, error) {
	a, err := o.assignmentRepo.GetByID(dbc, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a == nil {
		return nil, apierr.NotFound(notFound)
	}
	return a, nil
}

func (o *ownership) ownedAssignment(dbc dbctx.Context, assignmentID, userID uuid.UUID, notFound string) (*types.Assignment, *types.Week, *types.Course, error) {
	a, err := o.assignment(dbc, assignmentID, notFound)
	if err != nil {
		return nil, nil, nil, err
	}
	w, c, err := o.ownedWeek(dbc, a.WeekID, userID, msgWeekNotFound)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, w, c, nil
}

func newOwnership(r repos.Set) *ownership {
	return &ownership{
		courseRepo:     r.Course,
		weekRepo:       r.Week,
		materialRepo:   r.Material,
		assignmentRepo: r.Assignment,
	}
}
