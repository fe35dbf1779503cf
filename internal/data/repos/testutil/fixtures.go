package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string, instructor bool) *types.User {
	tb.Helper()
	u := &types.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     "pw",
		FirstName:    "A",
		LastName:     "B",
		IsInstructor: instructor,
		Image:        types.DefaultUserImage,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, name string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:           uuid.New(),
		Name:         name,
		Description:  name + " description",
		InstructorID: instructorID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedWeek(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, name string) *types.Week {
	tb.Helper()
	w := &types.Week{ID: uuid.New(), CourseID: courseID, Name: name}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed week: %v", err)
	}
	return w
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, weekID uuid.UUID, name string, duration int) *types.Material {
	tb.Helper()
	m := &types.Material{
		ID:       uuid.New(),
		WeekID:   weekID,
		Name:     name,
		Duration: duration,
		FileType: "pdf",
		FilePath: "/uploads/" + name + ".pdf",
		FileKey:  "materials/" + name + ".pdf",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, weekID uuid.UUID, name string) *types.Assignment {
	tb.Helper()
	a := &types.Assignment{ID: uuid.New(), WeekID: weekID, Name: name, Description: name + " description"}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID, correct int) *types.Question {
	tb.Helper()
	q := &types.Question{
		ID:                  uuid.New(),
		AssignmentID:        assignmentID,
		QuestionDescription: "What is 2+2?",
		Option1:             "3",
		Option2:             "4",
		Option3:             "5",
		Option4:             "22",
		CorrectOption:       correct,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{ID: uuid.New(), StudentID: studentID, CourseID: courseID}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}
