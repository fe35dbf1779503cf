package assessment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
)

func TestAssessmentRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	teacher := testutil.SeedUser(t, ctx, tx, "ateacher@example.com", true)
	student := testutil.SeedUser(t, ctx, tx, "astudent@example.com", false)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "History")
	w := testutil.SeedWeek(t, ctx, tx, c.ID, "Rome")

	assignments := NewAssignmentRepo(db, log)
	created, err := assignments.Create(dbc, []*types.Assignment{{WeekID: w.ID, Name: "Quiz", Description: "Emperors"}})
	if err != nil {
		t.Fatalf("Create assignment: %v", err)
	}
	a := created[0]

	questions := NewQuestionRepo(db, log)
	if _, err := questions.Create(dbc, []*types.Question{
		{AssignmentID: a.ID, QuestionDescription: "q1", Option1: "a", Option2: "b", Option3: "c", Option4: "d", CorrectOption: 1},
		{AssignmentID: a.ID, QuestionDescription: "q2", Option1: "a", Option2: "b", Option3: "c", Option4: "d", CorrectOption: 4},
	}); err != nil {
		t.Fatalf("Create questions: %v", err)
	}
	qs, err := questions.ListByAssignment(dbc, a.ID)
	if err != nil || len(qs) != 2 {
		t.Fatalf("ListByAssignment: %v err=%v", qs, err)
	}

	scores := NewScoreRepo(db, log)
	if _, err := scores.Create(dbc, []*types.Score{{
		StudentID:    student.ID,
		AssignmentID: a.ID,
		Score:        1,
		MaxScore:     2,
		Answers:      datatypes.JSON([]byte(`{"x":1}`)),
	}}); err != nil {
		t.Fatalf("Create score: %v", err)
	}
	s, err := scores.GetByStudentAndAssignment(dbc, student.ID, a.ID)
	if err != nil || s == nil || s.Percentage() != 50 {
		t.Fatalf("GetByStudentAndAssignment: %+v err=%v", s, err)
	}
	if _, err := scores.Create(dbc, []*types.Score{{StudentID: student.ID, AssignmentID: a.ID, Score: 2, MaxScore: 2}}); err == nil {
		t.Fatalf("expected unique violation for second score")
	}
}

func TestAssessmentDeletes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	teacher := testutil.SeedUser(t, ctx, tx, "del@example.com", true)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Art")
	w := testutil.SeedWeek(t, ctx, tx, c.ID, "Color")
	a := testutil.SeedAssignment(t, ctx, tx, w.ID, "Palette")
	testutil.SeedQuestion(t, ctx, tx, a.ID, 2)

	questions := NewQuestionRepo(db, log)
	if err := questions.DeleteByAssignmentIDs(dbc, []uuid.UUID{a.ID}); err != nil {
		t.Fatalf("DeleteByAssignmentIDs: %v", err)
	}
	qs, err := questions.ListByAssignment(dbc, a.ID)
	if err != nil || len(qs) != 0 {
		t.Fatalf("expected no questions, got %v err=%v", qs, err)
	}

	assignments := NewAssignmentRepo(db, log)
	if err := assignments.DeleteByIDs(dbc, []uuid.UUID{a.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	got, err := assignments.GetByID(dbc, a.ID)
	if err != nil || got != nil {
		t.Fatalf("expected deleted assignment, got=%+v err=%v", got, err)
	}
}
