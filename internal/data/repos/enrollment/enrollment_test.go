package enrollment

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/db"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
)

func TestEnrollmentRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	teacher := testutil.SeedUser(t, ctx, tx, "eteacher@example.com", true)
	student := testutil.SeedUser(t, ctx, tx, "estudent@example.com", false)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Music")

	requests := NewEnrollmentRequestRepo(db, log)
	created, err := requests.Create(dbc, []*types.EnrollmentRequest{{StudentID: student.ID, CourseID: c.ID, Message: "please"}})
	if err != nil {
		t.Fatalf("Create request: %v", err)
	}
	if created[0].Status != types.EnrollmentPending {
		t.Fatalf("expected pending default, got %q", created[0].Status)
	}
	pending, err := requests.HasPending(dbc, student.ID, c.ID)
	if err != nil || !pending {
		t.Fatalf("HasPending: %v err=%v", pending, err)
	}
	resolved, err := requests.ResolvePending(dbc, created[0].ID, types.EnrollmentApproved)
	if err != nil || !resolved {
		t.Fatalf("ResolvePending: %v err=%v", resolved, err)
	}
	resolved, err = requests.ResolvePending(dbc, created[0].ID, types.EnrollmentRejected)
	if err != nil || resolved {
		t.Fatalf("ResolvePending on approved request: %v err=%v", resolved, err)
	}
	resolved, err = requests.ResolvePending(dbc, uuid.New(), types.EnrollmentRejected)
	if err != nil || resolved {
		t.Fatalf("ResolvePending on missing request: %v err=%v", resolved, err)
	}
	pending, err = requests.HasPending(dbc, student.ID, c.ID)
	if err != nil || pending {
		t.Fatalf("HasPending after approve: %v err=%v", pending, err)
	}
	byCourse, err := requests.ListByCourseIDs(dbc, []uuid.UUID{c.ID})
	if err != nil || len(byCourse) != 1 || byCourse[0].Status != types.EnrollmentApproved {
		t.Fatalf("ListByCourseIDs: %+v err=%v", byCourse, err)
	}

	enrollments := NewEnrollmentRepo(db, log)
	if _, err := enrollments.Create(dbc, []*types.Enrollment{{StudentID: student.ID, CourseID: c.ID}}); err != nil {
		t.Fatalf("Create enrollment: %v", err)
	}
	ok, err := enrollments.Exists(dbc, student.ID, c.ID)
	if err != nil || !ok {
		t.Fatalf("Exists: %v err=%v", ok, err)
	}
	ids, err := enrollments.CourseIDsByStudent(dbc, student.ID)
	if err != nil || len(ids) != 1 || ids[0] != c.ID {
		t.Fatalf("CourseIDsByStudent: %v err=%v", ids, err)
	}
	if err := enrollments.DeleteByCourseIDs(dbc, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("DeleteByCourseIDs: %v", err)
	}
	ok, err = enrollments.Exists(dbc, student.ID, c.ID)
	if err != nil || ok {
		t.Fatalf("expected enrollment removed: %v err=%v", ok, err)
	}
}

func TestOnePendingRequestPerStudentCourse(t *testing.T) {
	theDB := testutil.DB(t)
	tx := testutil.Tx(t, theDB)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	teacher := testutil.SeedUser(t, ctx, tx, "pteacher@example.com", true)
	student := testutil.SeedUser(t, ctx, tx, "pstudent@example.com", false)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Harmony")
	other := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Rhythm")

	requests := NewEnrollmentRequestRepo(theDB, testutil.Logger(t))
	first, err := requests.Create(dbc, []*types.EnrollmentRequest{{StudentID: student.ID, CourseID: c.ID}})
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if ok, err := requests.ResolvePending(dbc, first[0].ID, types.EnrollmentRejected); err != nil || !ok {
		t.Fatalf("reject first: %v err=%v", ok, err)
	}
	// resolved requests never block a new pending one
	if _, err := requests.Create(dbc, []*types.EnrollmentRequest{{StudentID: student.ID, CourseID: c.ID}}); err != nil {
		t.Fatalf("Create after reject: %v", err)
	}
	if _, err := requests.Create(dbc, []*types.EnrollmentRequest{{StudentID: student.ID, CourseID: other.ID}}); err != nil {
		t.Fatalf("Create for other course: %v", err)
	}

	// Postgres aborts the transaction on a constraint failure, so this stays last.
	_, err = requests.Create(dbc, []*types.EnrollmentRequest{{StudentID: student.ID, CourseID: c.ID}})
	if !db.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation for second pending request, got %v", err)
	}
}
