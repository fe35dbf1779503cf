package material

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
)

func TestMaterialAndReviewRepos(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	teacher := testutil.SeedUser(t, ctx, tx, "mteacher@example.com", true)
	student := testutil.SeedUser(t, ctx, tx, "mstudent@example.com", false)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Chemistry")
	w := testutil.SeedWeek(t, ctx, tx, c.ID, "Atoms")

	materials := NewMaterialRepo(db, log)
	created, err := materials.Create(dbc, []*types.Material{{WeekID: w.ID, Name: "Lecture", Duration: 30, FileType: "mp4"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m := created[0]

	taken, err := materials.NameTaken(dbc, w.ID, "Lecture", uuid.Nil)
	if err != nil || !taken {
		t.Fatalf("NameTaken: taken=%v err=%v", taken, err)
	}
	if err := materials.Update(dbc, m.ID, map[string]any{"transcript_path": "/uploads/t.txt"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := materials.GetByID(dbc, m.ID)
	if err != nil || got.TranscriptPath != "/uploads/t.txt" {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}

	reviews := NewReviewRepo(db, log)
	if _, err := reviews.Create(dbc, []*types.Review{{UserID: student.ID, MaterialID: m.ID, Rating: 4, Comment: "good"}}); err != nil {
		t.Fatalf("Create review: %v", err)
	}
	exists, err := reviews.Exists(dbc, student.ID, m.ID)
	if err != nil || !exists {
		t.Fatalf("Exists: exists=%v err=%v", exists, err)
	}
	list, err := reviews.ListByMaterial(dbc, m.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByMaterial: %v err=%v", list, err)
	}
	if err := reviews.DeleteByMaterialIDs(dbc, []uuid.UUID{m.ID}); err != nil {
		t.Fatalf("DeleteByMaterialIDs: %v", err)
	}
	exists, err = reviews.Exists(dbc, student.ID, m.ID)
	if err != nil || exists {
		t.Fatalf("expected review removed: exists=%v err=%v", exists, err)
	}
}

func TestDoubtRepoCounts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	teacher := testutil.SeedUser(t, ctx, tx, "dteacher@example.com", true)
	student := testutil.SeedUser(t, ctx, tx, "dstudent@example.com", false)
	c := testutil.SeedCourse(t, ctx, tx, teacher.ID, "Biology")
	w := testutil.SeedWeek(t, ctx, tx, c.ID, "Cells")
	m1 := testutil.SeedMaterial(t, ctx, tx, w.ID, "Mitosis", 10)
	m2 := testutil.SeedMaterial(t, ctx, tx, w.ID, "Meiosis", 10)
	testutil.SeedMaterial(t, ctx, tx, w.ID, "Quiet", 10)

	repo := NewDoubtRepo(db, testutil.Logger(t))
	old := time.Now().UTC().AddDate(0, 0, -20)
	if _, err := repo.Create(dbc, []*types.MaterialDoubt{
		{MaterialID: m1.ID, UserID: student.ID, DoubtText: "a"},
		{MaterialID: m2.ID, UserID: student.ID, DoubtText: "b"},
		{MaterialID: m2.ID, UserID: student.ID, DoubtText: "c"},
		{MaterialID: m2.ID, UserID: student.ID, DoubtText: "old", CreatedAt: old, UpdatedAt: old},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	counts, err := repo.CountByCourses(dbc, []uuid.UUID{c.ID})
	if err != nil {
		t.Fatalf("CountByCourses: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 materials with doubts, got %+v", counts)
	}
	if counts[0].MaterialID != m2.ID || counts[0].DoubtsCount != 3 || counts[1].DoubtsCount != 1 {
		t.Fatalf("unexpected ordering: %+v", counts)
	}

	recent, err := repo.ListByUserSince(dbc, student.ID, time.Now().UTC().AddDate(0, 0, -10))
	if err != nil {
		t.Fatalf("ListByUserSince: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 recent doubts, got %d", len(recent))
	}
}
