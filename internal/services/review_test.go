package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/pointers"
)

func TestReviewRules(t *testing.T) {
	e := newTestEnv(t)
	reviews := NewReviewService(e.db, e.log, e.repos)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	s1 := e.user(t, "s1@example.com", false)
	s2 := e.user(t, "s2@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")
	m := testutil.SeedMaterial(t, ctx, e.db, w.ID, "notes", 5)

	_, err := reviews.Create(asUser(s1), m.ID, nil, "great")
	requireAPIError(t, err, http.StatusBadRequest, "Missing required fields")
	_, err = reviews.Create(asUser(s1), m.ID, pointers.Ptr(4), "  ")
	requireAPIError(t, err, http.StatusBadRequest, "Missing required fields")
	for _, r := range []int{0, 6, -1} {
		_, err = reviews.Create(asUser(s1), m.ID, pointers.Ptr(r), "x")
		requireAPIError(t, err, http.StatusBadRequest, "Rating must be between 1 and 5")
	}
	_, err = reviews.Create(asUser(s1), uuid.New(), pointers.Ptr(3), "x")
	requireAPIError(t, err, http.StatusNotFound, "Material not found")

	r1, err := reviews.Create(asUser(s1), m.ID, pointers.Ptr(5), "great")
	require.NoError(t, err)
	_, err = reviews.Create(asUser(s1), m.ID, pointers.Ptr(4), "again")
	requireAPIError(t, err, http.StatusBadRequest, "Review already exists")
	_, err = reviews.Create(asUser(s2), m.ID, pointers.Ptr(2), "meh")
	require.NoError(t, err)

	list, err := reviews.List(asUser(owner), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 3.5, list.AverageRating)
	assert.Equal(t, "A B", list.Reviews[0].UserName)

	err = reviews.Delete(asUser(s2), r1.ID)
	requireAPIError(t, err, http.StatusForbidden, "")
	require.NoError(t, reviews.Delete(asUser(s1), r1.ID))
	err = reviews.Delete(asUser(s1), r1.ID)
	requireAPIError(t, err, http.StatusNotFound, "Review not found")
}

func TestReviewAndDoubtTextStoredAsTyped(t *testing.T) {
	e := newTestEnv(t)
	reviews := NewReviewService(e.db, e.log, e.repos)
	doubts := NewDoubtService(e.db, e.log, e.repos)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	s1 := e.user(t, "s1@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")
	m := testutil.SeedMaterial(t, ctx, e.db, w.ID, "notes", 5)

	r, err := reviews.Create(asUser(s1), m.ID, pointers.Ptr(4), "  clear when a<b, less so when List<T>  ")
	require.NoError(t, err)
	assert.Equal(t, "clear when a<b, less so when List<T>", r.Comment)
	list, err := reviews.List(asUser(owner), m.ID)
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, "clear when a<b, less so when List<T>", list.Reviews[0].Comment)

	_, err = doubts.Create(asUser(s1), m.ID, "why is x<y here?")
	require.NoError(t, err)
	got, err := doubts.ListForMaterial(asUser(owner), m.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "why is x<y here?", got[0].DoubtText)
}

func TestBucketByDay(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	doubts := []*types.MaterialDoubt{
		{CreatedAt: start.Add(2 * time.Hour)},
		{CreatedAt: start.Add(5 * time.Hour)},
		{CreatedAt: start.AddDate(0, 0, 3).Add(time.Minute)},
		{CreatedAt: start.AddDate(0, 0, 12)},
	}
	got := bucketByDay(doubts, start, 5)
	require.Len(t, got, 5)
	assert.Equal(t, DayCount{Date: "2024-03-01", Count: 2}, got[0])
	assert.Equal(t, DayCount{Date: "2024-03-02", Count: 0}, got[1])
	assert.Equal(t, DayCount{Date: "2024-03-04", Count: 1}, got[3])
	assert.Equal(t, "2024-03-05", got[4].Date)
}

func TestDoubtService(t *testing.T) {
	e := newTestEnv(t)
	svc := NewDoubtService(e.db, e.log, e.repos)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")
	m1 := testutil.SeedMaterial(t, ctx, e.db, w.ID, "one", 5)
	m2 := testutil.SeedMaterial(t, ctx, e.db, w.ID, "two", 5)
	testutil.SeedMaterial(t, ctx, e.db, w.ID, "quiet", 5)

	_, err := svc.Create(asUser(student), uuid.New(), "why?")
	requireAPIError(t, err, http.StatusNotFound, "Material not found")
	_, err = svc.Create(asUser(student), m1.ID, " ")
	requireAPIError(t, err, http.StatusBadRequest, "Doubt text is required")

	for _, id := range []uuid.UUID{m1.ID, m2.ID, m2.ID} {
		_, err := svc.Create(asUser(student), id, "why?")
		require.NoError(t, err)
	}

	list, err := svc.ListForMaterial(asUser(owner), m2.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A B", list[0].UserName)

	_, err = svc.MaterialsWithDoubts(asUser(student))
	requireAPIError(t, err, http.StatusForbidden, "Access denied. Only instructors can view all doubts")
	counts, err := svc.MaterialsWithDoubts(asUser(owner))
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "two", counts[0].MaterialName)
	assert.Equal(t, int64(2), counts[0].DoubtsCount)

	days, err := svc.StudentDaily(asUser(student))
	require.NoError(t, err)
	require.Len(t, days, doubtHistoryDays)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), days[len(days)-1].Date)
	assert.Equal(t, 3, days[len(days)-1].Count)
	for i := 1; i < len(days); i++ {
		assert.Less(t, days[i-1].Date, days[i].Date)
	}
}
