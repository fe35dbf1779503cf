package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/ingestion/extractor"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/openai"
)

type aiFixture struct {
	env     *testEnv
	ai      *fakeAI
	svc     AIService
	student *types.User
	week    *types.Week
	notes   *types.Material
	video   *types.Material
}

func newAIFixture(t *testing.T) *aiFixture {
	t.Helper()
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")

	notes := testutil.SeedMaterial(t, ctx, e.db, w.ID, "notes", 5)
	notes.FileType, notes.FileKey = "txt", "materials/notes.txt"
	require.NoError(t, e.db.Save(notes).Error)
	require.NoError(t, e.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, notes.FileKey,
		strings.NewReader("Photosynthesis converts light into chemical energy.")))

	video := testutil.SeedMaterial(t, ctx, e.db, w.ID, "lecture", 30)
	video.FileType, video.FileKey = "mp4", "materials/lecture.mp4"
	require.NoError(t, e.db.Save(video).Error)

	// the seeded pdf has no stored object and is skipped when gathering
	testutil.SeedMaterial(t, ctx, e.db, w.ID, "missing", 5)

	fake := &fakeAI{
		text: "  think about sunlight  ",
		json: map[string]any{"topic": " Photosynthesis ", "answer": "Consider where plants get energy."},
	}
	svc, err := NewAIService(e.log, e.repos, fake, e.bucket, extractor.New(e.log, nil, nil))
	require.NoError(t, err)
	return &aiFixture{env: e, ai: fake, svc: svc, student: student, week: w, notes: notes, video: video}
}

func TestAskUsesWeekMaterials(t *testing.T) {
	f := newAIFixture(t)

	_, err := f.svc.Ask(asUser(f.student), AskInput{Question: "  "})
	requireAPIError(t, err, http.StatusBadRequest, "Question is required")

	res, err := f.svc.Ask(asUser(f.student), AskInput{Question: "How do plants eat?", WeekID: &f.week.ID})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis", res.Topic)
	assert.Equal(t, "Consider where plants get energy.", res.Answer)
	require.Len(t, f.ai.users, 1)
	assert.Contains(t, f.ai.users[0], "How do plants eat?")
	assert.Contains(t, f.ai.users[0], "--- Content from notes ---")
	assert.Contains(t, f.ai.users[0], "chemical energy")
	assert.NotContains(t, f.ai.users[0], "Content from missing")

	missing := uuid.New()
	_, err = f.svc.Ask(asUser(f.student), AskInput{Question: "q", WeekID: &missing})
	requireAPIError(t, err, http.StatusNotFound, "")
}

func TestAskWithoutMaterials(t *testing.T) {
	f := newAIFixture(t)
	_, err := f.svc.Ask(asUser(f.student), AskInput{Question: "What is 2+2?"})
	require.NoError(t, err)
	assert.Contains(t, f.ai.users[0], "(no material provided)")
}

func TestAIErrorsAreMapped(t *testing.T) {
	f := newAIFixture(t)
	f.ai.err = openai.ErrNotConfigured
	_, err := f.svc.Ask(asUser(f.student), AskInput{Question: "q"})
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
	assert.Equal(t, "ai_unavailable", ae.Code)

	f.ai.err = errors.New("boom")
	_, err = f.svc.Summarize(asUser(f.student), f.notes.ID)
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "ai_error", ae.Code)
}

func TestQuestionHint(t *testing.T) {
	f := newAIFixture(t)
	ctx := context.Background()
	a := testutil.SeedAssignment(t, ctx, f.env.db, f.week.ID, "Quiz")
	q := testutil.SeedQuestion(t, ctx, f.env.db, a.ID, 2)

	hint, err := f.svc.QuestionHint(asUser(f.student), HintInput{QuestionID: &q.ID})
	require.NoError(t, err)
	assert.Equal(t, "think about sunlight", hint)
	assert.Contains(t, f.ai.users[0], q.QuestionDescription)
	assert.Contains(t, f.ai.users[0], strings.Join(q.Options(), ", "))

	_, err = f.svc.QuestionHint(asUser(f.student), HintInput{Question: "What?"})
	requireAPIError(t, err, http.StatusBadRequest, "Question and options are required")

	missing := uuid.New()
	_, err = f.svc.QuestionHint(asUser(f.student), HintInput{QuestionID: &missing})
	requireAPIError(t, err, http.StatusNotFound, "Question not found")

	_, err = f.svc.QuestionHint(asUser(f.student), HintInput{Question: "Pick one", Options: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Contains(t, f.ai.users[1], "Options: a, b")
}

func TestSummarize(t *testing.T) {
	f := newAIFixture(t)

	summary, err := f.svc.Summarize(asUser(f.student), f.notes.ID)
	require.NoError(t, err)
	assert.Equal(t, "think about sunlight", summary)
	assert.Contains(t, f.ai.users[0], "Material: notes")

	_, err = f.svc.Summarize(asUser(f.student), f.video.ID)
	requireAPIError(t, err, http.StatusBadRequest, "Material has no transcript to summarize")

	_, err = f.svc.Summarize(asUser(f.student), uuid.New())
	requireAPIError(t, err, http.StatusNotFound, "Material not found")

	ctx := context.Background()
	f.video.TranscriptKey = "transcripts/lecture.txt"
	require.NoError(t, f.env.db.Save(f.video).Error)
	require.NoError(t, f.env.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, f.video.TranscriptKey,
		strings.NewReader("Today we cover mitochondria.")))
	_, err = f.svc.Summarize(asUser(f.student), f.video.ID)
	require.NoError(t, err)
	assert.Contains(t, f.ai.users[1], "mitochondria")
}

func TestPrompts(t *testing.T) {
	ps, err := loadPrompts(promptsYAML)
	require.NoError(t, err)
	system, user := ps.Hint.render(map[string]string{"question": "Q?", "options": "x, y"})
	assert.NotEmpty(t, system)
	assert.Contains(t, user, "Question: Q?")
	assert.Contains(t, user, "Options: x, y")
	assert.NotContains(t, user, "{{")

	_, err = loadPrompts([]byte("ask:\n  system: hi\n"))
	require.Error(t, err)
	_, err = loadPrompts([]byte("::: not yaml"))
	require.Error(t, err)
}

func TestSearchScope(t *testing.T) {
	e := newTestEnv(t)
	svc := NewSearchService(e.log, e.repos)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	other := e.user(t, "other@example.com", true)
	student := e.user(t, "student@example.com", false)
	mine := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Biology Basics")
	testutil.SeedCourse(t, ctx, e.db, other.ID, "Biology Advanced")

	_, err := svc.Search(asUser(owner), " bi ")
	requireAPIError(t, err, http.StatusBadRequest, "Search query must be at least 3 characters")

	hits, err := svc.Search(asUser(owner), "biology")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, mine.ID, hits[0].CourseID)

	hits, err = svc.Search(asUser(student), "biology")
	require.NoError(t, err)
	assert.Empty(t, hits)

	testutil.SeedEnrollment(t, ctx, e.db, student.ID, mine.ID)
	hits, err = svc.Search(asUser(student), "Biology")
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestPromptContextUsesLeadingChunks(t *testing.T) {
	f := newAIFixture(t)
	ctx := context.Background()

	var b strings.Builder
	for i := 0; i < 4000; i++ {
		fmt.Fprintf(&b, "w%04d ", i)
	}
	long := testutil.SeedMaterial(t, ctx, f.env.db, f.week.ID, "long", 5)
	long.FileType, long.FileKey = "txt", "materials/long.txt"
	require.NoError(t, f.env.db.Save(long).Error)
	require.NoError(t, f.env.bucket.UploadFile(ctx, gcp.BucketCategoryMaterial, long.FileKey, strings.NewReader(b.String())))

	_, err := f.svc.Summarize(asUser(f.student), long.ID)
	require.NoError(t, err)
	prompt := f.ai.users[0]
	assert.Contains(t, prompt, "w0000 w0001")
	assert.NotContains(t, prompt, "w3999")
	assert.Contains(t, prompt, "\n\n", "chunks are separated by blank lines")

	_, err = f.svc.Ask(asUser(f.student), AskInput{Question: "What comes first?", MaterialIDs: []uuid.UUID{f.notes.ID, long.ID}})
	require.NoError(t, err)
	ask := f.ai.users[1]
	assert.Contains(t, ask, "Photosynthesis converts light")
	assert.Contains(t, ask, "--- Content from long ---\nw0000")
	assert.NotContains(t, ask, "w3999")
	assert.Less(t, utf8.RuneCountInString(ask), maxPromptContextRunes+2000)
}
