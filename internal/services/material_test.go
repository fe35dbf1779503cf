package services

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
)

func TestMaterialCreateErrors(t *testing.T) {
	e := newTestEnv(t)
	materials := NewMaterialService(e.db, e.log, e.repos, e.bucket)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	other := e.user(t, "other@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")
	testutil.SeedMaterial(t, ctx, e.db, w.ID, "existing", 5)

	valid := func() MaterialInput {
		return MaterialInput{Name: "Lecture 1", Duration: "12", File: upload("lecture.pdf", "%PDF-1.4")}
	}

	cases := []struct {
		name   string
		user   *types.User
		week   uuid.UUID
		mutate func(*MaterialInput)
		status int
		msg    string
	}{
		{"student", student, w.ID, nil, http.StatusForbidden, "User is not an instructor"},
		{"unknown week", owner, uuid.New(), nil, http.StatusNotFound, "Invalid week_id"},
		{"not owner", other, w.ID, nil, http.StatusForbidden, "User is not the creator of the course"},
		{"missing name", owner, w.ID, func(in *MaterialInput) { in.Name = "" }, http.StatusBadRequest, "Missing required fields"},
		{"missing duration", owner, w.ID, func(in *MaterialInput) { in.Duration = "" }, http.StatusBadRequest, "Missing required fields"},
		{"negative duration", owner, w.ID, func(in *MaterialInput) { in.Duration = "-1" }, http.StatusBadRequest, "Duration must be a non-negative integer"},
		{"duplicate", owner, w.ID, func(in *MaterialInput) { in.Name = "existing" }, http.StatusBadRequest, "Material already exists"},
		{"no file", owner, w.ID, func(in *MaterialInput) { in.File = nil }, http.StatusBadRequest, "No file uploaded"},
		{"empty filename", owner, w.ID, func(in *MaterialInput) { in.File.Filename = "" }, http.StatusBadRequest, "No selected file"},
		{"bad extension", owner, w.ID, func(in *MaterialInput) { in.File.Filename = "virus.exe" }, http.StatusBadRequest, "File type not allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			if tc.mutate != nil {
				tc.mutate(&in)
			}
			_, err := materials.Create(asUser(tc.user), tc.week, in)
			requireAPIError(t, err, tc.status, tc.msg)
		})
	}
	assert.Equal(t, int64(1), count(t, e.db, &types.Material{}))
}

func TestMaterialLifecycle(t *testing.T) {
	e := newTestEnv(t)
	materials := NewMaterialService(e.db, e.log, e.repos, e.bucket)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")

	m, err := materials.Create(asUser(owner), w.ID, MaterialInput{
		Name:       "Intro",
		Duration:   "20",
		File:       upload("Intro.MP4", "video-bytes"),
		Transcript: upload("intro.txt", "hello class"),
	})
	require.NoError(t, err)
	assert.Equal(t, "mp4", m.FileType)
	assert.Equal(t, 20, m.Duration)
	assert.NotEmpty(t, m.TranscriptPath)
	filePath := filepath.Join(e.root, "material", m.FileKey)
	_, err = os.Stat(filePath)
	require.NoError(t, err)

	got, err := materials.Get(asUser(student), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Name)

	dur := "25"
	updated, err := materials.Update(asUser(owner), m.ID, MaterialUpdate{Duration: &dur, File: upload("intro.pdf", "%PDF")})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.Duration)
	assert.Equal(t, "pdf", updated.FileType)
	_, err = os.Stat(filePath)
	assert.True(t, os.IsNotExist(err), "replaced file should be removed")

	err = materials.Delete(asUser(student), m.ID)
	requireAPIError(t, err, http.StatusForbidden, "User is not an instructor")
	require.NoError(t, materials.Delete(asUser(owner), m.ID))
	_, err = materials.Get(asUser(owner), m.ID)
	requireAPIError(t, err, http.StatusNotFound, "Material not found")
	_, err = os.Stat(filepath.Join(e.root, "material", updated.FileKey))
	assert.True(t, os.IsNotExist(err))
}

type fakeVideo struct{ text string }

func (f *fakeVideo) TranscribeGCS(_ context.Context, uri string) (*gcp.TranscriptResult, error) {
	return &gcp.TranscriptResult{Provider: "fake_video", SourceURI: uri, PrimaryText: f.text}, nil
}
func (f *fakeVideo) Close() error { return nil }

type fakeSpeech struct {
	text string
	mime string
}

func (f *fakeSpeech) TranscribeAudio(_ context.Context, audio []byte, mime string) (*gcp.TranscriptResult, error) {
	f.mime = mime
	return &gcp.TranscriptResult{Provider: "fake_speech", PrimaryText: f.text}, nil
}
func (f *fakeSpeech) TranscribeAudioGCS(_ context.Context, uri, mime string) (*gcp.TranscriptResult, error) {
	return &gcp.TranscriptResult{Provider: "fake_speech", SourceURI: uri, PrimaryText: f.text}, nil
}
func (f *fakeSpeech) Close() error { return nil }

func TestTranscriptGenerateAndGet(t *testing.T) {
	e := newTestEnv(t)
	materials := NewMaterialService(e.db, e.log, e.repos, e.bucket)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")
	w := testutil.SeedWeek(t, ctx, e.db, c.ID, "W1")

	video, err := materials.Create(asUser(owner), w.ID, MaterialInput{Name: "Talk", Duration: "5", File: upload("talk.mp4", "bytes")})
	require.NoError(t, err)
	doc, err := materials.Create(asUser(owner), w.ID, MaterialInput{Name: "Doc", Duration: "5", File: upload("doc.txt", "text")})
	require.NoError(t, err)

	unavailable := NewTranscriptService(e.db, e.log, e.repos, e.bucket, nil, nil)
	_, _, err = unavailable.Generate(asUser(owner), video.ID)
	requireAPIError(t, err, http.StatusInternalServerError, "")

	speech := &fakeSpeech{text: "welcome to the talk"}
	transcripts := NewTranscriptService(e.db, e.log, e.repos, e.bucket, &fakeVideo{text: "unused"}, speech)

	_, err = transcripts.Get(asUser(owner), video.ID)
	requireAPIError(t, err, http.StatusNotFound, "Transcript not found")

	_, _, err = transcripts.Generate(asUser(owner), doc.ID)
	requireAPIError(t, err, http.StatusBadRequest, "")

	m, text, err := transcripts.Generate(asUser(owner), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "welcome to the talk", text)
	assert.Equal(t, "video/mp4", speech.mime)
	assert.NotEmpty(t, m.TranscriptPath)

	got, err := transcripts.Get(asUser(owner), video.ID)
	require.NoError(t, err)
	assert.Equal(t, "welcome to the talk", got)
}
