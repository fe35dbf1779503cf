package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/ctxutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sendgrid"
)

type testEnv struct {
	db     *gorm.DB
	log    *logger.Logger
	repos  repos.Set
	bucket gcp.BucketService
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	root := t.TempDir()
	bucket, err := gcp.NewLocalBucketService(log, root, "")
	require.NoError(t, err)
	return &testEnv{db: db, log: log, repos: repos.NewSet(db, log), bucket: bucket, root: root}
}

func (e *testEnv) user(t *testing.T, email string, instructor bool) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), e.db, email, instructor)
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:       u.ID,
		IsInstructor: u.IsInstructor,
	})
}

func upload(name, body string) *FileUpload {
	return &FileUpload{Filename: name, Size: int64(len(body)), Reader: strings.NewReader(body)}
}

func requireAPIError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae), "expected *apierr.Error, got %T: %v", err, err)
	require.Equal(t, status, ae.Status)
	if msg != "" {
		require.Equal(t, msg, ae.Error())
	}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

type fakeAI struct {
	mu      sync.Mutex
	text    string
	json    map[string]any
	err     error
	systems []string
	users   []string
}

func (f *fakeAI) record(system, user string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
}

func (f *fakeAI) GenerateText(_ context.Context, system, user string) (string, error) {
	f.record(system, user)
	return f.text, f.err
}

func (f *fakeAI) GenerateJSON(_ context.Context, system, user, _ string, _ map[string]any) (map[string]any, error) {
	f.record(system, user)
	return f.json, f.err
}

func (f *fakeAI) Model() string { return "fake" }

type fakeMail struct {
	mu   sync.Mutex
	sent []sendgrid.Message
	err  error
}

func (f *fakeMail) Enabled() bool { return true }

func (f *fakeMail) Send(_ context.Context, msg sendgrid.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}
