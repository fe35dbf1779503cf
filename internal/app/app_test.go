package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/clients/redis"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	"github.com/Sparkonix11/Knowtopia/internal/http/middleware"
	"github.com/Sparkonix11/Knowtopia/internal/observability"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sendgrid"
)

type stubAI struct{}

func (stubAI) GenerateText(context.Context, string, string) (string, error) {
	return "Think about the definition first.", nil
}

func (stubAI) GenerateJSON(_ context.Context, _, user, _ string, _ map[string]any) (map[string]any, error) {
	return map[string]any{"topic": "Cells", "answer": "Look at " + firstLine(user)}, nil
}

func (stubAI) Model() string { return "stub" }

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

type stubMail struct {
	mu   sync.Mutex
	sent []sendgrid.Message
}

func (m *stubMail) Enabled() bool { return true }

func (m *stubMail) Send(_ context.Context, msg sendgrid.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testServer struct {
	t      *testing.T
	app    *App
	mail   *stubMail
	bucket gcp.BucketService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := testutil.Logger(t)
	bucket, err := gcp.NewLocalBucketService(log, t.TempDir(), "")
	require.NoError(t, err)
	mail := &stubMail{}
	clients := Clients{
		Bucket:   bucket,
		Sessions: redis.NewMemorySessionCache(),
		OpenAI:   stubAI{},
		Mail:     mail,
	}
	cfg := Config{
		JWTSecretKey:    "test-secret",
		AccessTokenTTL:  time.Hour,
		OtelServiceName: "knowtopia-test",
	}
	a, err := build(log, cfg, testutil.DB(t), clients, observability.NewMetrics())
	require.NoError(t, err)
	return &testServer{t: t, app: a, mail: mail, bucket: bucket}
}

type session struct {
	s      *testServer
	cookie *http.Cookie
}

func (ts *testServer) anon() *session { return &session{s: ts} }

func (s *session) send(req *http.Request) (int, map[string]any) {
	s.s.t.Helper()
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.s.app.Router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			s.cookie = c
		}
	}
	body := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.s.t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec.Code, body
}

func (s *session) json(method, path string, payload any) (int, map[string]any) {
	s.s.t.Helper()
	var r io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.s.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, r)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req)
}

type filePart struct {
	field, name, body string
}

func (s *session) multipart(method, path string, fields map[string]string, files ...filePart) (int, map[string]any) {
	s.s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.s.t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(s.s.t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(s.s.t, err)
	}
	require.NoError(s.s.t, w.Close())
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.send(req)
}

func (ts *testServer) signup(email string, instructor bool) (*session, map[string]any) {
	ts.t.Helper()
	s := ts.anon()
	status, body := s.json(http.MethodPost, "/auth/signup", map[string]any{
		"email":            email,
		"password":         "hunter22",
		"password_confirm": "hunter22",
		"fname":            "Ada",
		"lname":            "Lovelace",
		"is_instructor":    instructor,
	})
	require.Equal(ts.t, http.StatusCreated, status, body)
	require.NotNil(ts.t, s.cookie)
	return s, body["user"].(map[string]any)
}

func errMessage(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}

func obj(body map[string]any, key string) map[string]any {
	m, _ := body[key].(map[string]any)
	return m
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "knowtopia_api_requests_total")
}

func TestAuthLifecycle(t *testing.T) {
	ts := newTestServer(t)

	status, body := ts.anon().json(http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", obj(body, "error")["code"])

	status, body = ts.anon().json(http.MethodPost, "/auth/signup", map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", errMessage(body))

	s, user := ts.signup("ada@example.com", false)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.True(t, s.cookie.HttpOnly)

	status, body = ts.anon().json(http.MethodPost, "/auth/signup", map[string]any{
		"email": "ADA@example.com", "password": "a", "password_confirm": "a", "fname": "A", "lname": "B",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", errMessage(body))

	status, body = s.json(http.MethodGet, "/user", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ada", obj(body, "user")["fname"])

	status, body = ts.anon().json(http.MethodPost, "/auth/login", map[string]any{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid credentials", errMessage(body))

	bearer := ts.anon()
	status, _ = bearer.json(http.MethodPost, "/auth/login", map[string]any{"email": "ada@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, status)
	token := bearer.cookie.Value
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	status, _ = ts.anon().send(req)
	assert.Equal(t, http.StatusOK, status)

	stale := s.cookie
	status, body = s.json(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User logged out", body["message"])
	s.cookie = stale
	status, _ = s.json(http.MethodGet, "/user", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCourseMaterialAndScoringFlow(t *testing.T) {
	ts := newTestServer(t)
	teacher, _ := ts.signup("teacher@example.com", true)
	student, studentUser := ts.signup("student@example.com", false)

	status, body := student.json(http.MethodPost, "/course/create", map[string]any{"name": "Biology", "description": "Cells"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = teacher.json(http.MethodPost, "/course/create", map[string]any{"name": "Biology", "description": "Cells and tissues"})
	require.Equal(t, http.StatusCreated, status, body)
	courseID := obj(body, "course")["id"].(string)

	status, body = teacher.json(http.MethodPost, "/course/create", map[string]any{"name": "Biology", "description": "again"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Course already exists", errMessage(body))

	status, body = teacher.json(http.MethodGet, "/course/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Course not found", errMessage(body))

	status, body = teacher.json(http.MethodPost, "/week/create/"+courseID, map[string]any{"name": "Week 1", "description": "Intro"})
	require.Equal(t, http.StatusCreated, status, body)
	weekID := obj(body, "week")["id"].(string)

	status, body = teacher.multipart(http.MethodPost, "/material/create/"+weekID, map[string]string{"name": "Notes", "duration": "15"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file uploaded", errMessage(body))

	status, body = teacher.multipart(http.MethodPost, "/material/create/"+weekID,
		map[string]string{"name": "Notes", "duration": "15"}, filePart{"file", "", "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No selected file", errMessage(body))

	status, body = teacher.multipart(http.MethodPost, "/material/create/"+weekID,
		map[string]string{"name": "Notes", "duration": "15"}, filePart{"file", "run.exe", "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "File type not allowed", errMessage(body))

	status, body = teacher.multipart(http.MethodPost, "/material/create/"+weekID,
		map[string]string{"name": "Notes", "duration": "15", "description": "Reading"},
		filePart{"file", "notes.txt", "Mitochondria are the powerhouse of the cell."})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Material created", body["message"])
	material := obj(body, "material")
	materialID := material["id"].(string)
	assert.EqualValues(t, 15, material["duration"])
	assert.Contains(t, material["file_path"], gcp.LocalPublicPrefix)

	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, material["file_path"].(string), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mitochondria")

	status, body = teacher.json(http.MethodGet, "/course/instructor", nil)
	require.Equal(t, http.StatusOK, status)
	courses := body["courses"].([]any)
	require.Len(t, courses, 1)
	assert.EqualValues(t, 15, courses[0].(map[string]any)["total_duration"])

	status, body = teacher.json(http.MethodPost, "/assignment/create/"+weekID, map[string]any{"name": "Quiz 1", "description": "Basics"})
	require.Equal(t, http.StatusCreated, status, body)
	assignmentID := obj(body, "assignment")["id"].(string)

	status, body = teacher.json(http.MethodPost, "/question/create/"+assignmentID, map[string]any{
		"question_description": "Powerhouse?", "option1": "Nucleus", "option2": "Mitochondria",
		"option3": "Ribosome", "option4": "Golgi", "correct_option": "5",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Correct option must be between 1 and 4", errMessage(body))

	var questionIDs []string
	for _, correct := range []any{2, "1"} {
		status, body = teacher.json(http.MethodPost, "/question/create/"+assignmentID, map[string]any{
			"question_description": "Q", "option1": "a", "option2": "b", "option3": "c", "option4": "d",
			"correct_option": correct,
		})
		require.Equal(t, http.StatusCreated, status, body)
		questionIDs = append(questionIDs, obj(body, "question")["id"].(string))
	}

	status, body = student.json(http.MethodGet, "/question/"+assignmentID, nil)
	require.Equal(t, http.StatusOK, status)
	for _, q := range body["questions"].([]any) {
		assert.NotContains(t, q.(map[string]any), "correct_option")
	}

	status, body = student.json(http.MethodPost, "/assignment/"+assignmentID+"/submit", map[string]any{"answers": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No answers provided", errMessage(body))

	status, body = student.json(http.MethodPost, "/assignment/"+assignmentID+"/submit", map[string]any{
		"answers": map[string]any{questionIDs[0]: 2, questionIDs[1]: "3"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "Assignment submitted successfully", body["message"])
	assert.EqualValues(t, 50, obj(body, "score")["percentage"])

	status, body = student.json(http.MethodPost, "/assignment/"+assignmentID+"/submit", map[string]any{
		"answers": map[string]any{questionIDs[0]: 2},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already submitted this assignment", errMessage(body))

	status, body = teacher.json(http.MethodGet, "/assignment/"+assignmentID+"/scores", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total_submissions"])
	scores := body["scores"].([]any)
	require.Len(t, scores, 1)
	assert.Equal(t, studentUser["id"], scores[0].(map[string]any)["student_id"])

	status, body = teacher.json(http.MethodGet, "/assignment/scores", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["assignments"], 1)

	status, body = student.json(http.MethodPost, "/review/"+materialID, map[string]any{"rating": 6, "comment": "wow"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Rating must be between 1 and 5", errMessage(body))
	status, _ = student.json(http.MethodPost, "/review/"+materialID, map[string]any{"rating": 4, "comment": "clear"})
	require.Equal(t, http.StatusCreated, status)
	status, body = teacher.json(http.MethodGet, "/review/"+materialID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, body["average_rating"])

	status, body = student.json(http.MethodPost, "/material/"+materialID+"/doubts", map[string]any{"doubt_text": "What is ATP?"})
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["doubt_id"])
	status, body = teacher.json(http.MethodGet, "/doubts/materials", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["materials"], 1)
	status, body = student.json(http.MethodGet, "/doubts/student", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["daily_counts"], 10)

	status, body = student.json(http.MethodPost, "/ai/ask", map[string]any{"question": "Why ATP?", "material_ids": []string{materialID}})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Cells", body["topic"])
	status, body = student.json(http.MethodPost, "/ai/summarize", map[string]any{"material_id": materialID})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["summary"])

	status, body = teacher.json(http.MethodDelete, "/course/delete/"+courseID, nil)
	require.Equal(t, http.StatusOK, status, body)
	status, _ = teacher.json(http.MethodGet, "/material/"+materialID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEnrollmentAndSearch(t *testing.T) {
	ts := newTestServer(t)
	teacher, _ := ts.signup("teacher@example.com", true)
	student, _ := ts.signup("student@example.com", false)

	_, body := teacher.json(http.MethodPost, "/course/create", map[string]any{"name": "Genetics", "description": "Genes and inheritance"})
	courseID := obj(body, "course")["id"].(string)

	status, body := student.json(http.MethodGet, "/search?query=ge", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Search query must be at least 3 characters", errMessage(body))
	status, body = student.json(http.MethodGet, "/search?query=genetics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["count"])

	status, body = student.json(http.MethodPost, "/enrollment-requests", map[string]any{"course_id": courseID, "message": "Please"})
	require.Equal(t, http.StatusCreated, status, body)
	requestID := obj(body, "request")["id"].(string)

	status, body = teacher.json(http.MethodGet, "/enrollment-requests/instructor", nil)
	require.Equal(t, http.StatusOK, status)
	reqs := body["requests"].([]any)
	require.Len(t, reqs, 1)
	assert.Equal(t, "student@example.com", reqs[0].(map[string]any)["email"])

	status, body = teacher.json(http.MethodPost, "/enrollment-requests/"+requestID+"/action", map[string]any{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, body = teacher.json(http.MethodPost, "/enrollment-requests/"+requestID+"/action", map[string]any{"action": "approve"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Enrollment request approved successfully", body["message"])
	assert.Len(t, ts.mail.sent, 1)

	status, body = student.json(http.MethodGet, "/course/enrolled", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["courses"], 1)

	status, body = student.json(http.MethodGet, "/search?query=GENETICS", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = student.json(http.MethodGet, "/user/students", nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access denied. Only instructors can view students", errMessage(body))
	status, body = teacher.json(http.MethodGet, "/user/students", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["students"], 1)
}

func TestSessionPurgeLoopStops(t *testing.T) {
	ts := newTestServer(t)
	ts.app.Cfg.SessionPurgeEvery = 10 * time.Millisecond
	ts.app.Start()
	ts.app.Start()
	time.Sleep(30 * time.Millisecond)
	ts.app.Close()
}
