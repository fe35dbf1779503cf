package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRespondAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", apierr.NotFound("Course not found"), http.StatusNotFound, "not_found", "Course not found"},
		{"wrapped", errors.Join(errors.New("ctx"), apierr.Forbidden("nope")), http.StatusForbidden, "forbidden", "nope"},
		{"plain", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error", "Internal server error"},
		{"ai", apierr.New(http.StatusInternalServerError, "ai_error", errors.New("AI request failed")), http.StatusInternalServerError, "ai_error", "AI request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			RespondAPIError(c, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.msg, env.Error.Message)
			assert.True(t, c.IsAborted())
			if tc.status >= 500 {
				assert.Len(t, c.Errors, 1)
			}
		})
	}
}

func TestBindError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	type body struct {
		Email  string `json:"email" binding:"required"`
		Rating int    `json:"rating" binding:"omitempty,min=1"`
	}
	bind := func(raw string) error {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		c.Request.Header.Set("Content-Type", "application/json")
		var b body
		return c.ShouldBindJSON(&b)
	}

	err := BindError(bind(`{}`))
	assert.Equal(t, "Missing required fields", err.Error())
	err = BindError(bind(`{"email":"a@b.c","rating":-1}`))
	assert.Equal(t, "Invalid value for Rating", err.Error())
	err = BindError(bind(`{"email":`))
	assert.Equal(t, "Invalid request body", err.Error())
	assert.Equal(t, http.StatusBadRequest, apierr.As(err).Status)
}

func TestRespondMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondMessage(c, http.StatusCreated, "Course created", gin.H{"course": gin.H{"name": "Go"}})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Course created","course":{"name":"Go"}}`, rec.Body.String())
}
