package services

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/testutil"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
)

func TestEnrollmentRequestFlow(t *testing.T) {
	e := newTestEnv(t)
	mail := &fakeMail{}
	svc := NewEnrollmentService(e.db, e.log, e.repos, mail)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	other := e.user(t, "other@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")

	_, err := svc.Request(asUser(owner), c.ID, "")
	requireAPIError(t, err, http.StatusForbidden, "")
	_, err = svc.Request(asUser(student), uuid.New(), "")
	requireAPIError(t, err, http.StatusNotFound, "Course not found")

	req, err := svc.Request(asUser(student), c.ID, "  please, grade<10 me in  ")
	require.NoError(t, err)
	assert.Equal(t, types.EnrollmentPending, req.Status)
	assert.Equal(t, "please, grade<10 me in", req.Message)
	_, err = svc.Request(asUser(student), c.ID, "again")
	requireAPIError(t, err, http.StatusBadRequest, "Enrollment request already pending")

	mine, err := svc.ListForStudent(asUser(student))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Course", mine[0].CourseName)

	incoming, err := svc.ListForInstructor(asUser(owner))
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "student@example.com", incoming[0].StudentEmail)
	assert.Equal(t, "A B", incoming[0].StudentName)

	_, err = svc.Action(asUser(owner), req.ID, "maybe")
	requireAPIError(t, err, http.StatusBadRequest, "Invalid action. Must be 'approve' or 'reject'")
	_, err = svc.Action(asUser(other), req.ID, "approve")
	requireAPIError(t, err, http.StatusForbidden, "You don't have permission to manage this enrollment request")
	_, err = svc.Action(asUser(owner), uuid.New(), "approve")
	requireAPIError(t, err, http.StatusNotFound, "Enrollment request not found")

	msg, err := svc.Action(asUser(owner), req.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, "Enrollment request approved successfully", msg)
	enrolled, err := e.repos.Enrollment.Exists(dbctx.Context{Ctx: ctx}, student.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "student@example.com", mail.sent[0].ToEmail)

	_, err = svc.Action(asUser(owner), req.ID, "reject")
	requireAPIError(t, err, http.StatusBadRequest, "Enrollment request has already been processed")

	_, err = svc.Request(asUser(student), c.ID, "")
	requireAPIError(t, err, http.StatusBadRequest, "Already enrolled in this course")
}

func TestEnrollmentRejectDoesNotEnroll(t *testing.T) {
	e := newTestEnv(t)
	svc := NewEnrollmentService(e.db, e.log, e.repos, nil)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")

	req, err := svc.Request(asUser(student), c.ID, "")
	require.NoError(t, err)
	msg, err := svc.Action(asUser(owner), req.ID, "Reject")
	require.NoError(t, err)
	assert.Equal(t, "Enrollment request rejected successfully", msg)
	assert.Zero(t, count(t, e.db, &types.Enrollment{}))

	// a rejected request no longer blocks a new one
	_, err = svc.Request(asUser(student), c.ID, "second try")
	require.NoError(t, err)
}

func TestConcurrentActionsResolveOnce(t *testing.T) {
	e := newTestEnv(t)
	mail := &fakeMail{}
	svc := NewEnrollmentService(e.db, e.log, e.repos, mail)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", true)
	student := e.user(t, "student@example.com", false)
	c := testutil.SeedCourse(t, ctx, e.db, owner.ID, "Course")

	req, err := svc.Request(asUser(student), c.ID, "")
	require.NoError(t, err)

	actions := []string{"approve", "reject", "approve", "reject"}
	errs := make([]error, len(actions))
	var wg sync.WaitGroup
	for i, action := range actions {
		wg.Add(1)
		go func(i int, action string) {
			defer wg.Done()
			_, errs[i] = svc.Action(asUser(owner), req.ID, action)
		}(i, action)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireAPIError(t, err, http.StatusBadRequest, "Enrollment request has already been processed")
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, mail.sent, 1)

	got, err := e.repos.EnrollmentRequest.GetByID(dbctx.Context{Ctx: ctx}, req.ID)
	require.NoError(t, err)
	enrolled := count(t, e.db, &types.Enrollment{})
	if got.Status == types.EnrollmentApproved {
		assert.EqualValues(t, 1, enrolled)
	} else {
		assert.Equal(t, types.EnrollmentRejected, got.Status)
		assert.Zero(t, enrolled)
	}
}
