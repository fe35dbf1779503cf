package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/db"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/ctxutil"
)

const (
	msgMissingFields   = "Missing required fields"
	msgNotInstructor   = "User is not an instructor"
	msgCourseNotFound  = "Course not found"
	msgNotCourseOwner  = "User is not the creator of the course"
	msgWeekNotFound    = "Week not found"
	msgMaterialMissing = "Material not found"
)

// FileUpload is a file received from a multipart form.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Present reports whether a file part was sent at all.
func (f *FileUpload) Present() bool { return f != nil && f.Reader != nil }

func requestUser(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("Authentication required")
	}
	return rd, nil
}

func requireInstructor(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsInstructor {
		return nil, apierr.Forbidden(msgNotInstructor)
	}
	return rd, nil
}

// uniqueOr maps a unique violation to a 400 with msg and wraps anything else.
func uniqueOr(err error, msg, op string) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return apierr.AlreadyExists(msg)
	}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
