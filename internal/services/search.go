package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

const minSearchQueryLen = 3

type SearchService interface {
	Search(ctx context.Context, query string) ([]repos.SearchHit, error)
}

type searchService struct {
	log   *logger.Logger
	repos repos.Set
}

func NewSearchService(log *logger.Logger, r repos.Set) SearchService {
	return &searchService{log: log.With("service", "SearchService"), repos: r}
}

// Search matches query against the caller's own courses, or their enrolled courses for students.
func (ss *searchService) Search(ctx context.Context, query string) ([]repos.SearchHit, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQueryLen {
		return nil, apierr.BadRequest("Search query must be at least 3 characters")
	}
	dbc := dbctx.Context{Ctx: ctx}

	var scope []uuid.UUID
	if rd.IsInstructor {
		scope, err = ss.repos.Course.IDsByInstructor(dbc, rd.UserID)
	} else {
		scope, err = ss.repos.Enrollment.CourseIDsByStudent(dbc, rd.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve search scope: %w", err)
	}
	hits, err := ss.repos.Search.Search(dbc, scope, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return hits, nil
}
