package course

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

// SearchHit is one row of a scoped search. Type is course, material or assignment.
type SearchHit struct {
	Type        string    `json:"type"`
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CourseID    uuid.UUID `json:"course_id"`
	CourseName  string    `json:"course_name"`
	WeekID      uuid.UUID `json:"week_id,omitempty"`
	WeekName    string    `json:"week_name,omitempty"`
}

type SearchRepo interface {
	Search(dbc dbctx.Context, courseIDs []uuid.UUID, query string) ([]SearchHit, error)
}

type searchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchRepo(db *gorm.DB, baseLog *logger.Logger) SearchRepo {
	repoLog := baseLog.With("repo", "SearchRepo")
	return &searchRepo{db: db, log: repoLog}
}

// likePattern escapes LIKE wildcards in q and wraps it for a contains match.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

func (sr *searchRepo) Search(dbc dbctx.Context, courseIDs []uuid.UUID, query string) ([]SearchHit, error) {
	hits := []SearchHit{}
	if len(courseIDs) == 0 || strings.TrimSpace(query) == "" {
		return hits, nil
	}
	pattern := likePattern(query)

	var courses []SearchHit
	if err := dbc.DB(sr.db).
		Table(`course AS c`).
		Select(`'course' AS type, c.id AS id, c.name AS name, c.description AS description, c.id AS course_id, c.name AS course_name`).
		Where("c.id IN ?", courseIDs).
		Where(`LOWER(c.name) LIKE ? ESCAPE '\' OR LOWER(c.description) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("c.name").
		Scan(&courses).Error; err != nil {
		return nil, err
	}

	var materials []SearchHit
	if err := dbc.DB(sr.db).
		Table(`material AS m`).
		Select(`'material' AS type, m.id AS id, m.name AS name, m.description AS description, c.id AS course_id, c.name AS course_name, w.id AS week_id, w.name AS week_name`).
		Joins(`JOIN week AS w ON w.id = m.week_id`).
		Joins(`JOIN course AS c ON c.id = w.course_id`).
		Where("c.id IN ?", courseIDs).
		Where(`LOWER(m.name) LIKE ? ESCAPE '\'`, pattern).
		Order("m.name").
		Scan(&materials).Error; err != nil {
		return nil, err
	}

	var assignments []SearchHit
	if err := dbc.DB(sr.db).
		Table(`assignment AS a`).
		Select(`'assignment' AS type, a.id AS id, a.name AS name, a.description AS description, c.id AS course_id, c.name AS course_name, w.id AS week_id, w.name AS week_name`).
		Joins(`JOIN week AS w ON w.id = a.week_id`).
		Joins(`JOIN course AS c ON c.id = w.course_id`).
		Where("c.id IN ?", courseIDs).
		Where(`LOWER(a.name) LIKE ? ESCAPE '\' OR LOWER(a.description) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("a.name").
		Scan(&assignments).Error; err != nil {
		return nil, err
	}

	hits = append(hits, courses...)
	hits = append(hits, materials...)
	hits = append(hits, assignments...)
	return hits, nil
}
