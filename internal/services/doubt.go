package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

const doubtHistoryDays = 10

type DoubtView struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"student_id"`
	UserName  string    `json:"student_name"`
	DoubtText string    `json:"doubt_text"`
	CreatedAt time.Time `json:"created_at"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DoubtService interface {
	Create(ctx context.Context, materialID uuid.UUID, text string) (*types.MaterialDoubt, error)
	ListForMaterial(ctx context.Context, materialID uuid.UUID) ([]DoubtView, error)
	MaterialsWithDoubts(ctx context.Context) ([]repos.MaterialDoubtCount, error)
	StudentDaily(ctx context.Context) ([]DayCount, error)
}

type doubtService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	owner *ownership
	now   func() time.Time
}

func NewDoubtService(db *gorm.DB, log *logger.Logger, r repos.Set) DoubtService {
	return &doubtService{
		db:    db,
		log:   log.With("service", "DoubtService"),
		repos: r,
		owner: newOwnership(r),
		now:   time.Now,
	}
}

func (ds *doubtService) Create(ctx context.Context, materialID uuid.UUID, text string) (*types.MaterialDoubt, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	d := &types.MaterialDoubt{MaterialID: materialID, UserID: rd.UserID, DoubtText: sanitize.Text(text)}
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ds.owner.material(dbc, materialID); err != nil {
			return err
		}
		if d.DoubtText == "" {
			return apierr.BadRequest("Doubt text is required")
		}
		if _, err := ds.repos.Doubt.Create(dbc, []*types.MaterialDoubt{d}); err != nil {
			return fmt.Errorf("create doubt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (ds *doubtService) ListForMaterial(ctx context.Context, materialID uuid.UUID) ([]DoubtView, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ds.owner.material(dbc, materialID); err != nil {
		return nil, err
	}
	doubts, err := ds.repos.Doubt.ListByMaterial(dbc, materialID)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(doubts))
	for _, d := range doubts {
		ids = append(ids, d.UserID)
	}
	users, err := ds.repos.User.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	out := make([]DoubtView, 0, len(doubts))
	for _, d := range doubts {
		name := names[d.UserID]
		if name == "" {
			name = "Unknown"
		}
		out = append(out, DoubtView{ID: d.ID, UserID: d.UserID, UserName: name, DoubtText: d.DoubtText, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

func (ds *doubtService) MaterialsWithDoubts(ctx context.Context) ([]repos.MaterialDoubtCount, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsInstructor {
		return nil, apierr.Forbidden("Access denied. Only instructors can view all doubts")
	}
	dbc := dbctx.Context{Ctx: ctx}
	courseIDs, err := ds.repos.Course.IDsByInstructor(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out, err := ds.repos.Doubt.CountByCourses(dbc, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("count doubts: %w", err)
	}
	return out, nil
}

func (ds *doubtService) StudentDaily(ctx context.Context) ([]DayCount, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	now := ds.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(doubtHistoryDays - 1))
	doubts, err := ds.repos.Doubt.ListByUserSince(dbctx.Context{Ctx: ctx}, rd.UserID, start)
	if err != nil {
		return nil, fmt.Errorf("list doubts: %w", err)
	}
	return bucketByDay(doubts, start, doubtHistoryDays), nil
}

// bucketByDay counts doubts per UTC day for days consecutive days from start, oldest first.
func bucketByDay(doubts []*types.MaterialDoubt, start time.Time, days int) []DayCount {
	out := make([]DayCount, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DayCount{Date: d}
		index[d] = i
	}
	for _, d := range doubts {
		if i, ok := index[d.CreatedAt.UTC().Format("2006-01-02")]; ok {
			out[i].Count++
		}
	}
	return out
}
