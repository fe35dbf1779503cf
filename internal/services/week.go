package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

type WeekService interface {
	Create(ctx context.Context, courseID uuid.UUID, name, description string) (*types.Week, error)
	Update(ctx context.Context, weekID uuid.UUID, name, description *string) (*types.Week, error)
	Delete(ctx context.Context, weekID uuid.UUID) error
}

type weekService struct {
	db      *gorm.DB
	log     *logger.Logger
	weeks   repos.WeekRepo
	owner   *ownership
	cascade *cascader
	bucket  gcp.BucketService
}

func NewWeekService(db *gorm.DB, log *logger.Logger, r repos.Set, bucket gcp.BucketService) WeekService {
	return &weekService{
		db:      db,
		log:     log.With("service", "WeekService"),
		weeks:   r.Week,
		owner:   newOwnership(r),
		cascade: newCascader(r),
		bucket:  bucket,
	}
}

func (ws *weekService) Create(ctx context.Context, courseID uuid.UUID, name, description string) (*types.Week, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	week := &types.Week{CourseID: courseID, Name: name, Description: sanitize.Text(description)}
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ws.owner.ownedCourse(dbc, courseID, rd.UserID); err != nil {
			return err
		}
		if name == "" {
			return apierr.BadRequest(msgMissingFields)
		}
		taken, err := ws.weeks.NameTaken(dbc, courseID, name, uuid.Nil)
		if err != nil {
			return fmt.Errorf("check week name: %w", err)
		}
		if taken {
			return apierr.AlreadyExists("Week already exists")
		}
		if _, err := ws.weeks.Create(dbc, []*types.Week{week}); err != nil {
			return uniqueOr(err, "Week already exists", "create week")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return week, nil
}

func (ws *weekService) Update(ctx context.Context, weekID uuid.UUID, name, description *string) (*types.Week, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Week
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		week, _, err := ws.owner.ownedWeek(dbc, weekID, rd.UserID, msgWeekNotFound)
		if err != nil {
			return err
		}
		fields := map[string]any{}
		if name != nil {
			n := strings.TrimSpace(*name)
			if n == "" {
				return apierr.BadRequest(msgMissingFields)
			}
			if n != week.Name {
				taken, err := ws.weeks.NameTaken(dbc, week.CourseID, n, week.ID)
				if err != nil {
					return fmt.Errorf("check week name: %w", err)
				}
				if taken {
					return apierr.AlreadyExists("Week already exists")
				}
				fields["name"] = n
			}
		}
		if description != nil {
			fields["description"] = sanitize.Text(*description)
		}
		if err := ws.weeks.Update(dbc, week.ID, fields); err != nil {
			return uniqueOr(err, "Week already exists", "update week")
		}
		out, err = ws.weeks.GetByID(dbc, week.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ws *weekService) Delete(ctx context.Context, weekID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	var refs []objectRef
	err = ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, _, err := ws.owner.ownedWeek(dbc, weekID, rd.UserID, msgWeekNotFound); err != nil {
			return err
		}
		refs, err = ws.cascade.deleteWeeks(dbc, []uuid.UUID{weekID})
		return err
	})
	if err != nil {
		return err
	}
	deleteObjects(ctx, ws.bucket, ws.log, refs)
	return nil
}
