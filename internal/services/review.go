package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

type ReviewView struct {
	types.Review
	UserName string `json:"user_name"`
}

type ReviewList struct {
	MaterialID    uuid.UUID    `json:"material_id"`
	Reviews       []ReviewView `json:"reviews"`
	AverageRating float64      `json:"average_rating"`
	Count         int          `json:"count"`
}

type ReviewService interface {
	Create(ctx context.Context, materialID uuid.UUID, rating *int, comment string) (*types.Review, error)
	List(ctx context.Context, materialID uuid.UUID) (*ReviewList, error)
	Delete(ctx context.Context, reviewID uuid.UUID) error
}

type reviewService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	owner *ownership
}

func NewReviewService(db *gorm.DB, log *logger.Logger, r repos.Set) ReviewService {
	return &reviewService{
		db:    db,
		log:   log.With("service", "ReviewService"),
		repos: r,
		owner: newOwnership(r),
	}
}

func (rs *reviewService) Create(ctx context.Context, materialID uuid.UUID, rating *int, comment string) (*types.Review, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	comment = sanitize.Text(comment)
	if rating == nil || comment == "" {
		return nil, apierr.BadRequest(msgMissingFields)
	}
	if *rating < 1 || *rating > 5 {
		return nil, apierr.BadRequest("Rating must be between 1 and 5")
	}

	review := &types.Review{UserID: rd.UserID, MaterialID: materialID, Rating: *rating, Comment: comment}
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := rs.owner.material(dbc, materialID); err != nil {
			return err
		}
		exists, err := rs.repos.Review.Exists(dbc, rd.UserID, materialID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return apierr.AlreadyExists("Review already exists")
		}
		if _, err := rs.repos.Review.Create(dbc, []*types.Review{review}); err != nil {
			return uniqueOr(err, "Review already exists", "create review")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (rs *reviewService) List(ctx context.Context, materialID uuid.UUID) (*ReviewList, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := rs.owner.material(dbc, materialID); err != nil {
		return nil, err
	}
	reviews, err := rs.repos.Review.ListByMaterial(dbc, materialID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.UserID)
	}
	users, err := rs.repos.User.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load reviewers: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}

	out := &ReviewList{MaterialID: materialID, Reviews: make([]ReviewView, 0, len(reviews))}
	total := 0
	for _, r := range reviews {
		out.Reviews = append(out.Reviews, ReviewView{Review: *r, UserName: names[r.UserID]})
		total += r.Rating
	}
	out.Count = len(out.Reviews)
	if out.Count > 0 {
		out.AverageRating = types.Round2(float64(total) / float64(out.Count))
	}
	return out, nil
}

func (rs *reviewService) Delete(ctx context.Context, reviewID uuid.UUID) error {
	rd, err := requestUser(ctx)
	if err != nil {
		return err
	}
	return rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		r, err := rs.repos.Review.GetByID(dbc, reviewID)
		if err != nil {
			return fmt.Errorf("load review: %w", err)
		}
		if r == nil {
			return apierr.NotFound("Review not found")
		}
		if r.UserID != rd.UserID {
			return apierr.Forbidden("You can only delete your own reviews")
		}
		if err := rs.repos.Review.DeleteByIDs(dbc, []uuid.UUID{r.ID}); err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return nil
	})
}
