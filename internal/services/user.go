package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type ProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Image     *FileUpload
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error)
	ListStudents(ctx context.Context) ([]*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, avatarService AvatarService) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		avatarService: avatarService,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	u, err := us.userRepo.GetByID(dbctx.Context{Ctx: ctx}, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("User not found")
	}
	return u, nil
}

func (us *userService) UpdateProfile(ctx context.Context, in ProfileInput) (*types.User, error) {
	current, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}

	first, last, phone := current.FirstName, current.LastName, current.Phone
	if in.FirstName != nil {
		first = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		last = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		phone = strings.TrimSpace(*in.Phone)
	}
	if blank(first, last) {
		return nil, apierr.BadRequest(msgMissingFields)
	}

	var newKey, newURL string
	if in.Image.Present() {
		raw, err := readUpload(in.Image, maxAvatarBytes)
		if err != nil {
			return nil, err
		}
		newKey, newURL, err = us.avatarService.UploadImage(ctx, current, raw)
		if err != nil {
			return nil, err
		}
	}

	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := us.userRepo.UpdateProfile(dbc, current.ID, first, last, phone); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if newKey != "" {
			if err := us.userRepo.UpdateImage(dbc, current.ID, newKey, newURL); err != nil {
				return fmt.Errorf("update image: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if newKey != "" {
			us.avatarService.Delete(ctx, newKey)
		}
		return nil, err
	}
	if newKey != "" {
		us.avatarService.Delete(ctx, current.ImageKey)
	}
	return us.GetMe(ctx)
}

func (us *userService) ListStudents(ctx context.Context) ([]*types.User, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsInstructor {
		return nil, apierr.Forbidden("Access denied. Only instructors can view students")
	}
	students, err := us.userRepo.ListStudents(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}
