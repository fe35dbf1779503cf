package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/clients/redis"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/observability"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/ctxutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

const maxAvatarBytes = 8 << 20

type SignupInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
	Phone           string
	IsInstructor    bool
	Image           *FileUpload
}

// Session is an issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*types.User, *Session, error)
	Login(ctx context.Context, email, password string) (*types.User, *Session, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	sessions      redis.SessionCache
	jwtSecretKey  []byte
	accessTTL     time.Duration
	now           func() time.Time
}

type sessionClaims struct {
	SessionID    string `json:"sid"`
	IsInstructor bool   `json:"ins"`
	jwt.RegisteredClaims
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	sessions redis.SessionCache,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	if sessions == nil {
		sessions = redis.NewMemorySessionCache()
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		sessions:      sessions,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		now:           time.Now,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) Signup(ctx context.Context, in SignupInput) (*types.User, *Session, error) {
	email := normalizeEmail(in.Email)
	if blank(email, in.Password, in.PasswordConfirm, in.FirstName, in.LastName) {
		return nil, nil, apierr.BadRequest(msgMissingFields)
	}
	if in.Password != in.PasswordConfirm {
		return nil, nil, apierr.BadRequest("Passwords do not match")
	}
	exists, err := as.userRepo.EmailExists(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, nil, apierr.AlreadyExists("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		Password:     string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		IsInstructor: in.IsInstructor,
		Image:        types.DefaultUserImage,
	}
	as.attachAvatar(ctx, user, in.Image)

	var sess *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return uniqueOr(err, "User already exists", "create user")
		}
		s, err := as.issue(dbc, user)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err != nil {
		if as.avatarService != nil {
			as.avatarService.Delete(ctx, user.ImageKey)
		}
		return nil, nil, err
	}
	as.log.Info("user signed up", "user_id", user.ID, "instructor", user.IsInstructor)
	return user, sess, nil
}

// attachAvatar stores an uploaded image or an initials avatar. Storage problems keep the placeholder.
func (as *authService) attachAvatar(ctx context.Context, user *types.User, image *FileUpload) {
	if as.avatarService == nil {
		return
	}
	var (
		key, url string
		err      error
	)
	if image.Present() {
		var raw []byte
		raw, err = io.ReadAll(io.LimitReader(image.Reader, maxAvatarBytes))
		if err == nil {
			key, url, err = as.avatarService.UploadImage(ctx, user, raw)
		}
	} else {
		key, url, err = as.avatarService.UploadInitials(ctx, user)
	}
	if err != nil {
		as.log.Warn("avatar upload failed, using placeholder", "user_id", user.ID, "error", err)
		return
	}
	user.ImageKey = key
	user.Image = url
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *Session, error) {
	email = normalizeEmail(email)
	if blank(email, password) {
		return nil, nil, apierr.BadRequest(msgMissingFields)
	}
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		observability.Current().IncSecurityEvent("login_failed")
		return nil, nil, apierr.BadRequest("Invalid credentials")
	}

	var sess *Session
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := as.issue(dbctx.Context{Ctx: ctx, Tx: tx}, user)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

func (as *authService) issue(dbc dbctx.Context, user *types.User) (*Session, error) {
	now := as.now()
	sessionID := uuid.New()
	expiresAt := now.Add(as.accessTTL)
	claims := sessionClaims{
		SessionID:    sessionID.String(),
		IsInstructor: user.IsInstructor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	row := &types.UserToken{
		ID:          sessionID,
		UserID:      user.ID,
		AccessToken: signed,
		ExpiresAt:   expiresAt,
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt}, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("Authentication required")
	}
	if err := as.userTokenRepo.DeleteByAccessToken(dbctx.Context{Ctx: ctx}, rd.TokenString); err != nil {
		return fmt.Errorf("delete user token: %w", err)
	}
	if err := as.sessions.Delete(ctx, rd.TokenString); err != nil {
		as.log.Warn("session cache delete failed", "error", err)
	}
	return nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthorized("Authentication required")
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.jwtSecretKey, nil
	}, jwt.WithTimeFunc(as.now))
	if err != nil || !parsed.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, apierr.Unauthorized("Session expired")
		}
		observability.Current().IncSecurityEvent("invalid_token")
		return ctx, apierr.Unauthorized("Invalid token")
	}

	cached, err := as.sessions.Get(ctx, tokenString)
	if err != nil {
		as.log.Warn("session cache lookup failed", "error", err)
	}
	if cached == nil {
		row, err := as.userTokenRepo.GetByAccessToken(dbctx.Context{Ctx: ctx}, tokenString)
		if err != nil {
			return ctx, fmt.Errorf("load user token: %w", err)
		}
		if row == nil || !row.ExpiresAt.After(as.now()) {
			return ctx, apierr.Unauthorized("Session revoked")
		}
		cached = &redis.CachedSession{
			SessionID:    row.ID,
			UserID:       row.UserID,
			IsInstructor: claims.IsInstructor,
			ExpiresAt:    row.ExpiresAt,
		}
		if err := as.sessions.Set(ctx, tokenString, *cached); err != nil {
			as.log.Warn("session cache store failed", "error", err)
		}
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString:  tokenString,
		SessionID:    cached.SessionID,
		UserID:       cached.UserID,
		IsInstructor: cached.IsInstructor,
	}), nil
}

func (as *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := as.userTokenRepo.DeleteExpired(dbctx.Context{Ctx: ctx}, as.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	if n > 0 {
		as.log.Info("purged expired sessions", "count", n)
	}
	return n, nil
}

func readUpload(f *FileUpload, limit int64) ([]byte, error) {
	if !f.Present() {
		return nil, nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f.Reader, limit)); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return buf.Bytes(), nil
}
