package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type Services struct {
	Avatar     services.AvatarService
	Auth       services.AuthService
	User       services.UserService
	Course     services.CourseService
	Week       services.WeekService
	Material   services.MaterialService
	Transcript services.TranscriptService
	Assessment services.AssessmentService
	Scoring    services.ScoringService
	Review     services.ReviewService
	Enrollment services.EnrollmentService
	Doubt      services.DoubtService
	AI         services.AIService
	Search     services.SearchService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Set, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	avatar, err := services.NewAvatarService(log, clients.Bucket)
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	ai, err := services.NewAIService(log, r, clients.OpenAI, clients.Bucket, clients.Extractor(log))
	if err != nil {
		return Services{}, fmt.Errorf("init ai service: %w", err)
	}

	return Services{
		Avatar:     avatar,
		Auth:       services.NewAuthService(db, log, r.User, r.UserToken, avatar, clients.Sessions, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:       services.NewUserService(db, log, r.User, avatar),
		Course:     services.NewCourseService(db, log, r, clients.Bucket),
		Week:       services.NewWeekService(db, log, r, clients.Bucket),
		Material:   services.NewMaterialService(db, log, r, clients.Bucket),
		Transcript: services.NewTranscriptService(db, log, r, clients.Bucket, clients.Video, clients.Speech),
		Assessment: services.NewAssessmentService(db, log, r),
		Scoring:    services.NewScoringService(db, log, r),
		Review:     services.NewReviewService(db, log, r),
		Enrollment: services.NewEnrollmentService(db, log, r, clients.Mail),
		Doubt:      services.NewDoubtService(db, log, r),
		AI:         ai,
		Search:     services.NewSearchService(log, r),
	}, nil
}
