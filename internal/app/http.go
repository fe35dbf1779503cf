package app

import (
	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http"
	httpH "github.com/Sparkonix11/Knowtopia/internal/http/handlers"
	httpMW "github.com/Sparkonix11/Knowtopia/internal/http/middleware"
	"github.com/Sparkonix11/Knowtopia/internal/observability"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Course     *httpH.CourseHandler
	Week       *httpH.WeekHandler
	Material   *httpH.MaterialHandler
	Assessment *httpH.AssessmentHandler
	Review     *httpH.ReviewHandler
	Enrollment *httpH.EnrollmentHandler
	Doubt      *httpH.DoubtHandler
	AI         *httpH.AIHandler
	Search     *httpH.SearchHandler
}

func wireHandlers(log *logger.Logger, cfg Config, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Auth:       httpH.NewAuthHandler(log, s.Auth, cfg.CookieSecure),
		User:       httpH.NewUserHandler(s.User),
		Course:     httpH.NewCourseHandler(s.Course),
		Week:       httpH.NewWeekHandler(s.Week),
		Material:   httpH.NewMaterialHandler(s.Material, s.Transcript),
		Assessment: httpH.NewAssessmentHandler(s.Assessment, s.Scoring),
		Review:     httpH.NewReviewHandler(s.Review),
		Enrollment: httpH.NewEnrollmentHandler(s.Enrollment),
		Doubt:      httpH.NewDoubtHandler(s.Doubt),
		AI:         httpH.NewAIHandler(s.AI),
		Search:     httpH.NewSearchHandler(s.Search),
	}
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, bucket gcp.BucketService, h Handlers, mw Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.OtelServiceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		UploadsDir:        gcp.LocalRoot(bucket),
		AuthMiddleware:    mw.Auth,
		HealthHandler:     h.Health,
		AuthHandler:       h.Auth,
		UserHandler:       h.User,
		CourseHandler:     h.Course,
		WeekHandler:       h.Week,
		MaterialHandler:   h.Material,
		AssessmentHandler: h.Assessment,
		ReviewHandler:     h.Review,
		EnrollmentHandler: h.Enrollment,
		DoubtHandler:      h.Doubt,
		AIHandler:         h.AI,
		SearchHandler:     h.Search,
	})
}
