package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Sparkonix11/Knowtopia/internal/http/handlers"
	httpMW "github.com/Sparkonix11/Knowtopia/internal/http/middleware"
	"github.com/Sparkonix11/Knowtopia/internal/observability"
	"github.com/Sparkonix11/Knowtopia/internal/platform/gcp"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string
	// UploadsDir is served under /uploads when objects are stored on local disk.
	UploadsDir string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	CourseHandler     *httpH.CourseHandler
	WeekHandler       *httpH.WeekHandler
	MaterialHandler   *httpH.MaterialHandler
	AssessmentHandler *httpH.AssessmentHandler
	ReviewHandler     *httpH.ReviewHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	DoubtHandler      *httpH.DoubtHandler
	AIHandler         *httpH.AIHandler
	SearchHandler     *httpH.SearchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.UploadsDir != "" {
		r.Static(gcp.LocalPublicPrefix, cfg.UploadsDir)
	}

	api := r.Group("/api/v1")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/auth/logout", cfg.AuthHandler.Logout)
		}

		// User
		if cfg.UserHandler != nil {
			protected.GET("/user", cfg.UserHandler.GetMe)
			protected.PUT("/user", cfg.UserHandler.UpdateProfile)
			protected.GET("/user/students", cfg.UserHandler.ListStudents)
		}

		// Course
		if h := cfg.CourseHandler; h != nil {
			protected.GET("/course", h.List)
			protected.GET("/course/instructor", h.ListInstructor)
			protected.GET("/course/enrolled", h.ListEnrolled)
			protected.GET("/course/:id", h.Get)
			protected.POST("/course/create", h.Create)
			protected.PUT("/course/:id", h.Update)
			protected.DELETE("/course/delete/:id", h.Delete)
			protected.POST("/course/enroll/:course_id/:student_id", h.EnrollStudent)
		}

		// Week
		if h := cfg.WeekHandler; h != nil {
			protected.POST("/week/create/:course_id", h.Create)
			protected.PUT("/week/:id", h.Update)
			protected.DELETE("/week/delete/:id", h.Delete)
		}

		// Material
		if h := cfg.MaterialHandler; h != nil {
			protected.POST("/material/create/:week_id", h.Create)
			protected.GET("/material/:id", h.Get)
			protected.PUT("/material/:id", h.Update)
			protected.DELETE("/material/delete/:id", h.Delete)
			protected.POST("/material/:id/transcript", h.GenerateTranscript)
			protected.GET("/material/:id/transcript", h.GetTranscript)
		}

		// Assignments, questions and scores
		if h := cfg.AssessmentHandler; h != nil {
			protected.POST("/assignment/create/:week_id", h.CreateAssignment)
			protected.GET("/assignment/scores", h.InstructorSummary)
			protected.GET("/assignment/week/:week_id", h.ListWeekAssignments)
			protected.GET("/assignment/:id", h.GetAssignment)
			protected.DELETE("/assignment/delete/:id", h.DeleteAssignment)
			protected.POST("/assignment/:id/submit", h.Submit)
			protected.GET("/assignment/:id/score", h.MyScore)
			protected.GET("/assignment/:id/scores", h.AssignmentScores)

			protected.POST("/question/create/:assignment_id", h.CreateQuestion)
			protected.GET("/question/:assignment_id", h.ListQuestions)
			protected.DELETE("/question/delete/:id", h.DeleteQuestion)
		}

		// Review
		if h := cfg.ReviewHandler; h != nil {
			protected.POST("/review/:material_id", h.Create)
			protected.GET("/review/:material_id", h.List)
			protected.DELETE("/review/delete/:id", h.Delete)
		}

		// Enrollment requests
		if h := cfg.EnrollmentHandler; h != nil {
			protected.POST("/enrollment-requests", h.Request)
			protected.GET("/enrollment-requests/student", h.ListForStudent)
			protected.GET("/enrollment-requests/instructor", h.ListForInstructor)
			protected.POST("/enrollment-requests/:id/action", h.Action)
		}

		// Doubts
		if h := cfg.DoubtHandler; h != nil {
			protected.POST("/material/:id/doubts", h.Create)
			protected.GET("/material/:id/doubts", h.ListForMaterial)
			protected.GET("/doubts/materials", h.MaterialsWithDoubts)
			protected.GET("/doubts/student", h.StudentDaily)
		}

		// AI
		if h := cfg.AIHandler; h != nil {
			protected.POST("/ai/ask", h.Ask)
			protected.POST("/ai/question_hint", h.QuestionHint)
			protected.POST("/ai/summarize", h.Summarize)
		}

		// Search
		if cfg.SearchHandler != nil {
			protected.GET("/search", cfg.SearchHandler.Search)
		}
	}

	return r
}
