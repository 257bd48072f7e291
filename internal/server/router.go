package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	types "github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/handlers"
	"github.com/lumenlearn/lms-backend/internal/middleware"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/services"
)

type RouterConfig struct {
	Log               *logger.Logger
	AuthService       services.AuthService
	AuthHandler       *handlers.AuthHandler
	EnrollmentHandler *handlers.EnrollmentHandler
	ProgressHandler   *handlers.ProgressHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidations()

	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(middleware.RequireAuth(cfg.AuthService, cfg.Log))
	// Enrollments
	protected.POST("/enrollments", cfg.EnrollmentHandler.Enroll)
	protected.GET("/enrollments", cfg.EnrollmentHandler.ListMine)
	protected.POST("/enrollments/complete-eligible", cfg.EnrollmentHandler.CompleteEligible)
	protected.GET("/enrollments/:id", cfg.EnrollmentHandler.Get)
	protected.DELETE("/enrollments/:id", cfg.EnrollmentHandler.Drop)
	// Progress
	protected.GET("/enrollments/:id/progress", cfg.ProgressHandler.Summary)
	protected.GET("/enrollments/:id/progress/modules", cfg.ProgressHandler.ModuleBreakdown)
	protected.GET("/enrollments/:id/progress/next-lesson", cfg.ProgressHandler.NextLesson)
	protected.POST("/enrollments/:id/lessons/:lessonID/start", cfg.ProgressHandler.StartLesson)
	protected.POST("/enrollments/:id/lessons/:lessonID/complete", cfg.ProgressHandler.CompleteLesson)
	protected.POST("/enrollments/:id/lessons/:lessonID/time", cfg.ProgressHandler.RecordTime)
	protected.POST("/enrollments/:id/lessons/:lessonID/quiz", cfg.ProgressHandler.RecordQuizScore)
	// Courses
	protected.GET("/courses/:id/enrollments", cfg.EnrollmentHandler.ListForCourse)
	protected.GET("/courses/:id/enrollment-stats", cfg.EnrollmentHandler.CourseStats)

	return router
}

func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("enrollmentstatus", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case types.EnrollmentStatusActive, types.EnrollmentStatusCompleted, types.EnrollmentStatusDropped:
			return true
		}
		return false
	})
}
