package app

import (
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Enrollment services.EnrollmentService
	Progress   services.ProgressService
}

func wireServices(clients Clients, log *logger.Logger, cfg Config, repos Repos) Services {
	log.Info("Wiring services...")
	db := clients.Postgres.DB()
	return Services{
		Auth:       services.NewAuthService(db, log, repos.Student, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Enrollment: services.NewEnrollmentService(db, log, repos.Enrollment, repos.LessonProgress, repos.Course, repos.Lesson),
		Progress:   services.NewProgressService(db, log, repos.LessonProgress, repos.Enrollment),
	}
}
