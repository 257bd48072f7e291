package app

import (
	"github.com/lumenlearn/lms-backend/internal/handlers"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Enrollment *handlers.EnrollmentHandler
	Progress   *handlers.ProgressHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:       handlers.NewAuthHandler(svcs.Auth),
		Enrollment: handlers.NewEnrollmentHandler(svcs.Enrollment),
		Progress:   handlers.NewProgressHandler(svcs.Progress, svcs.Enrollment),
	}
}
