package app

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/server"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clients, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(clients, log)
	serviceset := wireServices(clients, log, cfg, reposet)
	handlerset := wireHandlers(log, serviceset)

	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		AuthService:       serviceset.Auth,
		AuthHandler:       handlerset.Auth,
		EnrollmentHandler: handlerset.Enrollment,
		ProgressHandler:   handlerset.Progress,
		AllowOrigins:      cfg.AllowOrigins,
	})

	return &App{
		Log:      log,
		DB:       clients.Postgres.DB(),
		Router:   router,
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
