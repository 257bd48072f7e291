package app

import (
	"fmt"

	"github.com/lumenlearn/lms-backend/internal/data/cache"
	"github.com/lumenlearn/lms-backend/internal/data/db"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
)

type Clients struct {
	Postgres *db.PostgresService
	Cache    cache.Store
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	pg, err := db.NewPostgresService(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
	}

	// The cache is optional: a nil store disables read-through caching and
	// the repos fall back to the database.
	store, err := cache.NewRedisStore(log)
	if err != nil {
		log.Warn("Redis unavailable, running without cache", "error", err)
		store = nil
	}

	return Clients{Postgres: pg, Cache: store}, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
