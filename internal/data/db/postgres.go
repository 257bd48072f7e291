package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/pkg/logger"
	"github.com/lumenlearn/lms-backend/internal/utils"
)

// PostgresService owns the primary (write) handle and, when a replica DSN is
// configured, a separate read handle. With no replica both handles point at
// the primary.
type PostgresService struct {
	write *gorm.DB
	read  *gorm.DB
	log   *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	host := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
	port := utils.GetEnv("POSTGRES_PORT", "5432", logg)
	user := utils.GetEnv("POSTGRES_USER", "postgres", logg)
	password := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
	name := utils.GetEnv("POSTGRES_NAME", "lumenlearn", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	write, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := write.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	read := write
	if replicaDSN := utils.GetEnv("POSTGRES_REPLICA_DSN", "", logg); replicaDSN != "" {
		read, err = gorm.Open(postgres.Open(replicaDSN), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLog,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres replica: %w", err)
		}
		serviceLog.Info("Read replica configured")
	}

	return &PostgresService{write: write, read: read, log: serviceLog}, nil
}

func (p *PostgresService) DB() *gorm.DB     { return p.write }
func (p *PostgresService) ReadDB() *gorm.DB { return p.read }

func (p *PostgresService) AutoMigrateAll() error {
	return p.write.AutoMigrate(
		&domain.Student{},
		&domain.Course{},
		&domain.CourseModule{},
		&domain.Lesson{},
		&domain.Enrollment{},
		&domain.LessonProgress{},
	)
}
