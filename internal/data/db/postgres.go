package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/utils"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the database selected by DB_DRIVER ("postgres" default,
// "sqlite" for a local single-file deployment).
func New(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", logg))

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "formloom.db", logg)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger:         gormLog,
			TranslateError: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite at %s: %w", path, err)
		}
	case "postgres":
		pgHost := utils.GetEnv("POSTGRES_HOST", "localhost", logg)
		pgPort := utils.GetEnv("POSTGRES_PORT", "5432", logg)
		pgUser := utils.GetEnv("POSTGRES_USER", "postgres", logg)
		pgPassword := utils.GetEnv("POSTGRES_PASSWORD", "", logg)
		pgName := utils.GetEnv("POSTGRES_NAME", "formloom", logg)

		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pgUser,
			pgPassword,
			pgHost,
			pgPort,
			pgName,
		)
		// TranslateError turns driver unique-violation errors into
		// gorm.ErrDuplicatedKey, which the answer store maps to ErrConflict.
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLog,
			TranslateError:                           true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }
