package app

import (
	"context"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/formloom/formloom-backend/internal/data/db"
	"github.com/formloom/formloom-backend/internal/data/repos"
	httpsrv "github.com/formloom/formloom-backend/internal/http"
	"github.com/formloom/formloom-backend/internal/observability"
	"github.com/formloom/formloom-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpsrv.Server
	Cfg      Config
	Repos    repos.Set
	Services Services

	shutdownOTel func(context.Context) error
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

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	dbsvc, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := dbsvc.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	reposet := repos.New(theDB, log)
	serviceset := wireServices(theDB, log, reposet)
	handlerset := wireHandlers(serviceset)

	server := httpsrv.NewServer(httpsrv.RouterConfig{
		Log:                log,
		ResponseSetHandler: handlerset.ResponseSets,
		AnswerHandler:      handlerset.Answers,
		ScreenHandler:      handlerset.Screens,
		HealthHandler:      handlerset.Health,
		ServiceName:        cfg.ServiceName,
		EnableTracing:      observability.Enabled(),
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		shutdownOTel: shutdownOTel,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		_ = a.shutdownOTel(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
