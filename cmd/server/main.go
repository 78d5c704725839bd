package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cryptovest.backend/internal/config"
	"cryptovest.backend/internal/infrastructure/datasources/postgres"
	dynamostore "cryptovest.backend/internal/infrastructure/dynamodb"
	"cryptovest.backend/internal/infrastructure/jobs"
	"cryptovest.backend/internal/infrastructure/storage"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/redis"
	"cryptovest.backend/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	initSentry = sentry.Init
	openDB     = openPostgres
	migrateDB  = postgres.Migrate

	newDynamoClient = func(ctx context.Context, region, endpoint string) (dynamostore.API, error) {
		client, err := dynamostore.NewClient(ctx, region, endpoint)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	newS3Client = func(ctx context.Context, region, endpoint string) (storage.ObjectAPI, error) {
		client, err := storage.NewS3Client(ctx, region, endpoint)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	runServer      = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownSignal = func() <-chan os.Signal {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		return quit
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func openPostgres(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	sqlDB, err := postgres.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	db, err := postgres.OpenGorm(sqlDB, debug)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return db, nil
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()
	ctx := context.Background()

	initLog(cfg.Server.Env, logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Sentry.DSN != "" {
		if err := initSentry(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info(ctx, "Sentry initialized")
	}

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer func() { _ = redis.Close() }()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := utils.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	db, err := openDB(cfg.Database, cfg.Server.Env == "development")
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := migrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Connected to PostgreSQL")

	application, err := buildApp(ctx, cfg, db)
	if err != nil {
		return err
	}

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	maturityJob := jobs.NewInvestmentMaturityJob(application.investment, cfg.Jobs.MaturityInterval, cfg.Jobs.MaturityBatch)
	go maturityJob.Start(jobCtx)
	defer maturityJob.Stop()

	r := newRouter(cfg, application.routes)
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "Cryptovest backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("ledgerBackend", cfg.Ledger.Backend),
		zap.String("storageBackend", cfg.Storage.Backend),
		zap.Int("routes", len(r.Routes())),
	)

	serverErr := make(chan error, 1)
	go func() { serverErr <- runServer(srv) }()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-shutdownSignal():
		logger.Info(ctx, "Shutting down server")
	}

	maturityJob.Stop()
	cancelJobs()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
