package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"docucheck.backend/internal/config"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/infrastructure/datasources/postgres"
	"docucheck.backend/internal/infrastructure/jobs"
	"docucheck.backend/internal/infrastructure/storage"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	migrateDB  = postgres.Migrate
	newStorage = func(ctx context.Context, cfg config.StorageConfig) (gateways.StorageGateway, error) {
		return storage.NewS3Storage(ctx, storage.Options{
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
			SignedURLTTL: cfg.SignedURLTTL,
		})
	}
	runServer      = func(srv *http.Server) error { return srv.ListenAndServe() }
	triggerJob     = func(s *jobs.Scheduler, name string) {
		go func() {
			if err := s.Trigger(name); err != nil {
				logger.Error(context.Background(), "Startup job failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}
	shutdownSignal = func() (context.Context, context.CancelFunc) {
		return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redis.Close()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	if cfg.Database.AutoMigrate {
		if err := migrateDB(db); err != nil {
			return err
		}
		logger.Info(ctx, "Database schema migrated")
	}

	blobs, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app, err := buildApp(cfg, db, blobs)
	if err != nil {
		return err
	}

	app.scheduler.Start()
	defer app.scheduler.Stop()
	if cfg.Jobs.ReconcileOnStart {
		// Catch up on webhooks missed while the server was down
		triggerJob(app.scheduler, jobs.ChargeReconcileJobName)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "DocuCheck backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("routes", len(app.router.Routes())),
	)
	return serve(srv, cfg.Server.ShutdownTimeout)
}

// serve blocks until the server fails or a shutdown signal arrives
func serve(srv *http.Server, shutdownTimeout time.Duration) error {
	sigCtx, stop := shutdownSignal()
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- runServer(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
