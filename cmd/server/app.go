package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"docucheck.backend/internal/config"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/infrastructure/jobs"
	"docucheck.backend/internal/infrastructure/payment"
	"docucheck.backend/internal/infrastructure/repositories"
	"docucheck.backend/internal/infrastructure/telegram"
	"docucheck.backend/internal/interfaces/http/handlers"
	"docucheck.backend/internal/interfaces/http/middleware"
	"docucheck.backend/internal/usecases"
	"docucheck.backend/pkg/jwt"
	"docucheck.backend/pkg/redis"
)

const (
	jobRunTimeout      = 2 * time.Minute
	eventLockTTL       = time.Minute
	eventRetention     = 72 * time.Hour
	webhookEventPrefix = "webhook-event"
)

type app struct {
	router    *gin.Engine
	scheduler *jobs.Scheduler
}

// buildApp wires repositories, gateways, usecases, handlers and jobs
func buildApp(cfg *config.Config, db *gorm.DB, blobs gateways.StorageGateway) (*app, error) {
	// Repositories
	requestRepo := repositories.NewVerificationRequestRepository(db)
	chargeRepo := repositories.NewChargeRepository(db)
	chargeEventRepo := repositories.NewChargeEventRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Gateways
	paymentClient := payment.NewCommerceClient(
		cfg.Payment.APIBaseURL,
		cfg.Payment.APIKey,
		cfg.Payment.APIVersion,
		cfg.Payment.WebhookSecret,
		cfg.Payment.Timeout,
	)
	botClient := telegram.NewClient(
		cfg.Telegram.APIBaseURL,
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Telegram.Timeout,
	)
	eventGuard := redis.NewEventGuard(webhookEventPrefix, eventLockTTL, eventRetention)

	// Usecases
	storageRetry := usecases.NewRetryPolicy(cfg.Storage.MaxAttempts)
	completionUsecase := usecases.NewCompletionUsecase(requestRepo, chargeRepo)
	interactionUsecase := usecases.NewInteractionUsecase(requestRepo, botClient, completionUsecase)
	deliveryUsecase := usecases.NewDeliveryUsecase(requestRepo, blobs, botClient, interactionUsecase, storageRetry)
	documentUsecase := usecases.NewDocumentUsecase(requestRepo, chargeRepo, uow, blobs, deliveryUsecase, usecases.DocumentPolicy{
		MaxUploadBytes: cfg.Processing.MaxUploadBytes,
		AllowedRegions: cfg.Processing.AllowedRegions,
	}, storageRetry)
	chargeUsecase := usecases.NewChargeUsecase(chargeRepo, chargeEventRepo, requestRepo, uow, paymentClient,
		usecases.NewRetryPolicy(cfg.Payment.MaxAttempts))
	retryUsecase := usecases.NewRetryUsecase(requestRepo, deliveryUsecase, usecases.AutoRetryPolicy{
		Enabled:     cfg.Processing.AutoRetryEnabled,
		MaxRetries:  cfg.Processing.MaxRetries,
		BaseBackoff: cfg.Processing.AutoRetryBackoff,
	})
	webhookUsecase := usecases.NewWebhookUsecase(paymentClient, botClient, chargeUsecase, interactionUsecase,
		eventGuard, cfg.Telegram.WebhookSecret)
	adminUsecase := usecases.NewAdminUsecase(requestRepo, blobs, completionUsecase, redis.Ping, usecases.HealthPolicy{
		StaleThreshold:   cfg.Processing.StaleThreshold,
		FailureThreshold: cfg.Processing.FailureThreshold,
	})

	// Background jobs
	scheduler := jobs.NewScheduler(jobRunTimeout)
	if err := scheduler.Register(cfg.Jobs.ReconcileSchedule,
		jobs.NewChargeReconcileJob(chargeUsecase, cfg.Jobs.ReconcileMinAge)); err != nil {
		return nil, fmt.Errorf("failed to schedule charge reconciliation: %w", err)
	}
	if err := scheduler.Register(cfg.Jobs.StaleCheckSchedule, jobs.NewStaleProcessingJob(adminUsecase)); err != nil {
		return nil, fmt.Errorf("failed to schedule stale monitor: %w", err)
	}
	if cfg.Processing.AutoRetryEnabled {
		if err := scheduler.Register(cfg.Jobs.AutoRetrySchedule, jobs.NewDeliveryRetryJob(retryUsecase)); err != nil {
			return nil, fmt.Errorf("failed to schedule delivery retry: %w", err)
		}
	}

	// HTTP
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry)
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, middleware.KeyByUserOrIP())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.Metrics())

	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		documentHandler: handlers.NewDocumentHandler(documentUsecase, cfg.Processing.MaxUploadBytes),
		paymentHandler:  handlers.NewPaymentHandler(chargeUsecase),
		webhookHandler:  handlers.NewWebhookHandler(webhookUsecase, cfg.Server.WebhookTimeout),
		adminHandler:    handlers.NewAdminHandler(adminUsecase, retryUsecase),
		authMiddleware:  middleware.AuthMiddleware(jwtService),
		rateLimit:       limiter.Handler(),
	})

	return &app{router: r, scheduler: scheduler}, nil
}
