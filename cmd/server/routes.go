package main

import (
	"github.com/gin-gonic/gin"

	"docucheck.backend/internal/interfaces/http/handlers"
	"docucheck.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	documentHandler *handlers.DocumentHandler
	paymentHandler  *handlers.PaymentHandler
	webhookHandler  *handlers.WebhookHandler
	adminHandler    *handlers.AdminHandler
	authMiddleware  gin.HandlerFunc
	rateLimit       gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Document routes (protected)
		documents := v1.Group("/documents")
		documents.Use(d.authMiddleware)
		{
			documents.POST("", d.rateLimit, middleware.IdempotencyMiddleware(), d.documentHandler.SubmitDocument)
			documents.GET("/:id", d.documentHandler.GetDocument)
		}

		// Payment routes (protected)
		payments := v1.Group("/payments")
		payments.Use(d.authMiddleware)
		{
			payments.POST("/charges", d.rateLimit, middleware.IdempotencyMiddleware(), d.paymentHandler.CreateCharge)
			payments.GET("/charges/:id", d.paymentHandler.GetCharge)
		}

		// Webhooks (signature verified by the handler)
		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.rateLimit)
		{
			webhooks.POST("/payment", d.webhookHandler.HandlePaymentWebhook)
			webhooks.POST("/bot", d.webhookHandler.HandleBotWebhook)
		}

		// Admin routes (protected)
		admin := v1.Group("/admin")
		admin.Use(d.authMiddleware, middleware.RequireAdmin())
		{
			admin.GET("/requests", d.adminHandler.ListRequests)
			admin.GET("/requests/:id", d.adminHandler.GetRequest)
			admin.DELETE("/requests/:id", d.adminHandler.DeleteRequest)
			admin.POST("/requests/:id/retry", d.adminHandler.RetryRequest)
			admin.POST("/requests/:id/complete", d.adminHandler.CompleteRequest)
			admin.GET("/requests/:id/file", d.adminHandler.GetFileURL)
			admin.GET("/system/health", d.adminHandler.GetSystemHealth)
		}
	}
}
