package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docucheck.backend/internal/interfaces/http/middleware"
)

func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			middleware.AuthorizationHeader,
			middleware.IdempotencyHeader,
			middleware.RequestIDHeader,
		},
		ExposeHeaders: []string{middleware.RequestIDHeader, "X-Idempotency-Hit"},
		MaxAge:        12 * time.Hour,
	}))
}

// registerHealthRoute exposes liveness only; dependency health is an admin endpoint
func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func registerMetricsRoute(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

