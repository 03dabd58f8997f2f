package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// RetentionDuration is how long we keep the response
	RetentionDuration = 24 * time.Hour

	processingMarker = "processing"
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
	redisReady = func() bool { return redis.GetClient() != nil }
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// IdempotencyMiddleware replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped by caller and route.
func IdempotencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || !redisReady() {
			c.Next()
			return
		}

		caller := "anonymous"
		if userID, ok := GetUserID(c); ok {
			caller = userID.String()
		}
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", caller, c.FullPath(), key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil:
			if val == processingMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"code":    "IDEMPOTENCY_CONFLICT",
					"message": "Request already in progress",
				})
				return
			}
			replay(c, val)
			return
		case !errors.Is(err, redis.ErrNil):
			// Redis is down; serve the request without protection.
			logger.Warn(ctx, "Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil || !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"code":    "IDEMPOTENCY_CONFLICT",
				"message": "Request already in progress",
			})
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			encoded, _ := json.Marshal(cachedResponse{Status: status, Body: w.body.String()})
			if err := redisSet(ctx, storageKey, string(encoded), RetentionDuration); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		// Failed attempts may be retried with the same key.
		_ = redisDel(ctx, storageKey)
	}
}

func replay(c *gin.Context, stored string) {
	var cached cachedResponse
	if err := json.Unmarshal([]byte(stored), &cached); err != nil || cached.Status == 0 {
		cached = cachedResponse{Status: http.StatusOK, Body: stored}
	}
	c.Header("X-Idempotency-Hit", "true")
	c.Data(cached.Status, "application/json; charset=utf-8", []byte(cached.Body))
	c.Abort()
}
