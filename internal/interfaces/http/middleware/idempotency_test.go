package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	redispkg "docucheck.backend/pkg/redis"
)

var idemUser = uuid.MustParse("0190f5c2-7d1e-7c3a-9a4b-3f2e1d0c9b8a")

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		redispkg.SetClient(nil)
	})
	return srv
}

func idempotentRouter(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(UserIDKey, idemUser)
		c.Next()
	})
	r.Use(IdempotencyMiddleware())
	r.POST("/x", handler)
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func storageKey(key string) string {
	return "idempotency:" + idemUser.String() + ":/x:" + key
}

func TestIdempotencyMiddleware_NoHeaderPassthrough(t *testing.T) {
	r := idempotentRouter(func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := postWithKey(r, "")
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestIdempotencyMiddleware_RedisErrorPassthrough(t *testing.T) {
	cli := redisv9.NewClient(&redisv9.Options{Addr: "127.0.0.1:0"})
	redispkg.SetClient(cli)
	t.Cleanup(func() {
		_ = cli.Close()
		redispkg.SetClient(nil)
	})

	r := idempotentRouter(func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := postWithKey(r, "idem-key")
	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestIdempotencyMiddleware_ProcessingConflict(t *testing.T) {
	srv := startMiniRedis(t)
	require.NoError(t, srv.Set(storageKey("key-1"), processingMarker))

	r := idempotentRouter(func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := postWithKey(r, "key-1")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "IDEMPOTENCY_CONFLICT")
}

func TestIdempotencyMiddleware_LegacyBodyReplayedAsOK(t *testing.T) {
	srv := startMiniRedis(t)
	require.NoError(t, srv.Set(storageKey("key-2"), `{"ok":true}`))

	r := idempotentRouter(func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := postWithKey(r, "key-2")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "true", w.Header().Get("X-Idempotency-Hit"))
	require.Equal(t, `{"ok":true}`, w.Body.String())
}

func TestIdempotencyMiddleware_StoresAndReplaysSuccess(t *testing.T) {
	startMiniRedis(t)
	calls := 0
	r := idempotentRouter(func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"requestId": "abc"})
	})

	first := postWithKey(r, "key-3")
	require.Equal(t, http.StatusCreated, first.Code)

	second := postWithKey(r, "key-3")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, calls)
}

func TestIdempotencyMiddleware_DeletesKeyOnFailure(t *testing.T) {
	startMiniRedis(t)
	r := idempotentRouter(func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})

	w := postWithKey(r, "key-4")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	_, err := redispkg.Get(context.Background(), storageKey("key-4"))
	require.ErrorIs(t, err, redisv9.Nil)
}
