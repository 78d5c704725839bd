package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptovest.backend/pkg/redis"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := redis.GetClient()
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { redis.SetClient(prev) })
	return mr
}

func idempotentRouter(userID uuid.UUID, calls *int32, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(UserIDKey, userID); c.Next() })
	r.Use(IdempotencyMiddleware())
	handler := func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, gin.H{"call": n})
	}
	r.POST("/deposit", handler)
	r.POST("/withdraw", handler)
	return r
}

func postWithKey(r *gin.Engine, key string) *httptest.ResponseRecorder {
	return postPathWithKey(r, "/deposit", key)
}

func postPathWithKey(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyMiddleware_ReplaysFirstResponse(t *testing.T) {
	useMiniredis(t)
	var calls int32
	r := idempotentRouter(uuid.New(), &calls, http.StatusCreated)

	first := postWithKey(r, "key-1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := postWithKey(r, "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	postWithKey(r, "key-2")
	postWithKey(r, "")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_KeysAreScopedPerUser(t *testing.T) {
	useMiniredis(t)
	var calls int32
	postWithKey(idempotentRouter(uuid.New(), &calls, http.StatusCreated), "shared")
	postWithKey(idempotentRouter(uuid.New(), &calls, http.StatusCreated), "shared")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_KeysAreScopedPerRoute(t *testing.T) {
	useMiniredis(t)
	var calls int32
	r := idempotentRouter(uuid.New(), &calls, http.StatusCreated)

	require.Equal(t, http.StatusCreated, postPathWithKey(r, "/deposit", "shared").Code)
	w := postPathWithKey(r, "/withdraw", "shared")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-Idempotency-Hit"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	assert.Equal(t, "true", postPathWithKey(r, "/withdraw", "shared").Header().Get("X-Idempotency-Hit"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_FailureReleasesKey(t *testing.T) {
	mr := useMiniredis(t)
	var calls int32
	userID := uuid.New()
	r := idempotentRouter(userID, &calls, http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, postWithKey(r, "retry").Code)
	assert.False(t, mr.Exists(idempotencyStorageKey(userID.String(), "POST /deposit", "retry")))
	postWithKey(r, "retry")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_InProgress(t *testing.T) {
	mr := useMiniredis(t)
	var calls int32
	userID := uuid.New()
	require.NoError(t, mr.Set(idempotencyStorageKey(userID.String(), "POST /deposit", "busy"), processingMarker))

	w := postWithKey(idempotentRouter(userID, &calls, http.StatusCreated), "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), CodeIdempotencyConflict)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_StoreDownFallsThrough(t *testing.T) {
	origGet := redisGet
	t.Cleanup(func() { redisGet = origGet })
	redisGet = func(context.Context, string) (string, error) { return "", errors.New("connection refused") }

	var calls int32
	w := postWithKey(idempotentRouter(uuid.New(), &calls, http.StatusCreated), "k")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotencyMiddleware_LockLost(t *testing.T) {
	useMiniredis(t)
	origSetNX := redisSetNX
	t.Cleanup(func() { redisSetNX = origSetNX })
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }

	var calls int32
	w := postWithKey(idempotentRouter(uuid.New(), &calls, http.StatusCreated), "race")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, atomic.LoadInt32(&calls))
}
