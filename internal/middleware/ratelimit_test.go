package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitRouter(t *testing.T, cfg *RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})
	return s, client
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	_, client := newTestRedis(t)

	cfg := DefaultRateLimitConfig(client)
	cfg.Limit = 5
	r := setupRateLimitRouter(t, cfg)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	_, client := newTestRedis(t)

	cfg := DefaultRateLimitConfig(client)
	cfg.Limit = 3
	r := setupRateLimitRouter(t, cfg)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_WindowExpiry(t *testing.T) {
	s, client := newTestRedis(t)

	cfg := DefaultRateLimitConfig(client)
	cfg.Limit = 1
	cfg.Window = time.Second
	r := setupRateLimitRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// expire the fixed window
	s.FastForward(2 * time.Second)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	_, client := newTestRedis(t)

	cfg := DefaultRateLimitConfig(client)
	cfg.Limit = 1
	cfg.KeyFunc = func(c *gin.Context) string {
		return "ratelimit:agent:" + c.GetHeader("X-Agent-Code")
	}
	r := setupRateLimitRouter(t, cfg)

	first := httptest.NewRequest(http.MethodGet, "/ping", nil)
	first.Header.Set("X-Agent-Code", "A1001")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, first)
	require.Equal(t, http.StatusOK, w.Code)

	// same agent is blocked
	second := httptest.NewRequest(http.MethodGet, "/ping", nil)
	second.Header.Set("X-Agent-Code", "A1001")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// a different agent has its own counter
	third := httptest.NewRequest(http.MethodGet, "/ping", nil)
	third.Header.Set("X-Agent-Code", "B2002")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, third)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_FailsOpenOnRedisError(t *testing.T) {
	s, client := newTestRedis(t)
	s.Close()

	cfg := DefaultRateLimitConfig(client)
	cfg.Limit = 1
	r := setupRateLimitRouter(t, cfg)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
