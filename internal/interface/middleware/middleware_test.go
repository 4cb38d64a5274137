package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id": c.GetString(RequestIDKey),
			"real_ip":    c.GetString(RealIPKey),
		})
	})
	return r
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := newEngine(RequestIDMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Contains(t, w.Body.String(), id)
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	r := newEngine(RequestIDMiddleware())
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "trace-123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(RequestIDHeader))
}

func TestRealIP_Priority(t *testing.T) {
	r := newEngine(RealIP())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"real_ip":"203.0.113.7"`)

	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"real_ip":"198.51.100.2"`)
}

func TestAllowFuncs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/healthz", nil)

	c.Set(RealIPKey, "192.168.1.10")
	assert.True(t, AllowPrivateIP()(c))
	c.Set(RealIPKey, "8.8.8.8")
	assert.False(t, AllowPrivateIP()(c))

	assert.True(t, AllowPaths("/healthz")(c))
	assert.False(t, AllowPaths("/other")(c))
}

func TestKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/loans/abc", nil)
	c.Set(RealIPKey, "203.0.113.7")

	assert.Equal(t, "rl:ip:203.0.113.7", KeyByIP()(c))
	assert.Equal(t, "rl:path:/api/v1/loans/abc:ip:203.0.113.7", KeyByIPAndPath()(c))
}

func TestRateLimit_NoRedisIsPassThrough(t *testing.T) {
	r := newEngine(RateLimit(nil, 1, time.Minute, KeyByIP(), nil))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// countingHook fails every redis command without touching the network and
// counts how many were attempted.
type countingHook struct{ calls int }

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("redis unavailable")
	}
}

func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls++
		return errors.New("redis unavailable")
	}
}

func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.calls++
		return errors.New("redis unavailable")
	}
}

func TestRateLimit_AllowedPathsSkipRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	defer rdb.Close()
	hook := &countingHook{}
	rdb.AddHook(hook)

	r := newEngine(RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPaths("/healthz")))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, hook.calls)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code, "limiter fails open when redis errors")
	assert.NotZero(t, hook.calls)
}

func TestMetrics_RecordsWithoutAltering(t *testing.T) {
	r := newEngine(Metrics())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToInt(t *testing.T) {
	assert.Equal(t, 3, toInt(int64(3)))
	assert.Equal(t, 4, toInt("4"))
	assert.Equal(t, 0, toInt(nil))
}
