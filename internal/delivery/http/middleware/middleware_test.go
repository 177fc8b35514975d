package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedGate struct {
	state domain.GateState
}

func (g fixedGate) Snapshot() domain.GateSnapshot {
	return domain.GateSnapshot{State: g.state}
}

func (g fixedGate) AwaitSettled(ctx context.Context) (domain.GateSnapshot, error) {
	return g.Snapshot(), nil
}

func (g fixedGate) QuizFinished(ctx context.Context, userID string) error {
	return nil
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(ErrorHandler())
	r.Use(handlers...)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireGate(t *testing.T) {
	r := newEngine(RequireGate(fixedGate{state: domain.GateShowAuth}, domain.GateShowMain))
	r.GET("/scan", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/scan", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"gate": "show_auth", "required": "show_main"}, body["error"])

	r = newEngine(RequireGate(fixedGate{state: domain.GateShowMain}, domain.GateShowMain))
	r.GET("/scan", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/scan", nil)).Code)
}

func TestRequestID(t *testing.T) {
	r := newEngine()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(string(domain.KeyRequestID)))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "6f1c7c38-7d63-4f3e-9b56-0d6d2f6f4c11")
	w = serve(r, req)
	assert.Equal(t, "6f1c7c38-7d63-4f3e-9b56-0d6d2f6f4c11", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = serve(r, req)
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := newEngine()
	r.GET("/bad", func(c *gin.Context) {
		c.Error(apperror.BadRequest("limit must be a non-negative integer").WithDetails([]string{"limit"}))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(assert.AnError)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "limit must be a non-negative integer")
	assert.Contains(t, w.Body.String(), `"error":["limit"]`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestRateLimitInMemory(t *testing.T) {
	cfg := GlobalRateLimitConfig(2, time.Minute)
	cfg.KeyPrefix = "rl:test:memory:"
	r := newEngine(RateLimitMiddleware(cfg))
	r.GET("/gate", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/gate", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/gate", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := AuthRateLimitConfig(1, time.Minute)
	cfg.Client = client
	r := newEngine(RateLimitMiddleware(cfg))
	r.POST("/auth/signin", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mr.Exists("rl:auth:192.0.2.1"))

	w = serve(r, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Auth limits fail closed when the store is down.
	mr.Close()
	w = serve(r, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
