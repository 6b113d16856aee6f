package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/backend/internal/infrastructure/ratelimit"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRoleResolver struct {
	names map[string][]string
}

func (r stubRoleResolver) RoleNames(roleIDs []string) []string {
	var out []string
	for _, id := range roleIDs {
		out = append(out, r.names[id]...)
	}
	return out
}

func newTestRedisRateLimiter(t *testing.T) *ratelimit.RedisRateLimiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewRedisRateLimiterWithClient(client)
}

func newProcurementRateLimitRouter(cfg ProcurementRateLimitConfig) *gin.Engine {
	router := gin.New()
	router.Use(ProcurementRateLimit(cfg))
	router.GET("/api/v1/vendors", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func doRequest(router *gin.Engine, method, path, clientIP string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = clientIP + ":12345"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProcurementRateLimit_VendorTierBlocksAfterSixtyPerMinute(t *testing.T) {
	limiter := newTestRedisRateLimiter(t)
	router := newProcurementRateLimitRouter(ProcurementRateLimitConfig{Limiter: limiter})

	var last *httptest.ResponseRecorder
	for i := 0; i < 60; i++ {
		last = doRequest(router, http.MethodGet, "/api/v1/vendors", "203.0.113.5")
		require.Equal(t, http.StatusOK, last.Code, "request %d should be within the vendor default limit", i+1)
	}

	blocked := doRequest(router, http.MethodGet, "/api/v1/vendors", "203.0.113.5")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	require.Equal(t, "60", blocked.Header().Get("Retry-After"))
	require.Contains(t, blocked.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestProcurementRateLimit_SeparateIdentitiesHaveIndependentLimits(t *testing.T) {
	limiter := newTestRedisRateLimiter(t)
	router := newProcurementRateLimitRouter(ProcurementRateLimitConfig{Limiter: limiter})

	for i := 0; i < 60; i++ {
		doRequest(router, http.MethodGet, "/api/v1/vendors", "198.51.100.1")
	}
	exhausted := doRequest(router, http.MethodGet, "/api/v1/vendors", "198.51.100.1")
	require.Equal(t, http.StatusTooManyRequests, exhausted.Code)

	fresh := doRequest(router, http.MethodGet, "/api/v1/vendors", "198.51.100.2")
	require.Equal(t, http.StatusOK, fresh.Code)
}

func TestProcurementRateLimit_AuthCategoryUsesLowerVendorLimit(t *testing.T) {
	limiter := newTestRedisRateLimiter(t)
	router := newProcurementRateLimitRouter(ProcurementRateLimitConfig{Limiter: limiter})

	for i := 0; i < 10; i++ {
		resp := doRequest(router, http.MethodPost, "/api/v1/auth/login", "192.0.2.9")
		require.Equal(t, http.StatusOK, resp.Code, "request %d should be within the auth limit", i+1)
	}

	blocked := doRequest(router, http.MethodPost, "/api/v1/auth/login", "192.0.2.9")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
}

func TestProcurementRateLimit_PrivilegedRoleGetsHigherLimitThanVendor(t *testing.T) {
	limiter := newTestRedisRateLimiter(t)
	resolver := stubRoleResolver{names: map[string][]string{"role-admin": {"admin"}}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTRoleIDsKey, []string{"role-admin"})
		c.Set(JWTUserIDKey, "user-1")
		c.Next()
	})
	router.Use(ProcurementRateLimit(ProcurementRateLimitConfig{Limiter: limiter, Roles: resolver}))
	router.GET("/api/v1/vendors", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 60; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "privileged tier should allow more than the vendor default of 60/min")
	}
}

func TestProcurementRateLimit_SkipsConfiguredPaths(t *testing.T) {
	limiter := newTestRedisRateLimiter(t)
	router := gin.New()
	router.Use(ProcurementRateLimit(ProcurementRateLimitConfig{
		Limiter:   limiter,
		SkipPaths: []string{"/healthz"},
	}))
	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 100; i++ {
		resp := doRequest(router, http.MethodGet, "/healthz", "203.0.113.9")
		require.Equal(t, http.StatusOK, resp.Code)
	}
}
