package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/erp/backend/internal/infrastructure/ratelimit"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// privilegedRoleNames and internalRoleNames classify a JWT's role names
// into a rate-limit tier (spec.md §4.4), grounded in
// original_source/api/middleware/rate_limit.py's _PRIVILEGED_ROLES /
// _INTERNAL_ROLES sets. Any other role, or no role at all, is "vendor".
var (
	privilegedRoleNames = map[string]bool{
		"admin":            true,
		"cfo":              true,
		"finance_head":     true,
		"procurement_lead": true,
	}
	internalRoleNames = map[string]bool{
		"procurement": true,
		"manager":     true,
		"finance":     true,
	}
)

// RoleNameResolver looks up role names for the role IDs carried on a JWT,
// so the rate limiter can classify a tier without re-decoding permissions
// on every request.
type RoleNameResolver interface {
	RoleNames(roleIDs []string) []string
}

// ProcurementRateLimitConfig configures the distributed rate limit middleware.
type ProcurementRateLimitConfig struct {
	Limiter    *ratelimit.RedisRateLimiter
	Roles      RoleNameResolver
	Logger     *zap.Logger
	SkipPaths  []string
	SkipPrefix []string
}

// ProcurementRateLimit enforces spec.md §4.4's tiered, per-identity window
// over Redis, replacing the teacher's in-memory token bucket for the
// procurement surface so limits hold across every instance.
func ProcurementRateLimit(cfg ProcurementRateLimitConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skipPaths[p] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipPaths[path] {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPrefix {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		tier := ratelimit.TierVendor
		identity := clientIdentity(c)

		if roleIDs := GetJWTRoleIDs(c); len(roleIDs) > 0 && cfg.Roles != nil {
			tier = tierForRoles(cfg.Roles.RoleNames(roleIDs))
		}
		if userID := GetJWTUserID(c); userID != "" {
			identity = userID
		}

		category := pathCategory(path)

		result, err := cfg.Limiter.Allow(c.Request.Context(), tier, identity, category)
		if err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("rate_limit_cache_error", zap.Error(err), zap.String("path", path))
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Next()
	}
}

func tierForRoles(names []string) ratelimit.Tier {
	for _, name := range names {
		if privilegedRoleNames[strings.ToLower(name)] {
			return ratelimit.TierPrivileged
		}
	}
	for _, name := range names {
		if internalRoleNames[strings.ToLower(name)] {
			return ratelimit.TierInternal
		}
	}
	return ratelimit.TierVendor
}

func pathCategory(path string) ratelimit.Category {
	if strings.HasPrefix(path, "/api/v1/auth") || strings.HasPrefix(path, "/auth") {
		return ratelimit.CategoryAuth
	}
	if strings.Contains(path, "/files/upload") || strings.Contains(path, "/documents") {
		return ratelimit.CategoryUpload
	}
	return ratelimit.CategoryDefault
}

// clientIdentity picks the first entry of X-Forwarded-For when present
// (running behind a reverse proxy), otherwise the direct client IP.
func clientIdentity(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.ClientIP()
}
