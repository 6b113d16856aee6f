package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/erp/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the caller-supplied idempotency key header.
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyResponseTTL = 24 * time.Hour
	idempotencyLockTTL     = 30 * time.Second
)

// idempotencyResponseWriter buffers the response body so it can be both
// written to the real client and captured for replay.
type idempotencyResponseWriter struct {
	gin.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// IdempotencyConfig configures the idempotency middleware.
type IdempotencyConfig struct {
	Store  *cache.RedisHTTPIdempotencyStore
	Logger *zap.Logger
}

// Idempotency enforces spec.md §4.3 on the financially sensitive POST
// routes it is mounted on (purchase-requests, purchase-orders, receipts,
// invoices, approvals): a missing Idempotency-Key header passes through
// unguarded, a previously-seen key replays the captured response, and a
// key seen for the first time takes a short lock so a concurrent retry of
// the same key is rejected with 409 instead of double-executing the handler.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		tenantID := GetJWTTenantID(c)
		ctx := c.Request.Context()

		if captured, found, err := cfg.Store.Get(ctx, tenantID, key); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("idempotency_cache_error", zap.Error(err))
			}
		} else if found {
			for k, v := range captured.Headers {
				c.Header(k, v)
			}
			c.Data(captured.StatusCode, "application/json", captured.Body)
			c.Abort()
			return
		}

		acquired, err := cfg.Store.AcquireLock(ctx, tenantID, key, idempotencyLockTTL)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("idempotency_lock_error", zap.Error(err))
			}
			c.Next()
			return
		}
		if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "IDEMPOTENCY_KEY_IN_PROGRESS",
					"message": "a request with this idempotency key is already being processed",
				},
			})
			return
		}

		writer := &idempotencyResponseWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = writer

		c.Next()

		if writer.status >= http.StatusInternalServerError {
			_ = cfg.Store.ReleaseLock(ctx, tenantID, key)
			return
		}

		_ = cfg.Store.Put(ctx, tenantID, key, cache.CapturedResponse{
			StatusCode: writer.status,
			Body:       writer.buf.Bytes(),
		}, idempotencyResponseTTL)
	}
}
