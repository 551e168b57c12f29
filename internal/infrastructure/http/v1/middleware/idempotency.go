package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	appctx "storeledger/internal/core/context"
	"storeledger/internal/domain/idempotency"
	"storeledger/pkg/logger"
)

const (
	HeaderIdempotencyKey     = "X-Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// KeyIdempotencyRelease is set on the gin context by a handler whose
// response must not be replayed, for example a batch with failed lines.
const KeyIdempotencyRelease = "idempotency_release"

// captureWriter keeps a copy of the response body for replay.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency middleware protects recording endpoints against retried
// requests booking the same movements twice. A key is scoped to the
// caller's store, user and route.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			_ = c.Error(apperror.NewTooLarge(maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		scope := appctx.GetStoreID(ctx) + "|" + appctx.GetUserID(ctx) + "|" +
			c.Request.Method + " " + c.FullPath()

		replay, err := store.Acquire(ctx, key, scope, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
				c.Abort()
				return
			}
			_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			c.Abort()
			return
		}

		if replay != nil {
			replay.Normalize()
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if !writer.Written() || len(c.Errors) > 0 || c.GetBool(KeyIdempotencyRelease) || !idempotency.Cacheable(status) {
			if err := store.Release(ctx, key); err != nil {
				logger.Warn(ctx, "release idempotency key failed", "key", key, "error", err)
			}
			return
		}

		err = store.Complete(ctx, key, idempotency.Replay{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err != nil {
			logger.Warn(ctx, "complete idempotency key failed", "key", key, "error", err)
		}
	}
}
