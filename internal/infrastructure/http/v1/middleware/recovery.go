package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storeledger/internal/core/apperror"
	"storeledger/pkg/logger"
)

// Recovery turns a handler panic into a 500 problem. The stack goes to the
// log and to the active span, if any.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			ctx := c.Request.Context()
			err := fmt.Errorf("panic: %v", r)
			stack := string(debug.Stack())

			logger.Error(ctx, "panic recovered",
				"error", r,
				"route", c.FullPath(),
				"stack", stack,
			)
			if span := trace.SpanFromContext(ctx); span.IsRecording() {
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic")
			}

			_ = c.Error(apperror.NewInternal(err).WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
		}()
		c.Next()
	}
}
