package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "storeledger/internal/core/context"
)

// Correlation headers, echoed on every response.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace attaches correlation ids to the request. Incoming X-Request-ID and
// X-Trace-ID values are kept; missing ones are generated.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		trace := appctx.NewTraceContext(ctx, c.GetHeader(HeaderRequestID))
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" {
			trace.TraceID = traceID
		}
		c.Request = c.Request.WithContext(appctx.WithTrace(ctx, trace))

		c.Set("trace_id", trace.TraceID)
		c.Set("request_id", trace.RequestID)

		c.Header(HeaderRequestID, trace.RequestID)
		c.Header(HeaderTraceID, trace.TraceID)

		c.Next()
	}
}
