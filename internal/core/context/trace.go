package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext correlates a request across log lines and spans.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

// NewTraceContext builds the correlation ids for ctx. The trace id of an
// active OpenTelemetry span wins over a generated one, and an empty
// requestID is replaced with a fresh UUID.
func NewTraceContext(ctx context.Context, requestID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	traceID := uuid.NewString()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}

// WithTrace stores t in ctx.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns the TraceContext stored in ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	t, _ := ctx.Value(traceContextKey{}).(*TraceContext)
	return t
}

// GetRequestID returns the request id of ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}
