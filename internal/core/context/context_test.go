package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestHasPermission(t *testing.T) {
	ctx := context.Background()
	assert.False(t, HasPermission(ctx, "ledger:read"))

	ctx = WithUser(ctx, &UserContext{UserID: "u1", StoreID: "s1", Permissions: []string{"ledger:read"}})
	assert.True(t, HasPermission(ctx, "ledger:read"))
	assert.False(t, HasPermission(ctx, "ledger:write"))
	assert.Equal(t, "s1", GetStoreID(ctx))
	assert.Equal(t, "u1", GetUserID(ctx))

	admin := WithUser(context.Background(), &UserContext{UserID: "root", IsAdmin: true})
	assert.True(t, HasPermission(admin, "ledger:write"))
}

func TestNewTraceContextKeepsRequestID(t *testing.T) {
	tc := NewTraceContext(context.Background(), "req-42")
	assert.Equal(t, "req-42", tc.RequestID)
	assert.NotEmpty(t, tc.TraceID)

	generated := NewTraceContext(context.Background(), "")
	assert.NotEmpty(t, generated.RequestID)
	assert.Len(t, generated.SpanID, 16)
}

func TestNewTraceContextUsesSpanTraceID(t *testing.T) {
	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{0, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := NewTraceContext(ctx, "req-1")
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", tc.TraceID)
	assert.Equal(t, "req-1", GetRequestID(WithTrace(ctx, tc)))
}
