package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "storeledger/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFromContextAddsCallerFields(t *testing.T) {
	l, logs := observed()

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(ctx, "req-1"))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1", StoreID: "store-9"})

	Warn(ctx, "stock drift detected", "product_id", "p-1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "store-9", fields["store_id"])
		assert.Equal(t, "u-1", fields["user_id"])
		assert.Equal(t, "p-1", fields["product_id"])
	}
}

func TestWithComponent(t *testing.T) {
	l, logs := observed()
	l.WithComponent("ledger").Infow("recorded")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "ledger", entries[0].ContextMap()["component"])
	}
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	l, err := New(Config{Level: "not-a-level", OutputPaths: []string{"stderr"}})
	assert.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestSetDefaultIsUsedWithoutContextLogger(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	l, logs := observed()
	SetDefault(l)
	Info(context.Background(), "ledger ready")

	assert.Equal(t, 1, logs.FilterMessage("ledger ready").Len())
}
