package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "lingua/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestWithContext_AddsTraceAndTenant(t *testing.T) {
	log, logs := observed()

	ctx := appctx.WithTrace(context.Background(), appctx.ContinueTrace("req-1", "trace-1"))
	ctx = appctx.WithScope(ctx, &appctx.RequestScope{TenantID: "root", ContentLocale: "de-DE"})

	log.WithContext(ctx).Infow("locale created", "code", "en")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "trace-1", fields["trace_id"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "root", fields["tenant_id"])
		assert.Equal(t, "de-DE", fields["content_locale"])
		assert.Equal(t, "en", fields["code"])
	}
}

func TestFromContext_UsesStoredLogger(t *testing.T) {
	log, logs := observed()
	ctx := WithLogger(context.Background(), log.WithComponent("locales"))

	Warn(ctx, "default locale missing")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "locales", entries[0].ContextMap()["component"])
	}
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})

	assert.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zap.InfoLevel))
}
