package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_RoundTrip(t *testing.T) {
	ctx := WithScope(context.Background(), &RequestScope{TenantID: "root", ContentLocale: "en-US"})

	assert.Equal(t, "root", GetTenantID(ctx))
	assert.Equal(t, "en-US", GetContentLocale(ctx))
}

func TestScope_Missing(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, GetScope(ctx))
	assert.Empty(t, GetTenantID(ctx))
	assert.Empty(t, GetContentLocale(ctx))
}

func TestTrace(t *testing.T) {
	trace := NewTraceContext()
	ctx := WithTrace(context.Background(), trace)

	assert.Equal(t, trace.TraceID, GetTraceID(ctx))
	assert.Equal(t, trace.RequestID, GetRequestID(ctx))
	assert.Len(t, trace.SpanID, 16)
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestContinueTrace_KeepsPropagatedIDs(t *testing.T) {
	trace := ContinueTrace("req-1", "trace-1")

	assert.Equal(t, "req-1", trace.RequestID)
	assert.Equal(t, "trace-1", trace.TraceID)
	assert.NotEmpty(t, trace.SpanID)
}
