package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "orma-api", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer)
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "orma-api",
		Environment:  "test",
		Enabled:      true,
		Exporter:     "stdout",
		SamplerRatio: 1,
	})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	ctx, span := StartSpan(context.Background(), "feed.record", "abc123")
	AddTraceAttributesToContext(ctx, attribute.Int("orma.post_id", 1))
	assert.True(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("boom"))
}
