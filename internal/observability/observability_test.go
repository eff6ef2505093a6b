// internal/observability/observability_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestAttributesFromTags(t *testing.T) {
	t.Run("pairs", func(t *testing.T) {
		attrs := attributesFromTags([]string{"task", "sync_vms", "operation", "acquire"})
		assert.Equal(t, []attribute.KeyValue{
			attribute.String("task", "sync_vms"),
			attribute.String("operation", "acquire"),
		}, attrs)
	})

	t.Run("odd tag dropped", func(t *testing.T) {
		attrs := attributesFromTags([]string{"task", "sync_vms", "dangling"})
		assert.Equal(t, []attribute.KeyValue{
			attribute.String("task", "sync_vms"),
		}, attrs)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, attributesFromTags(nil))
	})
}

func TestMetricsClient(t *testing.T) {
	logger, _, err := NewTestLogger()
	require.NoError(t, err)

	// The global meter provider defaults to no-op, so recording is
	// exercised without a collector.
	m, err := NewMetricsClient(Config{
		ServiceName:    "taskleased",
		ServiceVersion: "0.1.0",
	}, logger)
	require.NoError(t, err)

	ctx := context.Background()
	m.Increment(ctx, "lease_acquire_total", 1, "task", "sync_vms")
	assert.NoError(t, m.RecordLatency(ctx, 5*time.Millisecond, "operation", "acquire"))
}
