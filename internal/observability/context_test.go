package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDContext(t *testing.T) {
	t.Run("stores and retrieves request ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")

		result := RequestIDFromContext(ctx)
		assert.Equal(t, "req-123", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := RequestIDFromContext(ctx)
		assert.Equal(t, "", result)
	})
}

func TestDatasetIDContext(t *testing.T) {
	t.Run("stores and retrieves dataset ID", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithDatasetID(ctx, "GSE12345")

		result := DatasetIDFromContext(ctx)
		assert.Equal(t, "GSE12345", result)
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		ctx := context.Background()
		result := DatasetIDFromContext(ctx)
		assert.Equal(t, "", result)
	})

	t.Run("keys are independent", func(t *testing.T) {
		ctx := context.Background()
		ctx = WithRequestID(ctx, "req-123")
		ctx = WithDatasetID(ctx, "GSE12345")

		assert.Equal(t, "req-123", RequestIDFromContext(ctx))
		assert.Equal(t, "GSE12345", DatasetIDFromContext(ctx))
	})
}
