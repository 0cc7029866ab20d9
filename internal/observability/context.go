package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	datasetIDKey contextKey = "dataset_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithDatasetID adds the dataset ID under discovery to the context.
func WithDatasetID(ctx context.Context, datasetID string) context.Context {
	return context.WithValue(ctx, datasetIDKey, datasetID)
}

// DatasetIDFromContext retrieves the dataset ID from context.
// Returns empty string if not present.
func DatasetIDFromContext(ctx context.Context) string {
	if v := ctx.Value(datasetIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
