package utils

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id to the backend and back to the browser.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// NewRequestID returns a random request id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores id on ctx. An empty id is ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
