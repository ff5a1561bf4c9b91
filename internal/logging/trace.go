package logging

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type traceIDKey struct{}

// ContextWithTraceID attaches a trace ID to ctx.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID attached to ctx, if any.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(traceIDKey{}).(string)
	return id, ok
}

// GetOrGenerateTraceID returns the trace ID from ctx, generating a new ULID
// when none is present.
func GetOrGenerateTraceID(ctx context.Context) string {
	if id, ok := TraceIDFromContext(ctx); ok && id != "" {
		return id
	}
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // Trace IDs need uniqueness, not cryptographic strength.
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
