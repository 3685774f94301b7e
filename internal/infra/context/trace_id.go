package context

import "context"

//nolint:gochecknoglobals
var traceIDKey = key[string]{"traceID"}

// TraceIDFromContext returns the request's trace ID, if one was assigned.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	return traceIDKey.from(ctx)
}

// WithTraceID returns ctx carrying traceID. An empty traceID is ignored.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}

	return traceIDKey.with(ctx, traceID)
}
