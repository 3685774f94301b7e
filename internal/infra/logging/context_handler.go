package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/jwtauth/internal/infra/context"
)

// ContextHandler copies request-scoped values onto every record: the trace ID
// as trace.id and, once a request is authenticated, the username as auth.user.
type ContextHandler struct {
	next slog.Handler
}

var _ slog.Handler = (*ContextHandler)(nil)

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	if username := context_.Username(ctx); username != "" {
		r.AddAttrs(slog.Group("auth", slog.String("user", username)))
	}

	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewContextHandler(h.next.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) Handler {
	return NewContextHandler(h.next.WithGroup(name))
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}
