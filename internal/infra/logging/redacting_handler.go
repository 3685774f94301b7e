package logging

import (
	"context"
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of any sensitive attribute.
const RedactedValue = "[REDACTED]"

//nolint:gochecknoglobals
var sensitiveKeys = map[string]struct{}{
	"password":       {},
	"password_hash":  {},
	"passwordhash":   {},
	"secret":         {},
	"signing_secret": {},
	"signingsecret":  {},
	"authorization":  {},
	"token":          {},
	"authtoken":      {},
}

// RedactingHandler masks attributes whose key names a credential before
// passing the record on. Matching is case-insensitive and applies inside groups.
type RedactingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*RedactingHandler)(nil)

// NewRedactingHandler wraps h.
func NewRedactingHandler(h slog.Handler) *RedactingHandler {
	return &RedactingHandler{h: h}
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))

		return true
	})

	//nolint:wrapcheck
	return h.h.Handle(ctx, clean)
}

func redact(a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, RedactedValue)
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]any, 0, len(group))

		for _, ga := range group {
			out = append(out, redact(ga))
		}

		return slog.Group(a.Key, out...)
	}

	return a
}

// WithAttrs implements slog.Handler.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, redact(a))
	}

	return NewRedactingHandler(h.h.WithAttrs(clean))
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) Handler {
	return NewRedactingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
