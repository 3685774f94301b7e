package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

// statusRecorder remembers the status and body size written through it.
type statusRecorder struct {
	http.ResponseWriter

	status  int
	written int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}

	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	n, err := w.ResponseWriter.Write(b)
	w.written += n

	//nolint:wrapcheck
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// statusLevel maps 5xx to ERROR, 401, 403 and 429 to WARN, and everything
// else to INFO. Other 4xx are client mistakes and stay at INFO.
func statusLevel(status int) logging.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logging.LevelError
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return logging.LevelWarn
	default:
		return logging.LevelInfo
	}
}

// LoggingMiddleware logs one line per request once the response is written,
// including the matched route pattern.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		log.Log(r.Context(), statusLevel(status), "request", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", status,
			"bytes", rec.written,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		))
	})
}
