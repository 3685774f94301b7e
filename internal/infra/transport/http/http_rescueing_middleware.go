package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

// RescueingMiddleware recovers from panics in handlers, logs the stack and
// answers with the generic 500 body.
func RescueingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}

			if p == http.ErrAbortHandler { //nolint:errorlint,err113
				panic(p)
			}

			log.ErrorContext(r.Context(), "request panic", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			), slog.Group("error",
				"panic", p,
				"stack", string(debug.Stack()),
			))

			WriteInternalError(w)
		}()

		next.ServeHTTP(w, r)
	})
}
