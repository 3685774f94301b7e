package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mkrupp/jwtauth/internal/domain"
	context_ "github.com/mkrupp/jwtauth/internal/infra/context"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

// Authenticator decides whether an Authorization header value proves an identity.
type Authenticator interface {
	Name() string
	Challenge() string
	Authenticate(ctx context.Context, authorization string, now time.Time) domain.AuthResult
}

// AuthObserver is notified of every authentication attempt.
type AuthObserver interface {
	ObserveAuth(strategy string, result domain.AuthResult, elapsed time.Duration)
}

// Clock returns the current time.
type Clock func() time.Time

// AuthenticatingMiddleware runs auth against the Authorization header.
// Granted requests continue with the identity on the context. Denied
// requests get a 401 carrying only a challenge. System failures get a 500.
// observer may be nil.
func AuthenticatingMiddleware(
	next http.Handler,
	auth Authenticator,
	observer AuthObserver,
	clock Clock,
	log logging.Logger,
) http.Handler {
	if clock == nil {
		clock = time.Now
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()

		result := auth.Authenticate(ctx, r.Header.Get("Authorization"), clock())

		if observer != nil {
			observer.ObserveAuth(auth.Name(), result, time.Since(start))
		}

		switch result.Outcome {
		case domain.OutcomeAuthenticated:
			log.DebugContext(ctx, "authenticated",
				"strategy", auth.Name(),
				"username", result.Identity.Username,
			)

			next.ServeHTTP(w, r.WithContext(context_.WithIdentity(ctx, result.Identity)))
		case domain.OutcomeRejected:
			log.WarnContext(ctx, "authentication denied",
				"strategy", auth.Name(),
				"reason", result.Reason,
			)

			WriteUnauthorized(w, auth.Challenge())
		default:
			log.ErrorContext(ctx, "authentication failed",
				"strategy", auth.Name(),
				"error", result.Cause,
			)

			WriteInternalError(w)
		}
	})
}
