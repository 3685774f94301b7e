package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mkrupp/jwtauth/internal/domain"
	context_ "github.com/mkrupp/jwtauth/internal/infra/context"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	http_ "github.com/mkrupp/jwtauth/internal/infra/transport/http"
)

// ErrNoIdentity is returned when a handler behind the authenticating
// middleware finds no identity on the request context.
var ErrNoIdentity = errors.New("no identity on context")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// LoginRate is the sustained login attempts per second per client; 0 disables limiting
	LoginRate int `env:"LOGIN_RATE" default:"5"`
	// LoginBurst is the number of login attempts a client may make at once
	LoginBurst int `env:"LOGIN_BURST" default:"10"`
}

// ProtectedResponse is the body of GET /api/protected.
type ProtectedResponse struct {
	Data string `json:"data"`
}

// HTTPTransport serves the login, refresh and protected endpoints.
type HTTPTransport struct {
	tokens   *TokenService
	password Strategy
	token    Strategy
	metrics  *Metrics
	limiter  *http_.RateLimiter
	clock    http_.Clock
	log      logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTPTransport. clock may be nil.
func NewHTTPTransport(
	tokens *TokenService,
	password *PasswordStrategy,
	token *TokenStrategy,
	metrics *Metrics,
	clock http_.Clock,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	if clock == nil {
		clock = time.Now
	}

	return &HTTPTransport{
		tokens:   tokens,
		password: password,
		token:    token,
		metrics:  metrics,
		limiter:  http_.NewRateLimiter(float64(cfg.LoginRate), cfg.LoginBurst),
		clock:    clock,
		log:      logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// RegisterRoutes mounts:
//   - POST /api/auth/login: Basic credentials for a token
//   - POST /api/auth/refresh: a valid token for a new token
//   - GET /api/protected: sample endpoint behind the token strategy
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	login := ht.authenticate(http.HandlerFunc(ht.HandleLogin), ht.password)
	login = http_.RateLimitingMiddleware(login, ht.limiter, ht.log)

	mux.Handle("POST /api/auth/login", login)
	mux.Handle("POST /api/auth/refresh", ht.authenticate(http.HandlerFunc(ht.HandleRefresh), ht.token))
	mux.Handle("GET /api/protected", ht.authenticate(http.HandlerFunc(ht.HandleProtected), ht.token))
}

func (ht *HTTPTransport) authenticate(next http.Handler, strategy Strategy) http.Handler {
	var observer http_.AuthObserver
	if ht.metrics != nil {
		observer = ht.metrics
	}

	return http_.AuthenticatingMiddleware(next, strategy, observer, ht.clock, ht.log)
}

// HandleLogin issues a token for the identity the password strategy established.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleIssue(w, r, TokenKindLogin)
}

// HandleRefresh issues a token for the identity the token strategy established.
func (ht *HTTPTransport) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleIssue(w, r, TokenKindRefresh)
}

func (ht *HTTPTransport) handleIssue(w http.ResponseWriter, r *http.Request, kind string) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, kind+" failed", "error", err)
		} else {
			log.DebugContext(ctx, kind+" succeeded")
		}
	}(r.Context())

	identity, ok := context_.IdentityFromContext(r.Context())
	if !ok {
		http_.WriteInternalError(w)

		return ErrNoIdentity
	}

	log = log.With(logging.Group("user", "username", identity.Username))

	token, err := ht.tokens.Issue(r.Context(), identity, kind, ht.clock())
	if err != nil {
		http_.WriteInternalError(w)

		return fmt.Errorf("issue token: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusOK, domain.AuthTokenResponse{AuthToken: token}); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// HandleProtected answers authenticated callers with a fixed payload.
func (ht *HTTPTransport) HandleProtected(w http.ResponseWriter, r *http.Request) {
	if err := http_.WriteJSON(w, http.StatusOK, ProtectedResponse{Data: "rosebud"}); err != nil {
		ht.log.ErrorContext(r.Context(), "write protected response failed", "error", err)
	}
}
