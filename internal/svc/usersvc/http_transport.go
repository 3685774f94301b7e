package usersvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	http_ "github.com/mkrupp/jwtauth/internal/infra/transport/http"
)

const maxBodyBytes = 1 << 16

// HTTPTransport serves the user registration endpoints.
type HTTPTransport struct {
	userSvc *UserService
	cfg     UsersConfig
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport(userSvc *UserService, cfg UsersConfig) *HTTPTransport {
	return &HTTPTransport{
		userSvc: userSvc,
		cfg:     cfg,
		log:     logging.GetLogger("svc.usersvc.http_transport"),
	}
}

// RegisterRoutes mounts POST /api/users and, when enabled, GET /api/users.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", ht.HandleRegister)

	if ht.cfg.ListEnabled {
		mux.HandleFunc("GET /api/users", ht.HandleList)
	}
}

// HandleRegister processes user registration requests.
// Expects a JSON object with username, password and optional firstName, lastName.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	body := map[string]any{}

	if err := http_.DecodeJSON(w, r, &body, maxBodyBytes); err != nil && !errors.Is(err, io.EOF) {
		http_.WriteError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))

		return err
	}

	reg, verr := ValidateRegistration(body)
	if verr != nil {
		_ = http_.WriteJSON(w, verr.Code, verr)

		return verr
	}

	created, err := ht.userSvc.Register(r.Context(), reg)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			_ = http_.WriteJSON(w, verr.Code, verr)
		} else {
			http_.WriteInternalError(w)
		}

		return fmt.Errorf("register user: %w", err)
	}

	if err := http_.WriteJSON(w, http.StatusCreated, created); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// HandleList returns every user's public identity.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := ht.userSvc.List(r.Context())
	if err != nil {
		ht.log.ErrorContext(r.Context(), "list users failed", "error", err)
		http_.WriteInternalError(w)

		return
	}

	if err := http_.WriteJSON(w, http.StatusOK, users); err != nil {
		ht.log.ErrorContext(r.Context(), "write users failed", "error", err)
	}
}
