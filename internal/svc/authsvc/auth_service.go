package authsvc

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkrupp/jwtauth/internal/infra/logging"
	"github.com/mkrupp/jwtauth/internal/repo/user"
)

// AuthService wires the password hasher, token codec, credential verifier,
// both strategies and the token service around one user repository.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Hasher   *PasswordHasher
	Codec    *TokenCodec
	Verifier *CredentialVerifier
	Password *PasswordStrategy
	Token    *TokenStrategy
	Tokens   *TokenService
	Metrics  *Metrics
	Log      logging.Logger
}

// NewAuthService builds an AuthService from an already opened repository.
// registerer may be nil, in which case no metrics are collected.
func NewAuthService(repo user.Repository, cfg AuthConfig, registerer prometheus.Registerer) (*AuthService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	hasher, err := NewPasswordHasher(cfg.PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("new password hasher: %w", err)
	}

	codec, err := NewTokenCodec([]byte(cfg.SigningSecret))
	if err != nil {
		return nil, fmt.Errorf("new token codec: %w", err)
	}

	var metrics *Metrics
	if registerer != nil {
		metrics = NewMetrics("jwtauth", registerer)
	}

	verifier := NewCredentialVerifier(repo, hasher)

	return &AuthService{
		Config:   cfg,
		UserRepo: repo,
		Hasher:   hasher,
		Codec:    codec,
		Verifier: verifier,
		Password: NewPasswordStrategy(verifier),
		Token:    NewTokenStrategy(codec),
		Tokens:   NewTokenService(verifier, codec, cfg.TokenTTL, metrics),
		Metrics:  metrics,
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// OpenAuthService opens the repository from factory and builds the service
// on it. The service owns the repository and closes it in Close.
func OpenAuthService(
	ctx context.Context,
	factory user.RepositoryFactory,
	cfg AuthConfig,
	registerer prometheus.Registerer,
) (*AuthService, error) {
	repo, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	svc, err := NewAuthService(repo, cfg, registerer)
	if err != nil {
		repo.Close()

		return nil, err
	}

	svc.Log.DebugContext(ctx, "auth service ready",
		logging.Group("config",
			"tokenTTL", cfg.TokenTTL,
			"passwordCost", cfg.PasswordCost,
		),
	)

	return svc, nil
}

// NewHTTPTransport creates the HTTP transport for this service.
func (s *AuthService) NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	return NewHTTPTransport(s.Tokens, s.Password, s.Token, s.Metrics, nil, cfg)
}

// Close releases resources held by the service, such as database connections.
func (s *AuthService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
