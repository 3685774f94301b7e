package authsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

// TokenService exchanges proof of identity for a fresh token: credentials on
// login, a still-valid token on refresh. Refresh does not revoke the old token.
type TokenService struct {
	verifier Verifier
	codec    *TokenCodec
	ttl      time.Duration
	metrics  *Metrics
	log      logging.Logger
}

// NewTokenService creates a TokenService. metrics may be nil.
func NewTokenService(verifier Verifier, codec *TokenCodec, ttl time.Duration, metrics *Metrics) *TokenService {
	return &TokenService{
		verifier: verifier,
		codec:    codec,
		ttl:      ttl,
		metrics:  metrics,
		log:      logging.GetLogger("svc.authsvc.token_service"),
	}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Login verifies username and password and, if they match, issues a token.
func (s *TokenService) Login(ctx context.Context, username, password string, now time.Time) (string, domain.AuthResult) {
	result := s.verifier.Verify(ctx, username, password)

	return s.issueFor(ctx, result, TokenKindLogin, now)
}

// Refresh verifies token at now and, if it is still valid, issues a new token
// for the same subject expiring at now+ttl.
func (s *TokenService) Refresh(ctx context.Context, token string, now time.Time) (string, domain.AuthResult) {
	result := s.codec.ParseAndVerify(token, now)

	return s.issueFor(ctx, result, TokenKindRefresh, now)
}

// Issue signs a token for an identity a Strategy has already authenticated.
func (s *TokenService) Issue(ctx context.Context, identity domain.PublicUser, kind string, now time.Time) (_ string, err error) {
	log := s.log.With(logging.Group("issue",
		"kind", kind,
		"sub", identity.Username,
		"exp", now.Add(s.ttl).UTC().Format(time.RFC3339),
	))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "issue token failed", "error", err)
		} else {
			log.DebugContext(ctx, "token issued")
		}
	}()

	token, err := s.codec.Issue(identity.Username, identity, now, s.ttl)
	if err != nil {
		return "", fmt.Errorf("issue %s token: %w", kind, err)
	}

	if s.metrics != nil {
		s.metrics.ObserveIssued(kind)
	}

	return token, nil
}

func (s *TokenService) issueFor(ctx context.Context, result domain.AuthResult, kind string, now time.Time) (string, domain.AuthResult) {
	if !result.OK() {
		return "", result
	}

	token, err := s.Issue(ctx, result.Identity, kind, now)
	if err != nil {
		return "", domain.SystemFailure(err)
	}

	return token, result
}
