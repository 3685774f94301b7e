package authsvc

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/mkrupp/jwtauth/internal/domain"
)

const (
	StrategyPassword = "basic"
	StrategyToken    = "jwt"

	realm = "Users"
)

// Strategy authenticates one request from its Authorization header value.
// The set of strategies is closed: PasswordStrategy and TokenStrategy.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	// Challenge is the WWW-Authenticate value sent with a 401.
	Challenge() string
	// Authenticate runs AwaitingCredentials -> Verifying -> Granted|Denied.
	Authenticate(ctx context.Context, authorization string, now time.Time) domain.AuthResult

	strategy()
}

// Verifier checks a username/password pair.
type Verifier interface {
	Verify(ctx context.Context, username, password string) domain.AuthResult
}

// TokenVerifier checks a signed token at a point in time.
type TokenVerifier interface {
	ParseAndVerify(token string, now time.Time) domain.AuthResult
}

var (
	_ Verifier      = (*CredentialVerifier)(nil)
	_ TokenVerifier = (*TokenCodec)(nil)
)

// PasswordStrategy authenticates with HTTP Basic credentials.
type PasswordStrategy struct {
	verifier Verifier
}

var _ Strategy = (*PasswordStrategy)(nil)

// NewPasswordStrategy creates a PasswordStrategy backed by verifier.
func NewPasswordStrategy(verifier Verifier) *PasswordStrategy {
	return &PasswordStrategy{verifier: verifier}
}

func (*PasswordStrategy) strategy() {}

// Name implements Strategy.
func (*PasswordStrategy) Name() string { return StrategyPassword }

// Challenge implements Strategy.
func (*PasswordStrategy) Challenge() string { return `Basic realm="` + realm + `"` }

// Authenticate implements Strategy. Missing or unparsable credentials are
// Denied without consulting the verifier.
func (s *PasswordStrategy) Authenticate(ctx context.Context, authorization string, _ time.Time) domain.AuthResult {
	username, password, ok := ParseBasicAuth(authorization)
	if !ok {
		return domain.Rejected(domain.ErrNoCredentials)
	}

	return s.verifier.Verify(ctx, username, password)
}

// TokenStrategy authenticates with a Bearer token.
type TokenStrategy struct {
	verifier TokenVerifier
}

var _ Strategy = (*TokenStrategy)(nil)

// NewTokenStrategy creates a TokenStrategy backed by verifier.
func NewTokenStrategy(verifier TokenVerifier) *TokenStrategy {
	return &TokenStrategy{verifier: verifier}
}

func (*TokenStrategy) strategy() {}

// Name implements Strategy.
func (*TokenStrategy) Name() string { return StrategyToken }

// Challenge implements Strategy.
func (*TokenStrategy) Challenge() string { return `Bearer realm="` + realm + `"` }

// Authenticate implements Strategy. A missing token or a scheme other than
// Bearer is Denied without consulting the codec.
func (s *TokenStrategy) Authenticate(ctx context.Context, authorization string, now time.Time) domain.AuthResult {
	if err := ctx.Err(); err != nil {
		return domain.SystemFailure(err)
	}

	token, ok := ParseBearerToken(authorization)
	if !ok {
		return domain.Rejected(domain.ErrNoAuthToken)
	}

	return s.verifier.ParseAndVerify(token, now)
}

// ParseBasicAuth extracts credentials from a "Basic base64(user:pass)" header
// value. Both parts must be non-empty.
func ParseBasicAuth(authorization string) (username, password string, ok bool) {
	payload, ok := cutScheme(authorization, "Basic")
	if !ok {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", false
	}

	username, password, ok = strings.Cut(string(decoded), ":")
	if !ok || username == "" || password == "" {
		return "", "", false
	}

	return username, password, true
}

// ParseBearerToken extracts the token from a "Bearer <token>" header value.
func ParseBearerToken(authorization string) (string, bool) {
	token, ok := cutScheme(authorization, "Bearer")
	if !ok || strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}

// cutScheme splits "<scheme> <value>", matching scheme case-insensitively.
func cutScheme(authorization, scheme string) (string, bool) {
	authorization = strings.TrimSpace(authorization)

	name, value, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(name, scheme) {
		return "", false
	}

	value = strings.TrimSpace(value)

	return value, value != ""
}
