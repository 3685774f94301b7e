package authsvc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/jwtauth/internal/domain"
)

// errUnexpectedAlgorithm is returned from the key func so an algorithm
// mismatch can be told apart from a bad signature.
var errUnexpectedAlgorithm = errors.New("unexpected signing algorithm")

// Claims is the payload of an issued token: the public identity plus the
// registered sub, iat and exp claims.
type Claims struct {
	User domain.PublicUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 tokens under a single secret.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewTokenCodec returns a codec for secret. The secret is copied.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret", domain.ErrConfigurationMissing)
	}

	return &TokenCodec{
		secret: append([]byte(nil), secret...),
		method: jwt.SigningMethodHS256,
	}, nil
}

// Issue signs a token for subject carrying identity, valid for [now, now+ttl).
// iat and exp are whole seconds rounded down, so with a fractional now the
// token expires up to a second before now+ttl, never after it.
func (c *TokenCodec) Issue(subject string, identity domain.PublicUser, now time.Time, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", domain.ErrTokenMalformed)
	}

	claims := Claims{
		User: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return token, nil
}

// ParseAndVerify checks, in order, that the token is well formed, names HS256,
// carries a valid signature and has not expired at now. It never yields
// Authenticated with an empty subject.
func (c *TokenCodec) ParseAndVerify(token string, now time.Time) domain.AuthResult {
	claims := new(Claims)

	parser := jwt.NewParser(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	_, err := parser.ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		return domain.Rejected(classifyTokenError(err))
	}

	if claims.Subject == "" {
		return domain.Rejected(fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed))
	}

	identity := claims.User
	if identity.Username == "" {
		identity.Username = claims.Subject
	}

	return domain.Authenticated(identity)
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != c.method.Alg() {
		return nil, fmt.Errorf("%w: %v", errUnexpectedAlgorithm, t.Header["alg"])
	}

	return c.secret, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Join(domain.ErrTokenMalformed, err)
	case errors.Is(err, errUnexpectedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Join(domain.ErrTokenAlgorithmMismatch, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return errors.Join(domain.ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Join(domain.ErrTokenExpired, err)
	default:
		return errors.Join(domain.ErrTokenMalformed, err)
	}
}
