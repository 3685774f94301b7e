package domain

import "errors"

var (
	// ErrNoAuthToken is returned when a bearer token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrTokenMalformed is returned when a token is not a well-formed signed token.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid is returned when a token's signature does not verify.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenAlgorithmMismatch is returned when a token names an algorithm other than HS256.
	ErrTokenAlgorithmMismatch = errors.New("token algorithm mismatch")
	// ErrConfigurationMissing is returned when a required setting, such as the signing secret, is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
)

// AuthTokenResponse is the body returned by login and refresh.
type AuthTokenResponse struct {
	AuthToken string `json:"authToken"`
}
