package authsvc

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/jwtauth/internal/domain"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// SigningSecret is the HMAC key for HS256 tokens. Required.
	SigningSecret string `env:"SIGNING_SECRET" default:""`

	// TokenTTL is how long an issued token stays valid; "7d" is accepted
	TokenTTL time.Duration `env:"TOKEN_TTL" default:"168h"`

	// PasswordCost is the bcrypt work factor
	PasswordCost int `env:"PASSWORD_COST" default:"10"`
}

// Validate implements config.Validator.
func (c *AuthConfig) Validate() error {
	if c.SigningSecret == "" {
		return fmt.Errorf("%w: signing secret", domain.ErrConfigurationMissing)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: token ttl must be positive, got %s", ErrInvalidConfig, c.TokenTTL)
	}

	if c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: password cost %d outside [%d, %d]",
			ErrInvalidConfig, c.PasswordCost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}
