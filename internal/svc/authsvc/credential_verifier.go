package authsvc

import (
	"context"
	"errors"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	"github.com/mkrupp/jwtauth/internal/repo/user"
)

// UserFinder is the part of user.Repository the verifier needs.
type UserFinder interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

var _ UserFinder = (user.Repository)(nil)

// CredentialVerifier checks a username/password pair against the user store.
type CredentialVerifier struct {
	users  UserFinder
	hasher *PasswordHasher
	log    logging.Logger
}

// NewCredentialVerifier creates a CredentialVerifier.
func NewCredentialVerifier(users UserFinder, hasher *PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{
		users:  users,
		hasher: hasher,
		log:    logging.GetLogger("svc.authsvc.credential_verifier"),
	}
}

// Verify looks the user up by exact username and compares the password.
// Unknown users and wrong passwords are indistinguishable to the caller:
// both are Rejected with domain.ErrInvalidCredentials after a bcrypt comparison.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) domain.AuthResult {
	if err := ctx.Err(); err != nil {
		return domain.SystemFailure(err)
	}

	found, err := v.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			v.hasher.VerifyDummy(password)

			return domain.Rejected(domain.ErrInvalidCredentials)
		}

		v.log.ErrorContext(ctx, "user lookup failed", "error", err)

		return domain.SystemFailure(errors.Join(domain.ErrStoreUnavailable, err))
	}

	if !v.hasher.Verify(password, found.PasswordHash) {
		return domain.Rejected(domain.ErrInvalidCredentials)
	}

	return domain.Authenticated(found.Public())
}
