package authclient

import (
	"context"
	"errors"

	"github.com/mkrupp/jwtauth/internal/domain"
)

var (
	// ErrUnauthorized is returned when the service answers 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnexpectedStatus is returned for any other non-success status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthClient talks to the auth API.
type AuthClient interface {
	// Register creates a user. A refused payload is returned as *domain.ValidationError.
	Register(ctx context.Context, req RegisterRequest) (domain.PublicUser, error)
	// Login exchanges credentials for a token.
	Login(ctx context.Context, username, password string) (string, error)
	// Refresh exchanges a valid token for a new one.
	Refresh(ctx context.Context, token string) (string, error)
	// Validate reports whether token is accepted by the protected endpoint.
	Validate(ctx context.Context, token string) (bool, error)
}
