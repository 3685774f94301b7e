package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	// Unknown users and wrong passwords both map to it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoCredentials is returned when a request carries no usable Basic credentials.
	ErrNoCredentials = errors.New("no credentials")
	// ErrStoreUnavailable is returned when the user store cannot answer a lookup.
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// User represents a registered account.
type User struct {
	ID           int64  `json:"-"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // bcrypt, never leaves the service
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	CreatedAt    int64  `json:"-"` // Unix timestamp of account creation
}

// PublicUser is the outward-facing projection of a User. It is what tokens
// carry and what the API returns.
type PublicUser struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Public returns the public projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
