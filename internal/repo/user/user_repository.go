package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/jwtauth/internal/domain"
)

// ErrUnknownDriver is returned by NewRepositoryFactory for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown user repository driver")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Repository defines the interface for user data persistence.
// Usernames are matched exactly, including case.
type Repository interface {
	// CreateUser stores u and sets its ID. Returns domain.ErrUserAlreadyExists
	// if the username is taken.
	CreateUser(ctx context.Context, u *domain.User) error

	// GetUserByUsername returns the user or an error wrapping domain.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// ListUsers returns every user ordered by id.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)

// RepositoryConfig selects and configures the storage backend.
type RepositoryConfig struct {
	// Driver is either "sqlite" or "postgres"
	Driver string `env:"DRIVER" default:"sqlite"`

	SQLite   SQLiteUserRepositoryConfig
	Postgres PostgresUserRepositoryConfig
}

// Validate implements config.Validator.
func (c *RepositoryConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		return nil
	case DriverPostgres:
		if c.Postgres.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for %s", domain.ErrConfigurationMissing, DriverPostgres)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
	}
}

// NewRepositoryFactory returns the factory for the configured driver.
func NewRepositoryFactory(cfg RepositoryConfig) (RepositoryFactory, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return SQLiteUserRepositoryFactory(cfg.SQLite), nil
	case DriverPostgres:
		return PostgresUserRepositoryFactory(cfg.Postgres), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
