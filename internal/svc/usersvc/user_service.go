package usersvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	"github.com/mkrupp/jwtauth/internal/repo/user"
)

// UsersConfig contains configuration for the user service.
type UsersConfig struct {
	// ListEnabled exposes GET /api/users
	ListEnabled bool `env:"LIST_ENABLED" default:"false"`
}

// PasswordHasher turns a plaintext password into a storable hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// UserService registers and lists users.
type UserService struct {
	repo   user.Repository
	hasher PasswordHasher
	log    logging.Logger
	now    func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(repo user.Repository, hasher PasswordHasher) *UserService {
	return &UserService{
		repo:   repo,
		hasher: hasher,
		log:    logging.GetLogger("svc.usersvc.user_service"),
		now:    time.Now,
	}
}

// Register stores a new user from a validated registration. A taken username
// yields a *domain.ValidationError located at "username".
func (s *UserService) Register(ctx context.Context, reg Registration) (_ domain.PublicUser, err error) {
	log := s.log.With(logging.Group("user", "username", reg.Username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "register user failed", "error", err)
		} else {
			log.InfoContext(ctx, "user registered")
		}
	}()

	_, err = s.repo.GetUserByUsername(ctx, reg.Username)

	switch {
	case err == nil:
		return domain.PublicUser{}, usernameTaken()
	case !errors.Is(err, domain.ErrUserNotFound):
		return domain.PublicUser{}, fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Username:     reg.Username,
		PasswordHash: hash,
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		CreatedAt:    s.now().Unix(),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return domain.PublicUser{}, usernameTaken()
		}

		return domain.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	return u.Public(), nil
}

// List returns the public projection of every user.
func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}

	return out, nil
}

func usernameTaken() *domain.ValidationError {
	return domain.NewValidationError(fieldUsername, "Username already taken")
}
