package authsvc_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/repo/user"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc"
)

const (
	testSecret   = "test-signing-secret"
	testPassword = "correct horse battery"
	testTTL      = 7 * 24 * time.Hour
)

//nolint:gochecknoglobals
var (
	testNow      = time.Unix(1700000000, 0)
	errRepoError = errors.New("repository error")
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users   map[string]*domain.User
	err     error
	lookups int
	m       sync.Mutex
}

var _ user.Repository = (*mockUserRepository)(nil)

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, exists := m.users[u.Username]; exists {
		return domain.ErrUserAlreadyExists
	}

	u.ID = int64(len(m.users) + 1)
	stored := *u
	m.users[u.Username] = &stored

	return nil
}

func (m *mockUserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.lookups++

	if m.err != nil {
		return nil, m.err
	}

	u, exists := m.users[username]
	if !exists {
		return nil, fmt.Errorf("query user: %w", domain.ErrUserNotFound)
	}

	found := *u

	return &found, nil
}

func (m *mockUserRepository) ListUsers(context.Context) ([]domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()

	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}

	return out, m.err
}

func (m *mockUserRepository) Close() error {
	return nil
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func (m *mockUserRepository) lookupCount() int {
	m.m.Lock()
	defer m.m.Unlock()

	return m.lookups
}

func testConfig(secret string) authsvc.AuthConfig {
	return authsvc.AuthConfig{
		SigningSecret: secret,
		TokenTTL:      testTTL,
		PasswordCost:  bcrypt.MinCost,
	}
}

// setupTestService returns a service whose store holds alice with testPassword.
func setupTestService(t *testing.T, secret string) (*authsvc.AuthService, *mockUserRepository) {
	t.Helper()

	repo := newMockUserRepo()

	svc, err := authsvc.NewAuthService(repo, testConfig(secret), prometheus.NewRegistry())
	require.NoError(t, err)

	addUser(t, svc, repo, "alice", testPassword)

	return svc, repo
}

func addUser(t *testing.T, svc *authsvc.AuthService, repo *mockUserRepository, username, password string) {
	t.Helper()

	hash, err := svc.Hasher.Hash(password)
	require.NoError(t, err)

	require.NoError(t, repo.CreateUser(context.Background(), &domain.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Alice",
		LastName:     "Liddell",
	}))
}
