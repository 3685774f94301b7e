package usersvc_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/jwtauth/internal/domain"
	http_ "github.com/mkrupp/jwtauth/internal/infra/transport/http"
	"github.com/mkrupp/jwtauth/internal/repo/user"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc"
	"github.com/mkrupp/jwtauth/internal/svc/usersvc"
)

type fixture struct {
	repo   *user.SQLiteUserRepository
	hasher *authsvc.PasswordHasher
	router http.Handler
}

func setup(t *testing.T, cfg usersvc.UsersConfig) *fixture {
	t.Helper()

	repo, err := user.NewSQLiteUserRepository(context.Background(), user.SQLiteUserRepositoryConfig{
		DatabasePath: filepath.Join(t.TempDir(), "users.db"),
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = repo.Close() })

	hasher, err := authsvc.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	svc := usersvc.NewUserService(repo, hasher)

	return &fixture{
		repo:   repo,
		hasher: hasher,
		router: http_.NewRouter(usersvc.NewHTTPTransport(svc, cfg)),
	}
}

func (f *fixture) do(t *testing.T, method, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func TestHandleRegister(t *testing.T) {
	t.Parallel()

	f := setup(t, usersvc.UsersConfig{})

	rec := f.do(t, http.MethodPost, `{"username":"alice","password":"password123","firstName":" Alice ","lastName":"Liddell"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"username":"alice","firstName":"Alice","lastName":"Liddell"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	stored, err := f.repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, f.hasher.Verify("password123", stored.PasswordHash))

	t.Run("duplicate username", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, `{"username":"alice","password":"password456"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t,
			`{"code":422,"reason":"ValidationError","message":"Username already taken","location":"username"}`,
			rec.Body.String())
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, `{"username":"bob","password":"short"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var verr domain.ValidationError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verr))
		assert.Equal(t, "password", verr.Location)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, ``)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"Missing field"`)
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, `{"username":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleList(t *testing.T) {
	t.Parallel()

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		f := setup(t, usersvc.UsersConfig{})
		rec := f.do(t, http.MethodGet, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		f := setup(t, usersvc.UsersConfig{ListEnabled: true})
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, `{"username":"alice","password":"password123"}`).Code)
		require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, `{"username":"bob","password":"password123"}`).Code)

		rec := f.do(t, http.MethodGet, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`[{"username":"alice","firstName":"","lastName":""},{"username":"bob","firstName":"","lastName":""}]`,
			rec.Body.String())
	})
}
