package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/jwtauth/internal/domain"
)

func TestAuthResult(t *testing.T) {
	t.Parallel()

	alice := domain.PublicUser{Username: "alice"}
	boom := errors.New("boom")

	tests := []struct {
		name    string
		result  domain.AuthResult
		wantOK  bool
		wantErr error
		outcome string
	}{
		{"authenticated", domain.Authenticated(alice), true, nil, "authenticated"},
		{"rejected", domain.Rejected(domain.ErrTokenExpired), false, domain.ErrTokenExpired, "rejected"},
		{"system error", domain.SystemFailure(boom), false, boom, "system_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantOK, tt.result.OK())
			assert.Equal(t, tt.wantErr, tt.result.Err())
			assert.Equal(t, tt.outcome, tt.result.Outcome.String())
		})
	}
}

func TestUserPublic(t *testing.T) {
	t.Parallel()

	u := &domain.User{ID: 7, Username: "alice", PasswordHash: "$2a$10$x", FirstName: "Alice", LastName: "Liddell"}

	assert.Equal(t, domain.PublicUser{Username: "alice", FirstName: "Alice", LastName: "Liddell"}, u.Public())
}
