package authsvc_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/jwtauth/internal/domain"
	"github.com/mkrupp/jwtauth/internal/svc/authsvc"
)

type countingVerifier struct {
	calls              int
	username, password string
}

func (v *countingVerifier) Verify(_ context.Context, username, password string) domain.AuthResult {
	v.calls++
	v.username, v.password = username, password

	return domain.Authenticated(domain.PublicUser{Username: username})
}

type countingTokenVerifier struct {
	calls int
	token string
}

func (v *countingTokenVerifier) ParseAndVerify(token string, _ time.Time) domain.AuthResult {
	v.calls++
	v.token = token

	return domain.Authenticated(domain.PublicUser{Username: "alice"})
}

func basic(userPass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(userPass))
}

func TestParseBasicAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header       string
		wantOK       bool
		wantUser     string
		wantPassword string
	}{
		{header: basic("alice:secret"), wantOK: true, wantUser: "alice", wantPassword: "secret"},
		{header: basic("alice:se:cret"), wantOK: true, wantUser: "alice", wantPassword: "se:cret"},
		{header: "basic " + base64.StdEncoding.EncodeToString([]byte("alice:pw")), wantOK: true, wantUser: "alice", wantPassword: "pw"},
		{header: ""},
		{header: "Basic"},
		{header: "Basic !!!"},
		{header: basic("alice")},
		{header: basic(":secret")},
		{header: basic("alice:")},
		{header: "Bearer abc"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()

			username, password, ok := authsvc.ParseBasicAuth(tt.header)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUser, username)
			assert.Equal(t, tt.wantPassword, password)
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		wantOK bool
	}{
		{header: "Bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{header: "bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{header: "  Bearer   abc  ", want: "abc", wantOK: true},
		{header: ""},
		{header: "Bearer"},
		{header: "Bearer "},
		{header: "Bearer a b"},
		{header: "JWT abc"},
		{header: "abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()

			token, ok := authsvc.ParseBearerToken(tt.header)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestPasswordStrategy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing credentials never reach the verifier", func(t *testing.T) {
		t.Parallel()

		verifier := &countingVerifier{}
		strategy := authsvc.NewPasswordStrategy(verifier)

		for _, header := range []string{"", "Bearer abc", "Basic ???"} {
			result := strategy.Authenticate(ctx, header, testNow)

			assert.Equal(t, domain.OutcomeRejected, result.Outcome)
			require.ErrorIs(t, result.Reason, domain.ErrNoCredentials)
		}

		assert.Zero(t, verifier.calls)
	})

	t.Run("credentials are passed through", func(t *testing.T) {
		t.Parallel()

		verifier := &countingVerifier{}
		strategy := authsvc.NewPasswordStrategy(verifier)

		result := strategy.Authenticate(ctx, basic("alice:secret"), testNow)

		assert.True(t, result.OK())
		assert.Equal(t, 1, verifier.calls)
		assert.Equal(t, "alice", verifier.username)
		assert.Equal(t, "secret", verifier.password)
	})

	assert.Equal(t, authsvc.StrategyPassword, authsvc.NewPasswordStrategy(nil).Name())
	assert.Equal(t, `Basic realm="Users"`, authsvc.NewPasswordStrategy(nil).Challenge())
}

func TestTokenStrategy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing token never reaches the codec", func(t *testing.T) {
		t.Parallel()

		verifier := &countingTokenVerifier{}
		strategy := authsvc.NewTokenStrategy(verifier)

		for _, header := range []string{"", "Basic abc", "Bearer"} {
			result := strategy.Authenticate(ctx, header, testNow)

			assert.Equal(t, domain.OutcomeRejected, result.Outcome)
			require.ErrorIs(t, result.Reason, domain.ErrNoAuthToken)
		}

		assert.Zero(t, verifier.calls)
	})

	t.Run("token is passed through", func(t *testing.T) {
		t.Parallel()

		verifier := &countingTokenVerifier{}
		strategy := authsvc.NewTokenStrategy(verifier)

		result := strategy.Authenticate(ctx, "Bearer abc.def.ghi", testNow)

		assert.True(t, result.OK())
		assert.Equal(t, "abc.def.ghi", verifier.token)
	})

	t.Run("real codec end to end", func(t *testing.T) {
		t.Parallel()

		svc, _ := setupTestService(t, testSecret)

		token, err := svc.Codec.Issue("alice", alice, testNow, time.Minute)
		require.NoError(t, err)

		assert.True(t, svc.Token.Authenticate(ctx, "Bearer "+token, testNow).OK())

		expired := svc.Token.Authenticate(ctx, "Bearer "+token, testNow.Add(time.Minute))
		require.ErrorIs(t, expired.Reason, domain.ErrTokenExpired)
	})

	assert.Equal(t, authsvc.StrategyToken, authsvc.NewTokenStrategy(nil).Name())
	assert.Equal(t, `Bearer realm="Users"`, authsvc.NewTokenStrategy(nil).Challenge())
}
