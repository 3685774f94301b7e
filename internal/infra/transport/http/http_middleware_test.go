package http_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/jwtauth/internal/domain"
	context_ "github.com/mkrupp/jwtauth/internal/infra/context"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
	http_ "github.com/mkrupp/jwtauth/internal/infra/transport/http"
)

type fakeAuthenticator struct {
	result  domain.AuthResult
	gotAuth string
	gotNow  time.Time
}

func (f *fakeAuthenticator) Name() string      { return "fake" }
func (f *fakeAuthenticator) Challenge() string { return `Fake realm="Users"` }
func (f *fakeAuthenticator) Authenticate(_ context.Context, authorization string, now time.Time) domain.AuthResult {
	f.gotAuth = authorization
	f.gotNow = now

	return f.result
}

type recordingObserver struct {
	strategies []string
	outcomes   []domain.AuthOutcome
}

func (o *recordingObserver) ObserveAuth(strategy string, result domain.AuthResult, _ time.Duration) {
	o.strategies = append(o.strategies, strategy)
	o.outcomes = append(o.outcomes, result.Outcome)
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := context_.IdentityFromContext(r.Context())
		require.True(t, ok)

		_, _ = w.Write([]byte(identity.Username))
	})
}

func TestAuthenticatingMiddleware(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	log := logging.NewNopLogger()

	tests := []struct {
		name          string
		result        domain.AuthResult
		wantStatus    int
		wantBody      string
		wantChallenge string
	}{
		{
			name:       "granted",
			result:     domain.Authenticated(domain.PublicUser{Username: "alice"}),
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:          "denied",
			result:        domain.Rejected(domain.ErrTokenExpired),
			wantStatus:    http.StatusUnauthorized,
			wantBody:      "Unauthorized\n",
			wantChallenge: `Fake realm="Users"`,
		},
		{
			name:       "system error",
			result:     domain.SystemFailure(errors.New("db gone")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"code":500,"message":"Internal server error"}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := &fakeAuthenticator{result: tt.result}
			observer := &recordingObserver{}
			handler := http_.AuthenticatingMiddleware(identityEcho(t), auth, observer, clock, log)

			req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
			req.Header.Set("Authorization", "Bearer abc")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantChallenge, rec.Header().Get("WWW-Authenticate"))
			assert.Equal(t, "Bearer abc", auth.gotAuth)
			assert.Equal(t, now, auth.gotNow)
			assert.Equal(t, []string{"fake"}, observer.strategies)
			assert.Equal(t, []domain.AuthOutcome{tt.result.Outcome}, observer.outcomes)
		})
	}
}

func TestRouterNotFound(t *testing.T) {
	t.Parallel()

	router := http_.NewRouter(http_.RouteRegistrarFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /known", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/known", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	called := false
	handler := http_.CORSMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}), "")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type,Authorization", rec.Header().Get("Access-Control-Allow-Headers"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRescueingMiddleware(t *testing.T) {
	t.Parallel()

	handler := http_.RescueingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}), logging.NewNopLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"message":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestTracingMiddleware(t *testing.T) {
	t.Parallel()

	var seen string

	handler := http_.TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = context_.TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(http_.TraceIDHeader, "given-id")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", seen)
	assert.Equal(t, "given-id", rec.Header().Get(http_.TraceIDHeader))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(http_.TraceIDHeader))
}

func TestRateLimitingMiddleware(t *testing.T) {
	t.Parallel()

	limiter := http_.NewRateLimiter(0.001, 2)
	handler := http_.RateLimitingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), limiter, logging.NewNopLogger())

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1111"))
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Parallel()

	limiter := http_.NewRateLimiter(0, 0)
	now := time.Now()

	for range 100 {
		require.True(t, limiter.Allow("client", now))
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, http_.NewRouter(), http_.HTTPTransportConfig{
			ReadHeaderTimeout: 1,
			ReadTimeout:       1,
			WriteTimeout:      1,
			ShutdownTimeout:   1,
		})
	}()

	resp, err := http.Get("http://" + sock.Addr().String() + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(http_.TraceIDHeader))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeDrainsInFlightRequests(t *testing.T) {
	t.Parallel()

	sock, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		started = make(chan struct{})
		release = make(chan struct{})
		ctxErr  = make(chan error, 1)
	)

	router := http_.NewRouter(http_.RouteRegistrarFunc(func(mux *http.ServeMux) {
		mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-release

			ctxErr <- r.Context().Err()

			w.WriteHeader(http.StatusNoContent)
		})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- http_.Serve(ctx, sock, router, http_.HTTPTransportConfig{
			ReadHeaderTimeout: 5,
			ReadTimeout:       5,
			WriteTimeout:      5,
			ShutdownTimeout:   5,
		})
	}()

	status := make(chan int, 1)

	go func() {
		resp, err := http.Get("http://" + sock.Addr().String() + "/slow")
		if err != nil {
			status <- 0

			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()
	// give Serve time to enter Shutdown before the handler returns
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-ctxErr, "request context must survive the shutdown signal")
	assert.Equal(t, http.StatusNoContent, <-status)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
