package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mkrupp/jwtauth/internal/domain"
	context_ "github.com/mkrupp/jwtauth/internal/infra/context"
	"github.com/mkrupp/jwtauth/internal/infra/logging"
)

const (
	TraceIDHeader       = "X-Request-ID"
	AuthorizationHeader = "Authorization"
)

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// BaseURL is the root of the auth API
	BaseURL string `env:"BASE_URL" default:"http://localhost:8080"`
}

// HTTPClient implements AuthClient over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.authclient.http_client"),
		cfg:        cfg,
	}
}

// Register implements AuthClient.Register.
func (c *HTTPClient) Register(ctx context.Context, reg RegisterRequest) (domain.PublicUser, error) {
	body, err := json.Marshal(reg)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/users", "", bytes.NewReader(body))
	if err != nil {
		return domain.PublicUser{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		var created domain.PublicUser
		if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
			return domain.PublicUser{}, fmt.Errorf("decode response: %w", err)
		}

		return created, nil
	case http.StatusUnprocessableEntity:
		verr := new(domain.ValidationError)
		if err := json.NewDecoder(resp.Body).Decode(verr); err != nil {
			return domain.PublicUser{}, fmt.Errorf("decode validation error: %w", err)
		}

		return domain.PublicUser{}, verr
	default:
		return domain.PublicUser{}, statusError(resp)
	}
}

// Login implements AuthClient.Login using HTTP Basic credentials.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/login", nil)
	if err != nil {
		return "", err
	}

	req.SetBasicAuth(username, password)

	return c.tokenCall(req)
}

// Refresh implements AuthClient.Refresh.
func (c *HTTPClient) Refresh(ctx context.Context, token string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return "", err
	}

	req.Header.Set(AuthorizationHeader, "Bearer "+token)

	return c.tokenCall(req)
}

// Validate implements AuthClient.Validate by calling the protected endpoint.
func (c *HTTPClient) Validate(ctx context.Context, token string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/protected", "Bearer "+token, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

func (c *HTTPClient) tokenCall(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body domain.AuthTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return body.AuthToken, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	return req, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, authorization string, body io.Reader) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if authorization != "" {
		req.Header.Set(AuthorizationHeader, authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.log.DebugContext(ctx, "api call", logging.Group("http",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	))

	return resp, nil
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
}
