// Package identity is the HTTP client for the remote identity service
// that owns credential checks and token validation.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"banking-client/internal/domain"
	"banking-client/internal/observability"
)

var (
	// ErrUnauthorized means the identity service definitively rejected
	// the token. Any other error from Validate is indeterminate.
	ErrUnauthorized = errors.New("token rejected by identity service")

	// ErrNoToken is returned when Validate runs with no armed token.
	ErrNoToken = errors.New("no bearer token armed")

	ErrInvalidResponse = errors.New("invalid response from identity service")
)

// APIError is a failure the identity service described itself, e.g. bad
// credentials on login. Message is safe to surface to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("identity service returned status %d", e.StatusCode)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// AuthPath is the mount point of the auth endpoints, e.g. "/api/auth".
	AuthPath string
	// FallbackPath, when non-empty, is tried once after the primary path
	// fails with 404 or a connection error. Kept for servers that still
	// mount auth under the older prefix.
	FallbackPath string
	// ClientID is the stable install id sent with every request.
	ClientID string
	Timeout  time.Duration
}

// Client talks to the identity service. A bearer token armed via
// SetToken is attached to every request until ClearToken.
type Client struct {
	baseURL      string
	authPath     string
	fallbackPath string
	clientID     string
	httpClient   *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new identity service client.
func NewClient(cfg Config) *Client {
	authPath := cfg.AuthPath
	if authPath == "" {
		authPath = "/api/auth"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		authPath:     authPath,
		fallbackPath: cfg.FallbackPath,
		clientID:     cfg.ClientID,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// SetToken arms the bearer credential for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken disarms the bearer credential.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AuthResult is a successful login/register response, normalized at the
// boundary.
type AuthResult struct {
	Token   string
	Profile domain.UserProfile
	// Expiry is the token's expiry hint, zero when the token carries none.
	Expiry time.Time
}

// RegisterRequest carries the fields the registration endpoint accepts.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	BSN      string `json:"bsn,omitempty"`
}

// ValidateResult carries the profile fields a validation response
// actually returned.
type ValidateResult struct {
	Patch domain.ProfilePatch
}

type authResponse struct {
	Token              string `json:"token"`
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	RegistrationStatus string `json:"registrationStatus"`
}

type validateResponse struct {
	Valid              bool    `json:"valid"`
	ID                 *int64  `json:"id"`
	Email              *string `json:"email"`
	Name               *string `json:"name"`
	Role               *string `json:"role"`
	RegistrationStatus *string `json:"registrationStatus"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Login exchanges credentials for a token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/login", body)
	c.observe("login", resp, err, start)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	return decodeAuthResult(resp.Body)
}

// Register creates an account. The identity service authenticates the
// new account immediately, so the result carries a token like Login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode register request: %w", err)
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodPost, "/register", body)
	c.observe("register", resp, err, start)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	return decodeAuthResult(resp.Body)
}

// Validate asks the identity service to confirm the armed token.
// HTTP 401 and an explicit valid=false both map to ErrUnauthorized;
// everything else that goes wrong is an indeterminate failure and the
// caller must not treat it as a rejection.
func (c *Client) Validate(ctx context.Context) (*ValidateResult, error) {
	if c.currentToken() == "" {
		return nil, ErrNoToken
	}

	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, "/validate", nil)
	c.observe("validate", resp, err, start)
	if err != nil {
		return nil, fmt.Errorf("validate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var vr validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	// The server answered authoritatively; valid=false is as definitive
	// as a 401.
	if !vr.Valid {
		return nil, ErrUnauthorized
	}

	result := &ValidateResult{
		Patch: domain.ProfilePatch{
			ID:    vr.ID,
			Email: vr.Email,
			Name:  vr.Name,
		},
	}
	if vr.Role != nil {
		role := domain.ParseRole(*vr.Role)
		result.Patch.Role = &role
	}
	if vr.RegistrationStatus != nil {
		status := domain.ParseRegistrationStatus(*vr.RegistrationStatus)
		result.Patch.RegistrationStatus = &status
	}
	return result, nil
}

// do issues one request against the primary auth path, falling back to
// the configured legacy path on 404 or connection failure. Transport
// errors within a path get a bounded retry.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	paths := []string{c.authPath}
	if c.fallbackPath != "" && c.fallbackPath != c.authPath {
		paths = append(paths, c.fallbackPath)
	}

	var lastErr error
	for i, path := range paths {
		resp, err := c.attempt(ctx, method, c.baseURL+path+endpoint, body)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound && i < len(paths)-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%s%s returned 404", path, endpoint)
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.clientID != "" {
			req.Header.Set("X-Client-Id", c.clientID)
		}
		if token := c.currentToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}
	}
	return nil, lastErr
}

// apiError turns a non-200 response into an APIError carrying the
// server's own message when it sent one.
func (c *Client) apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		if er.Message != "" {
			apiErr.Message = er.Message
		} else if er.Error != "" {
			apiErr.Message = er.Error
		}
	}
	return apiErr
}

func (c *Client) observe(operation string, resp *http.Response, err error, start time.Time) {
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	observability.IdentityRequestDuration.
		WithLabelValues(operation, status).
		Observe(time.Since(start).Seconds())
}

func decodeAuthResult(body io.Reader) (*AuthResult, error) {
	var ar authResponse
	if err := json.NewDecoder(body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if ar.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", ErrInvalidResponse)
	}

	result := &AuthResult{
		Token: ar.Token,
		Profile: domain.UserProfile{
			ID:                 ar.ID,
			Email:              ar.Email,
			Name:               ar.Name,
			Role:               domain.ParseRole(ar.Role),
			RegistrationStatus: domain.ParseRegistrationStatus(ar.RegistrationStatus),
		},
	}
	if exp, ok := ExpiryHint(ar.Token); ok {
		result.Expiry = exp
	}
	return result, nil
}
