package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

var (
	// ErrRejected is returned when the remote API answers with a non-2xx status.
	ErrRejected = errors.New("backend rejected request")
	// ErrUnavailable is returned when the remote API cannot be reached or its
	// answer cannot be read.
	ErrUnavailable = errors.New("backend unavailable")
)

// StatusError describes a non-2xx answer. It unwraps to [ErrRejected].
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend %s: status %d", e.Op, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrRejected }

// StatusCode returns the status carried by err, or 0 when err is not a
// [*StatusError].
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// TokenPair is the credential pair issued by the remote API.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Paths holds the endpoint paths relative to the base URL.
type Paths struct {
	Login             string
	Register          string
	Refresh           string
	FederatedExchange string
	Logout            string
}

// DefaultPaths returns the storefront API's endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Login:             "/auth/login",
		Register:          "/auth/register",
		Refresh:           "/auth/refresh",
		FederatedExchange: "/auth/google-token-exchange",
		Logout:            "/auth/logout",
	}
}

// Config configures a [Client].
type Config struct {
	BaseURL string
	Paths   Paths
	// Timeout bounds every request. Zero means 10s.
	Timeout time.Duration
	// HTTPClient overrides the transport. Its own Timeout is left untouched.
	HTTPClient *http.Client
}

// Client talks to the remote storefront API. It is safe for concurrent use.
type Client struct {
	base  *url.URL
	paths Paths
	http  *http.Client
}

// New validates cfg and builds a [Client]. Empty paths fall back to
// [DefaultPaths].
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend base url required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend base url: unsupported scheme %q", base.Scheme)
	}

	paths := cfg.Paths
	def := DefaultPaths()
	if paths.Login == "" {
		paths.Login = def.Login
	}
	if paths.Register == "" {
		paths.Register = def.Register
	}
	if paths.Refresh == "" {
		paths.Refresh = def.Refresh
	}
	if paths.FederatedExchange == "" {
		paths.FederatedExchange = def.FederatedExchange
	}
	if paths.Logout == "" {
		paths.Logout = def.Logout
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{base: base, paths: paths, http: hc}, nil
}

// Login exchanges email and password for a credential pair.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	return c.exchange(ctx, "login", c.paths.Login, body)
}

// Register creates an account and returns the credential pair the remote
// API issues for it (201 Created).
func (c *Client) Register(ctx context.Context, email, password string) (TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	return c.exchange(ctx, "register", c.paths.Register, body)
}

// Refresh trades a refresh credential for a new pair. The presented
// credential is consumed by the remote API whether or not the answer is read.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return c.exchange(ctx, "refresh", c.paths.Refresh, body)
}

// ExchangeFederated trades a federated identity token for a credential pair.
func (c *Client) ExchangeFederated(ctx context.Context, idToken string) (TokenPair, error) {
	body := map[string]string{"id_token": idToken}
	return c.exchange(ctx, "federated exchange", c.paths.FederatedExchange, body)
}

// Logout revokes a refresh credential server-side. Revoking an unknown
// credential is not an error for the remote API.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := c.postJSON(ctx, "logout", c.paths.Logout, body)
	if err != nil {
		return err
	}
	drain(resp)
	return nil
}

// Do sends req with the bearer credential attached. A relative request URL
// is resolved against the base URL. Any status is returned to the caller.
func (c *Client) Do(ctx context.Context, req *http.Request, accessToken string) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	out := req.Clone(ctx)
	if !out.URL.IsAbs() {
		out.URL = c.base.ResolveReference(&url.URL{
			Path:     c.base.Path + out.URL.Path,
			RawQuery: out.URL.RawQuery,
		})
		out.Host = ""
	}
	out.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func (c *Client) exchange(ctx context.Context, op, path string, body any) (TokenPair, error) {
	resp, err := c.postJSON(ctx, op, path, body)
	if err != nil {
		return TokenPair{}, err
	}
	defer resp.Body.Close()

	var pair TokenPair
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&pair); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %s: decode response: %v", ErrUnavailable, op, err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: %s: response missing credentials", ErrRejected, op)
	}
	return pair, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + "/" + strings.TrimLeft(path, "/")
}

// readDetail extracts the remote API's {"detail": "..."} message, if any.
func readDetail(r io.Reader) string {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxResponseBody)).Decode(&body); err != nil {
		return ""
	}
	if s, ok := body.Detail.(string); ok {
		return s
	}
	return ""
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
}
