package client

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

	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/models"
)

// LoginPath is where the navigator is sent after a 401.
const LoginPath = "/login"

// Navigator moves the front end to a route, e.g. "/login".
type Navigator func(path string)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Option configures a Client.
type Option func(*Client)

// WithNavigator sets the function called with LoginPath after a 401.
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigate = n }
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// Client talks to the BrightMinds API on behalf of one signed-in user.
type Client struct {
	baseURL  string
	store    *Store
	http     *http.Client
	base     http.RoundTripper
	navigate Navigator
}

// New creates a client for the API at baseURL, e.g. "http://localhost:5002".
func New(baseURL string, store *Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}
	if store == nil {
		store, _ = NewStore("")
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/") + "/api/v1",
		store:    store,
		http:     &http.Client{Timeout: 90 * time.Second},
		base:     http.DefaultTransport,
		navigate: func(string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Transport = &authTransport{base: c.base, client: c}
	return c, nil
}

// Store returns the client's state store.
func (c *Client) Store() *Store {
	return c.store
}

// authTransport adds the current token to each request and signs the user
// out when any call comes back 401.
type authTransport struct {
	base   http.RoundTripper
	client *Client
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.client.store.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.client.store.ClearAuth()
		t.client.navigate(LoginPath)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Detail = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// envelope is the {success, message, data} body of the beta, feedback and
// admin endpoints.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Page is one page of an admin or feedback listing.
type Page[T any] struct {
	Items      []T
	Pagination response.Pagination
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// RegisterInput is the body for creating an account.
type RegisterInput struct {
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
}

// Register creates an account and signs in as it.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*models.UserProfile, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		c.store.SetAuthError(err.Error())
		return nil, err
	}
	c.store.SetAuth(out.Token, out.User)
	return &out.User, nil
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	var out TokenResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		c.store.SetAuthError(err.Error())
		return nil, err
	}
	c.store.SetAuth(out.Token, out.User)
	return &out.User, nil
}

// Logout forgets the session. Tokens are stateless, so the server is not
// involved.
func (c *Client) Logout() {
	c.store.ClearAuth()
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	c.store.SetUser(out)
	return &out, nil
}

// UpdateMeInput holds the profile fields to change. Nil fields are left alone.
type UpdateMeInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateMe changes the signed-in user's name or email.
func (c *Client) UpdateMe(ctx context.Context, in UpdateMeInput) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.do(ctx, http.MethodPut, "/users/me", in, &out); err != nil {
		return nil, err
	}
	c.store.SetUser(out)
	return &out, nil
}

// ListQuery selects a page of an admin listing.
type ListQuery struct {
	Page   int
	Limit  int
	Role   string
	Type   string
	Status string
}

func (q ListQuery) encode() string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", fmt.Sprint(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListUsers returns a page of accounts. Superadmin only.
func (c *Client) ListUsers(ctx context.Context, q ListQuery) (*Page[models.User], error) {
	var out envelope[struct {
		Users      []models.User       `json:"users"`
		Pagination response.Pagination `json:"pagination"`
	}]
	if err := c.do(ctx, http.MethodGet, "/users"+q.encode(), nil, &out); err != nil {
		return nil, err
	}
	return &Page[models.User]{Items: out.Data.Users, Pagination: out.Data.Pagination}, nil
}
