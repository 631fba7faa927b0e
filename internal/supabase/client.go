package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dioscarr/Topapi/internal/auth"
)

// Client talks to the Supabase auth (GoTrue) REST API.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(supabaseURL, anonKey, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(supabaseURL, "/") + "/auth/v1",
		anonKey:    anonKey,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    *time.Time     `json:"created_at,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// SignUpResult has a nil Session when the project requires e-mail confirmation.
type SignUpResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// UserAttributes is the update body. The admin endpoints read user_metadata and app_metadata;
// the self-service endpoint reads data.
type UserAttributes struct {
	Email        string         `json:"email,omitempty"`
	Password     string         `json:"password,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	EmailConfirm bool           `json:"email_confirm,omitempty"`
}

// Error is a non-2xx answer from the auth service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase auth %d: %s", e.Status, e.Message)
}

// StatusOf returns the auth service status carried by err, or 0.
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// Identify resolves an access token to an identity; it satisfies auth.IdentityOracle.
func (c *Client) Identify(ctx context.Context, token string) (*auth.Identity, error) {
	u, err := c.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}
	claims := map[string]any{
		"sub":           u.ID,
		"email":         u.Email,
		"app_metadata":  u.AppMetadata,
		"user_metadata": u.UserMetadata,
	}
	return &auth.Identity{
		ID:     u.ID,
		Email:  u.Email,
		Role:   auth.MetadataRole(u.AppMetadata),
		Claims: claims,
	}, nil
}

func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", nil, token, nil, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("auth service returned no user")
	}
	return &u, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup", body, "", nil, &raw); err != nil {
		return nil, err
	}
	return parseSignUp(raw)
}

func parseSignUp(raw json.RawMessage) (*SignUpResult, error) {
	var peek struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if peek.AccessToken != "" {
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode signup session: %w", err)
		}
		return &SignUpResult{User: s.User, Session: &s}, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode signup user: %w", err)
	}
	return &SignUpResult{User: &u}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{"grant_type": {"password"}}
	var s Session
	err := c.do(ctx, http.MethodPost, "/token", map[string]string{"email": email, "password": password}, "", q, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	var s Session
	err := c.do(ctx, http.MethodPost, "/token", map[string]string{"refresh_token": refreshToken}, "", q, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var q url.Values
	if redirectTo != "" {
		q = url.Values{"redirect_to": {redirectTo}}
	}
	return c.do(ctx, http.MethodPost, "/recover", map[string]string{"email": email}, "", q, nil)
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, token, nil, nil)
}

// UpdateUser changes the caller's own account using their access token.
func (c *Client) UpdateUser(ctx context.Context, token string, attrs UserAttributes) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/user", attrs, token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns one page of accounts and the total count reported by the service.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]User, int, error) {
	q := url.Values{"page": {strconv.Itoa(page)}, "per_page": {strconv.Itoa(perPage)}}
	var out struct {
		Users []User `json:"users"`
		Total int    `json:"total"`
	}
	hdr, err := c.doWithHeaders(ctx, http.MethodGet, "/admin/users", nil, c.serviceKey, q, &out)
	if err != nil {
		return nil, 0, err
	}
	total := out.Total
	if n, err := strconv.Atoi(hdr.Get("X-Total-Count")); err == nil {
		total = n
	}
	if out.Users == nil {
		out.Users = []User{}
	}
	return out.Users, total, nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil, c.serviceKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateUserByID(ctx context.Context, id string, attrs UserAttributes) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), attrs, c.serviceKey, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, c.serviceKey, nil, nil)
}

// Ping checks that the auth service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, bearer string, q url.Values, out any) error {
	_, err := c.doWithHeaders(ctx, method, path, body, bearer, q, out)
	return err
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, body any, bearer string, q url.Values, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create auth request: %w", err)
	}
	apiKey := c.anonKey
	if bearer != "" && bearer == c.serviceKey {
		apiKey = c.serviceKey
	}
	req.Header.Set("apikey", apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp.Header, decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode auth response: %w", err)
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Err              string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	e := &Error{Status: resp.StatusCode, Code: body.ErrorCode}
	if e.Code == "" {
		e.Code = body.Err
	}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Err} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
