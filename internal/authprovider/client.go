// Package authprovider is a client for a GoTrue-compatible identity
// provider (the /auth/v1 API).
package authprovider

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

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/model"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "pennypal/1.0"
)

// ErrNotConfigured is returned by NewClient callers when no provider URL is set.
var ErrNotConfigured = errors.New("authprovider: auth url or anon key not configured")

// Client talks to the identity provider.
type Client struct {
	baseURL string
	anonKey string
	timeout time.Duration
	http    *http.Client
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the clock used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the provider at baseURL (the project
// URL, without /auth/v1). Returns ErrNotConfigured if either value is empty.
func NewClient(baseURL, anonKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	anonKey = strings.TrimSpace(anonKey)
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	c := &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		timeout: defaultTimeout,
		http:    &http.Client{},
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// SignUpResult is the outcome of a sign-up. Session is nil when the
// provider requires email confirmation before issuing tokens.
type SignUpResult struct {
	User    model.User
	Session *model.Session
}

// SignUp creates an identity with profile metadata attached.
func (c *Client) SignUp(ctx context.Context, email, password string, profile model.Profile) (*SignUpResult, error) {
	req := signUpRequest{Email: email, Password: password, Data: profile}

	body, err := c.do(ctx, "sign up", http.MethodPost, "/signup", nil, "", req)
	if err != nil {
		return nil, err
	}

	// Either a full token response or a bare user object.
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, malformed("sign up", err)
	}
	if tr.AccessToken != "" {
		sess := c.sessionFrom(tr)
		return &SignUpResult{User: sess.User, Session: sess}, nil
	}

	var u userResponse
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, malformed("sign up", err)
	}
	if u.ID == "" {
		return nil, malformed("sign up", errors.New("response has neither session nor user"))
	}
	return &SignUpResult{User: u.toModel()}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	q := url.Values{"grant_type": {"password"}}
	body, err := c.do(ctx, "sign in", http.MethodPost, "/token", q, "", passwordGrant{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return c.parseSession("sign in", body)
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	body, err := c.do(ctx, "refresh", http.MethodPost, "/token", q, "", refreshGrant{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}
	return c.parseSession("refresh", body)
}

// GetUser returns the identity behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	body, err := c.do(ctx, "get user", http.MethodGet, "/user", nil, accessToken, nil)
	if err != nil {
		return nil, err
	}
	var u userResponse
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, malformed("get user", err)
	}
	user := u.toModel()
	return &user, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, "sign out", http.MethodPost, "/logout", nil, accessToken, nil)
	return err
}

func (c *Client) parseSession(op string, body []byte) (*model.Session, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, malformed(op, err)
	}
	if tr.AccessToken == "" || tr.User.ID == "" {
		return nil, malformed(op, errors.New("missing access token or user"))
	}
	return c.sessionFrom(tr), nil
}

// sessionFrom builds a session, preferring expires_at, then the token's
// exp claim, then expires_in.
func (c *Client) sessionFrom(tr tokenResponse) *model.Session {
	s := &model.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		User:         tr.User.toModel(),
	}
	if tr.ExpiresAt > 0 {
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0).UTC()
	} else if claims, err := ParseClaims(tr.AccessToken); err == nil && !claims.Expiry().IsZero() {
		s.ExpiresAt = claims.Expiry()
	} else if tr.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// do performs a request against /auth/v1 and returns the response body.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/auth/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("authprovider: encoding %s request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("authprovider: creating request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code, msg := parseErrorBody(body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &apperr.AuthError{Code: code, Message: msg}
	default:
		_, msg := parseErrorBody(body)
		return nil, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: msg}
	}
}

func malformed(op string, err error) error {
	return &apperr.ServerError{Op: op, Message: "malformed response: " + err.Error()}
}

// parseErrorBody pulls a code and message out of the provider's
// several error shapes.
func parseErrorBody(body []byte) (code, msg string) {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return "", strings.TrimSpace(string(body))
	}
	code = firstNonEmpty(e.ErrorCode, e.Error)
	msg = firstNonEmpty(e.Msg, e.ErrorDescription, e.Message, e.Error)
	return code, msg
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
