package records

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
	maxBodySize    = 4 << 20 // 4 MB
)

// ErrNotConfigured is returned when the REST store has no URL or key.
var ErrNotConfigured = errors.New("records: rest url or anon key not configured")

// REST is a Store backed by a PostgREST-compatible /rest/v1 endpoint.
type REST struct {
	baseURL string
	anonKey string
	tokens  TokenSource
	timeout time.Duration
	http    *http.Client
}

// NewREST creates a REST store. tokens may be nil, in which case every
// request is made with the anon key.
func NewREST(baseURL, anonKey string, tokens TokenSource, timeout time.Duration) (*REST, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || anonKey == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &REST{
		baseURL: baseURL,
		anonKey: anonKey,
		tokens:  tokens,
		timeout: timeout,
		http:    &http.Client{},
	}, nil
}

// InsertUser implements Store.
func (r *REST) InsertUser(ctx context.Context, rec model.UserRecord) error {
	_, err := r.do(ctx, "insert user", http.MethodPost, "users", nil, "return=minimal", rec)
	return err
}

// InsertPayment implements Store.
func (r *REST) InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error) {
	body, err := r.do(ctx, "insert payment", http.MethodPost, "payments", nil, "return=representation", p)
	if err != nil {
		return model.Payment{}, err
	}

	var rows []model.Payment
	if err := json.Unmarshal(body, &rows); err != nil {
		return model.Payment{}, &apperr.ServerError{Op: "insert payment", Message: "malformed response: " + err.Error()}
	}
	if len(rows) == 0 {
		return p, nil
	}
	return rows[0], nil
}

// ListAutopayPayments implements Store.
func (r *REST) ListAutopayPayments(ctx context.Context, userID string) ([]model.Payment, error) {
	q := url.Values{
		"select":  {"*"},
		"auth_id": {"eq." + userID},
		"autopay": {"is.true"},
		"order":   {"due_date.asc"},
	}
	body, err := r.do(ctx, "list payments", http.MethodGet, "payments", q, "", nil)
	if err != nil {
		return nil, err
	}

	var rows []model.Payment
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &apperr.ServerError{Op: "list payments", Message: "malformed response: " + err.Error()}
	}
	return rows, nil
}

func (r *REST) do(ctx context.Context, op, method, table string, query url.Values, prefer string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := r.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("records: encoding %s: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("records: creating request: %w", err)
	}

	token := tokenFromContext(ctx)
	if token == "" && r.tokens != nil {
		token = r.tokens()
	}
	if token == "" {
		token = r.anonKey
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &apperr.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: restErrorMessage(body)}
	}
	return body, nil
}

type restError struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Code    string `json:"code"`
}

func restErrorMessage(body []byte) string {
	var e restError
	if err := json.Unmarshal(body, &e); err != nil || e.Message == "" {
		return strings.TrimSpace(string(body))
	}
	if e.Details != "" {
		return e.Message + " (" + e.Details + ")"
	}
	return e.Message
}
