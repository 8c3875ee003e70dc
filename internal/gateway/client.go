// Package gateway is the data gateway to the budgeting API and the
// payments record store. Every call is keyed by user id and returns a
// parsed value or a typed apperr failure. Nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pennypal/pennypal/internal/apperr"
	"github.com/pennypal/pennypal/internal/logging"
	"github.com/pennypal/pennypal/internal/model"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "pennypal/1.0"
)

// Records is the part of the record store the gateway uses.
type Records interface {
	InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error)
	ListAutopayPayments(ctx context.Context, userID string) ([]model.Payment, error)
}

// TokenSource returns the current access token, or "".
type TokenSource func() string

// Client calls the budgeting API.
type Client struct {
	baseURL string
	tokens  TokenSource
	records Records
	timeout time.Duration
	http    *http.Client
	log     logging.Logger
	now     func() time.Time
	newKey  func() string

	writes singleflight.Group
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

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l.With("component", "gateway") }
}

// WithClock overrides the clock used to order bills.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a gateway for the API at baseURL (including the /api prefix).
func New(baseURL string, tokens TokenSource, records Records, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		records: records,
		timeout: defaultTimeout,
		http:    &http.Client{},
		log:     logging.Discard(),
		now:     time.Now,
		newKey:  uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ─── Reads ──────────────────────────────────────────────────────

// Dashboard fetches the dashboard snapshot.
func (c *Client) Dashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	var d model.Dashboard
	if err := c.getJSON(ctx, "dashboard", userID, "dashboard", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Spending fetches the spending block. The API serves it from the
// dashboard endpoint.
func (c *Client) Spending(ctx context.Context, userID string) (*model.Spending, error) {
	d, err := c.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	s := d.Spending
	return &s, nil
}

// PendingBills fetches the due items, overdue first.
func (c *Client) PendingBills(ctx context.Context, userID string) (*model.BillsSummary, error) {
	var env struct {
		Status string             `json:"status"`
		Bills  model.BillsSummary `json:"bills"`
	}
	if err := c.getJSON(ctx, "pending bills", userID, "pending-bills", &env); err != nil {
		return nil, err
	}
	if env.Bills.Error != "" {
		return nil, &apperr.ServerError{Op: "pending bills", Message: env.Bills.Error}
	}
	if env.Bills.Count == 0 {
		env.Bills.Count = len(env.Bills.Bills)
	}
	model.SortBills(env.Bills.Bills, c.now())
	return &env.Bills, nil
}

// PaymentStatus fetches agent status and available budget.
func (c *Client) PaymentStatus(ctx context.Context, userID string) (*model.PaymentStatus, error) {
	var ps model.PaymentStatus
	if err := c.getJSON(ctx, "payment status", userID, "payment-status", &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// AgentStatus fetches the health of the server-side agents.
func (c *Client) AgentStatus(ctx context.Context, userID string) (*model.AgentStatus, error) {
	var as model.AgentStatus
	if err := c.getJSON(ctx, "agent status", userID, "ai-status", &as); err != nil {
		return nil, err
	}
	return &as, nil
}

// AutopayPayments lists userID's payments with autopay set.
func (c *Client) AutopayPayments(ctx context.Context, userID string) ([]model.Payment, error) {
	if userID == "" {
		return nil, apperr.ErrNotSignedIn
	}
	rows, err := c.records.ListAutopayPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		if p.AutopayEnabled() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ─── Writes ─────────────────────────────────────────────────────

// CheckPayments asks the payment agent to pay bills from surplus budget.
func (c *Client) CheckPayments(ctx context.Context, userID string) (*model.CheckResult, error) {
	v, err := c.coalesce("check-payments:"+userID, func() (any, error) {
		var env struct {
			Status string            `json:"status"`
			Result model.CheckResult `json:"result"`
		}
		if err := c.postJSON(ctx, "check payments", userID, "check-payments", nil, &env); err != nil {
			return nil, err
		}
		return &env.Result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.CheckResult), nil
}

// BudgetCheck asks the budget agent for an analysis.
func (c *Client) BudgetCheck(ctx context.Context, userID string) (*model.BudgetCheck, error) {
	v, err := c.coalesce("budget-check:"+userID, func() (any, error) {
		var bc model.BudgetCheck
		if err := c.postJSON(ctx, "budget check", userID, "budget-check", nil, &bc); err != nil {
			return nil, err
		}
		return &bc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.BudgetCheck), nil
}

// SetWeeklyBudget records a new weekly budget.
func (c *Client) SetWeeklyBudget(ctx context.Context, userID string, amount float64) error {
	key := fmt.Sprintf("budget:%s:%g", userID, amount)
	_, err := c.coalesce(key, func() (any, error) {
		var resp struct {
			Success bool `json:"success"`
		}
		body := map[string]float64{"week_budget": amount}
		if err := c.postJSON(ctx, "set budget", userID, "budget", body, &resp); err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, &apperr.ServerError{Op: "set budget", Message: "budget was not saved"}
		}
		return nil, nil
	})
	return err
}

// AddExpense records a spend and returns any budget alerts.
func (c *Client) AddExpense(ctx context.Context, userID string, amount float64, category, name string) (*model.ExpenseResult, error) {
	key := fmt.Sprintf("expense:%s:%g:%s:%s", userID, amount, category, name)
	v, err := c.coalesce(key, func() (any, error) {
		body := map[string]any{"amount": amount, "category": category, "payment_name": name}
		var res model.ExpenseResult
		if err := c.postJSON(ctx, "add expense", userID, "expense", body, &res); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ExpenseResult), nil
}

// InsertPayment writes a payment owned by p.AuthID.
func (c *Client) InsertPayment(ctx context.Context, p model.Payment) (model.Payment, error) {
	if p.AuthID == "" {
		return model.Payment{}, apperr.ErrNotSignedIn
	}
	// Only byte-identical rows share a flight.
	key := fmt.Sprintf("payment:%s:%+v", p.AuthID, p)
	v, err := c.coalesce(key, func() (any, error) {
		return c.records.InsertPayment(ctx, p)
	})
	if err != nil {
		return model.Payment{}, err
	}
	return v.(model.Payment), nil
}

// coalesce runs fn once for concurrent callers sharing key.
func (c *Client) coalesce(key string, fn func() (any, error)) (any, error) {
	v, err, shared := c.writes.Do(key, fn)
	if shared {
		c.log.Debug(context.Background(), "coalesced duplicate write", "key", key)
	}
	return v, err
}

// ─── Transport ──────────────────────────────────────────────────

func (c *Client) getJSON(ctx context.Context, op, userID, endpoint string, out any) error {
	return c.do(ctx, op, http.MethodGet, userID, endpoint, nil, out)
}

func (c *Client) postJSON(ctx context.Context, op, userID, endpoint string, payload, out any) error {
	return c.do(ctx, op, http.MethodPost, userID, endpoint, payload, out)
}

func (c *Client) do(ctx context.Context, op, method, userID, endpoint string, payload, out any) error {
	if userID == "" {
		return apperr.ErrNotSignedIn
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/user/%s/%s", c.baseURL, url.PathEscape(userID), endpoint)

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gateway: encoding %s: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("gateway: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.tokens != nil {
		if tok := c.tokens(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", c.newKey())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", op, "err", err)
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &apperr.NetworkError{Op: op, Err: err}
	}
	c.log.Debug(ctx, "request done", "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.ServerError{Op: op, Status: resp.StatusCode, Message: errorDetail(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperr.ServerError{Op: op, Message: "malformed response: " + err.Error()}
	}
	return nil
}

// errorDetail extracts the API's {"detail": ...} message.
func errorDetail(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && len(e.Detail) > 0 {
		var s string
		if json.Unmarshal(e.Detail, &s) == nil {
			return s
		}
		return string(e.Detail)
	}
	return strings.TrimSpace(string(body))
}
