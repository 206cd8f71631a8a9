// Package client is a Go client for the fintrack HTTP API.
//
// The client keeps its login in a SessionCache and sends the token as a
// bearer header. It never checks withdrawals against the balance; callers
// that want that check use Balance themselves.
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
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client calls the fintrack API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *SessionCache

	mu        sync.Mutex
	listeners []func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, session *SessionCache, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session cache.
func (c *Client) Session() *SessionCache {
	return c.session
}

// OnRefresh registers fn to run after every successful AddTransaction.
// Views derived from the transaction list re-fetch from it.
func (c *Client) OnRefresh(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) notifyRefresh() {
	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, name string) error {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.do(ctx, http.MethodPost, "/api/register", body, false, nil)
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		User struct {
			User
			Token string `json:"token"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, false, &resp); err != nil {
		return nil, err
	}
	if resp.User.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	return c.session.Save(resp.User.User, resp.User.Token)
}

// Logout clears the local session, then tells the server to clear its
// cookie. The local session is gone even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/logout", nil, false, nil)
}

// Me returns the account behind the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Transactions lists the caller's transactions, newest first.
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", nil, true, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// AddTransaction records a transaction and notifies refresh listeners.
func (c *Client) AddTransaction(ctx context.Context, in NewTransaction) (*Transaction, error) {
	var tx Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", in, true, &tx); err != nil {
		return nil, err
	}
	c.notifyRefresh()
	return &tx, nil
}

// Analytics fetches category and daily totals. A zero from uses the
// server's default window.
func (c *Client) Analytics(ctx context.Context, from time.Time) (*Analytics, error) {
	path := "/api/analytics"
	if !from.IsZero() {
		path += "?from=" + url.QueryEscape(from.UTC().Format(DateLayout))
	}
	var result Analytics
	if err := c.do(ctx, http.MethodGet, path, nil, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Balance fetches every transaction and returns deposits minus withdrawals.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	txs, err := c.Transactions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Balance(txs), nil
}

// Filter returns the transactions whose description contains search
// (case-insensitive) and whose category equals category. Empty arguments
// match everything.
func Filter(txs []Transaction, search, category string) []Transaction {
	search = strings.ToLower(search)
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if search != "" && !strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		if category != "" && tx.Category != category {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		s := c.session.Current()
		if s == nil {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
