package tink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvcrn/tink-gateway/internal/credentials"
	"github.com/dvcrn/tink-gateway/internal/provider"
	"github.com/dvcrn/tink-gateway/internal/result"
	"github.com/dvcrn/tink-gateway/internal/transport"
)

// Paths are the API paths, relative to the base URL, of each operation.
type Paths struct {
	SearchTransactions string
	ListAccounts       string
	ListCategories     string
}

// Config locates the provider API.
type Config struct {
	BaseURL string
	Paths   Paths
}

// Authenticator runs the OAuth grants on behalf of the client.
type Authenticator interface {
	Authenticate(ctx context.Context, code string) result.Result[credentials.Status, error]
	Refresh(ctx context.Context) result.Result[credentials.Status, error]
	SignOut()
}

// Client exposes the provider's business operations. Every expected failure
// comes back as a failed Result; nothing here panics.
type Client struct {
	baseURL *url.URL
	paths   Paths
	sender  transport.Sender
	oauth   Authenticator
	mapper  Mapper
	now     func() time.Time
	logger  *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMapper replaces the DTO mapping.
func WithMapper(m Mapper) Option {
	return func(c *Client) { c.mapper = m }
}

// WithClock overrides the clock used to compute the search window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a provider client. The configuration is read once here.
func NewClient(cfg Config, sender transport.Sender, oauth Authenticator, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("provider base URL %q is not absolute", cfg.BaseURL)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		baseURL: base,
		paths:   cfg.Paths,
		sender:  sender,
		oauth:   oauth,
		mapper:  DefaultMapper{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// QueryTransactions returns transactions dated from `from` (inclusive) up to
// the start of tomorrow (UTC), oldest first.
func (c *Client) QueryTransactions(ctx context.Context, from time.Time) result.Result[[]provider.Transaction, error] {
	const op = "query transactions"

	now := c.now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	body, err := json.Marshal(searchQuery{
		StartDate: from.UnixMilli(),
		EndDate:   end.UnixMilli(),
		Sort:      "DATE",
		Order:     "ASC",
	})
	if err != nil {
		return result.Fail[[]provider.Transaction](fmt.Errorf("%s: marshal query: %w", op, err))
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.paths.SearchTransactions, body)
	if err != nil {
		return result.Fail[[]provider.Transaction](fmt.Errorf("%s: %w", op, err))
	}

	payload := fetch[searchResponse](ctx, c, op, req)
	if !payload.IsSuccess() {
		return result.Fail[[]provider.Transaction](payload.Failure())
	}

	results := payload.Unwrap().Results
	transactions := make([]provider.Transaction, 0, len(results))
	for _, r := range results {
		if r.Transaction == nil {
			continue
		}
		transactions = append(transactions, c.mapper.Transaction(*r.Transaction))
	}

	c.logger.Debug().
		Int64("start_date", from.UnixMilli()).
		Int64("end_date", end.UnixMilli()).
		Int("count", len(transactions)).
		Msg("Fetched transactions")

	return result.Ok[[]provider.Transaction, error](transactions)
}

// ListAccounts returns every account. A missing accounts field is an empty list.
func (c *Client) ListAccounts(ctx context.Context) result.Result[[]provider.Account, error] {
	const op = "list accounts"

	req, err := c.newRequest(ctx, http.MethodGet, c.paths.ListAccounts, nil)
	if err != nil {
		return result.Fail[[]provider.Account](fmt.Errorf("%s: %w", op, err))
	}

	payload := fetch[*accountsResponse](ctx, c, op, req)
	if !payload.IsSuccess() {
		return result.Fail[[]provider.Account](payload.Failure())
	}

	var raw []Account
	if p := payload.Unwrap(); p != nil {
		raw = p.Accounts
	}

	accounts := make([]provider.Account, 0, len(raw))
	for _, a := range raw {
		accounts = append(accounts, c.mapper.Account(a))
	}
	return result.Ok[[]provider.Account, error](accounts)
}

// ListCategories returns the user-facing categories. The provider's top-level
// expense/income/transfer buckets have no group and are dropped.
func (c *Client) ListCategories(ctx context.Context) result.Result[[]provider.Category, error] {
	const op = "list categories"

	req, err := c.newRequest(ctx, http.MethodGet, c.paths.ListCategories, nil)
	if err != nil {
		return result.Fail[[]provider.Category](fmt.Errorf("%s: %w", op, err))
	}

	payload := fetch[[]Category](ctx, c, op, req)
	if !payload.IsSuccess() {
		return result.Fail[[]provider.Category](payload.Failure())
	}

	categories := make([]provider.Category, 0, len(payload.Unwrap()))
	for _, raw := range payload.Unwrap() {
		cat := c.mapper.Category(raw)
		if cat.GroupID == "" {
			continue
		}
		categories = append(categories, cat)
	}
	return result.Ok[[]provider.Category, error](categories)
}

// Authenticate exchanges an authorization code for the initial credentials.
func (c *Client) Authenticate(ctx context.Context, code string) result.Result[credentials.Status, error] {
	return c.oauth.Authenticate(ctx, code)
}

// RefreshAuth refreshes the stored credentials now.
func (c *Client) RefreshAuth(ctx context.Context) result.Result[credentials.Status, error] {
	return c.oauth.Refresh(ctx)
}

// SignOut forgets every stored credential.
func (c *Client) SignOut() {
	c.oauth.SignOut()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	target := c.baseURL.JoinPath(path).String()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// fetch sends req and decodes a 2xx body into T. A non-2xx response becomes
// a ProviderRejected failure carrying the body text and status.
func fetch[T any](ctx context.Context, c *Client, op string, req *http.Request) result.Result[T, error] {
	sent := c.sender.Send(ctx, req)
	if !sent.IsSuccess() {
		return result.Fail[T](fmt.Errorf("%s: %w", op, sent.Failure()))
	}

	resp := sent.Unwrap()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result.Fail[T](fmt.Errorf("%s: %w", op, provider.Unavailable(fmt.Errorf("read body: %w", err))))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str("operation", op).
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Received error response from provider")
		return result.Fail[T](fmt.Errorf("%s: %w", op, provider.Rejected(provider.NewHTTPError(string(body), resp.StatusCode))))
	}

	var out T
	if len(bytes.TrimSpace(body)) == 0 {
		return result.Ok[T, error](out)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return result.Fail[T](fmt.Errorf("%s: %w", op, provider.Rejected(fmt.Errorf("decode response: %w", err))))
	}
	return result.Ok[T, error](out)
}
