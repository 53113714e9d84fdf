// Package mt5 is a client for the MT5 bridge, the REST service that holds
// read sessions against the trading platform. The bridge does not promise
// session persistence, so callers re-issue Connect before every summary
// fetch rather than assuming an earlier session is still alive.
package mt5

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultSummaryTimeout = 5 * time.Second
	DefaultHistoryTimeout = 10 * time.Second
	DefaultPort           = 443
)

// Connector errors. Each wraps the upstream reason where one is available.
var (
	ErrConnection   = errors.New("mt5: connection failed")
	ErrSummaryFetch = errors.New("mt5: summary fetch failed")
	ErrHistoryFetch = errors.New("mt5: order history fetch failed")
)

// Connector is the trading-platform interface consumed by the rule engine.
type Connector interface {
	// Connect establishes (or re-establishes) a read session for the login.
	Connect(ctx context.Context, login, password, server string) error

	// AccountSummary returns the balance/equity snapshot for the most
	// recently connected login.
	AccountSummary(ctx context.Context, login string) (*AccountSummary, error)

	// OrderHistory returns closed orders for the login within [from, to].
	OrderHistory(ctx context.Context, login string, from, to time.Time) ([]*Order, error)
}

// Client implements Connector over the bridge's HTTP API.
type Client struct {
	baseURL        string
	client         *http.Client
	port           int
	connectTimeout time.Duration
	summaryTimeout time.Duration
	historyTimeout time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithPort sets the trading server port passed to /Connect.
func WithPort(port int) ClientOption {
	return func(c *Client) {
		c.port = port
	}
}

// WithConnectTimeout sets the /Connect call timeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithSummaryTimeout sets the /AccountSummary call timeout.
func WithSummaryTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.summaryTimeout = d
	}
}

// WithHistoryTimeout sets the /OrderHistory call timeout.
func WithHistoryTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.historyTimeout = d
	}
}

// NewClient creates a new bridge client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        baseURL,
		client:         &http.Client{},
		port:           DefaultPort,
		connectTimeout: DefaultConnectTimeout,
		summaryTimeout: DefaultSummaryTimeout,
		historyTimeout: DefaultHistoryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Connector = (*Client)(nil)

// Connect establishes (or re-establishes) a read session for the login.
// Returns ErrConnection on timeout, rejection, or upstream error, carrying
// the upstream reason when the bridge provides one.
func (c *Client) Connect(ctx context.Context, login, password, server string) error {
	params := url.Values{}
	params.Set("user", login)
	params.Set("password", password)
	params.Set("host", server)
	params.Set("port", strconv.Itoa(c.port))

	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	if err := c.get(ctx, "/Connect", params, nil); err != nil {
		return wrapBridgeError(ErrConnection, err)
	}
	return nil
}

// AccountSummary returns the balance/equity snapshot for the login.
// Returns ErrSummaryFetch on timeout or upstream error.
func (c *Client) AccountSummary(ctx context.Context, login string) (*AccountSummary, error) {
	params := url.Values{}
	params.Set("id", login)

	ctx, cancel := context.WithTimeout(ctx, c.summaryTimeout)
	defer cancel()

	var summary AccountSummary
	if err := c.get(ctx, "/AccountSummary", params, &summary); err != nil {
		return nil, wrapBridgeError(ErrSummaryFetch, err)
	}
	return &summary, nil
}

// OrderHistory returns closed orders for the login within [from, to].
// Returns ErrHistoryFetch on timeout or upstream error.
func (c *Client) OrderHistory(ctx context.Context, login string, from, to time.Time) ([]*Order, error) {
	params := url.Values{}
	params.Set("id", login)
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))

	ctx, cancel := context.WithTimeout(ctx, c.historyTimeout)
	defer cancel()

	var orders []*Order
	if err := c.get(ctx, "/OrderHistory", params, &orders); err != nil {
		return nil, wrapBridgeError(ErrHistoryFetch, err)
	}
	return orders, nil
}

// bridgeError is a non-2xx response from the bridge.
type bridgeError struct {
	status  int
	message string
}

func (e *bridgeError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("bridge returned %d: %s", e.status, e.message)
	}
	return fmt.Sprintf("bridge returned %d", e.status)
}

// wrapBridgeError wraps err in the operation's sentinel, surfacing the
// upstream message when the bridge provided one.
func wrapBridgeError(sentinel, err error) error {
	var bErr *bridgeError
	if errors.As(err, &bErr) && bErr.message != "" {
		return fmt.Errorf("%w: %s", sentinel, bErr.message)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// get performs a GET request and decodes the JSON response into out when
// out is non-nil.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Message string `json:"message"`
		}
		// Body may not be JSON; the status code alone is still an error.
		_ = json.Unmarshal(body, &payload)
		return &bridgeError{status: resp.StatusCode, message: payload.Message}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
