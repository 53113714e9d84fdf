package stub

import (
	"context"
	"sync"
	"time"

	"prop-risk-monitor/internal/mt5"
)

// Connector implements mt5.Connector for testing. Summaries are keyed by
// login; per-login errors can be scripted to simulate bridge failures.
type Connector struct {
	mu sync.Mutex

	Summaries   map[string]*mt5.AccountSummary
	Orders      map[string][]*mt5.Order
	ConnectErr  map[string]error
	SummaryErr  map[string]error
	HistoryErr  map[string]error
	Connections []Connection
}

// Connection records one Connect call.
type Connection struct {
	Login    string
	Password string
	Server   string
}

// NewConnector creates a new stub connector.
func NewConnector() *Connector {
	return &Connector{
		Summaries:  make(map[string]*mt5.AccountSummary),
		Orders:     make(map[string][]*mt5.Order),
		ConnectErr: make(map[string]error),
		SummaryErr: make(map[string]error),
		HistoryErr: make(map[string]error),
	}
}

// Compile-time interface check.
var _ mt5.Connector = (*Connector)(nil)

// Connect records the call and returns any scripted error for the login.
func (c *Connector) Connect(_ context.Context, login, password, server string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Connections = append(c.Connections, Connection{Login: login, Password: password, Server: server})
	return c.ConnectErr[login]
}

// AccountSummary returns the scripted summary for the login.
func (c *Connector) AccountSummary(_ context.Context, login string) (*mt5.AccountSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.SummaryErr[login]; err != nil {
		return nil, err
	}

	summary, ok := c.Summaries[login]
	if !ok {
		return nil, mt5.ErrSummaryFetch
	}

	summaryCopy := *summary
	return &summaryCopy, nil
}

// OrderHistory returns the scripted orders for the login.
func (c *Connector) OrderHistory(_ context.Context, login string, _, _ time.Time) ([]*mt5.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.HistoryErr[login]; err != nil {
		return nil, err
	}
	return c.Orders[login], nil
}

// SetSummary scripts the summary returned for a login.
func (c *Connector) SetSummary(login string, summary *mt5.AccountSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Summaries[login] = summary
}

// ConnectCount returns the number of Connect calls seen for a login.
func (c *Connector) ConnectCount(login string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, conn := range c.Connections {
		if conn.Login == login {
			n++
		}
	}
	return n
}
