// Package api provides the NotebookLM domain operations. Every operation
// validates its own inputs before touching the network and wraps transport
// failures with the operation name, so callers see one error per call
// rather than a chain of transport internals.
package api

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/rpc"
	"github.com/nlmtools/nlmbulk/internal/wire"
)

// AccountLister supplies the signed-in accounts for the session.
type AccountLister interface {
	ListAccounts(ctx context.Context) []wire.Account
}

// Client handles NotebookLM API interactions.
type Client struct {
	rpc      *rpc.Client
	accounts AccountLister
	log      *zap.Logger
	debug    bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithDebug dumps decoded structures to the log at debug level.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.debug = debug }
}

// New creates a new NotebookLM API client.
func New(rpcClient *rpc.Client, accounts AccountLister, opts ...Option) *Client {
	c := &Client{
		rpc:      rpcClient,
		accounts: accounts,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// dump logs a decoded structure when debug is on.
func (c *Client) dump(label string, v interface{}) {
	if !c.debug {
		return
	}
	c.log.Debug(label, zap.String("value", spew.Sdump(v)))
}

// ListAccounts returns the signed-in accounts, reindexed 0..n-1. Failures
// yield an empty list; account selection is advisory.
func (c *Client) ListAccounts(ctx context.Context) []wire.Account {
	if c.accounts == nil {
		return []wire.Account{}
	}
	accounts := c.accounts.ListAccounts(ctx)
	c.dump("accounts", accounts)
	return accounts
}

func invalidField(field, value string) error {
	return fmt.Errorf("invalid %s: %q", field, value)
}
