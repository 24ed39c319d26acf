// Package batchexecute is the single chokepoint for outbound RPC calls.
// Every call acquires a rate-limit token, ensures a token pair is cached,
// POSTs one method invocation to the batched-execute endpoint, and returns
// the raw response text. Decoding is the caller's responsibility; the wire
// format is a moving target and lives in its own package.
package batchexecute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/auth"
	"github.com/nlmtools/nlmbulk/internal/throttle"
)

// TokenSource supplies and invalidates the token pair calls are signed with.
type TokenSource interface {
	Tokens(ctx context.Context, accountIndex int) (auth.Tokens, error)
	Invalidate()
}

// Limiter gates call admission.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Config holds the configuration for the batched-execute transport.
type Config struct {
	Host         string
	App          string
	AccountIndex int
	Headers      map[string]string
	UseHTTP      bool

	Timeout time.Duration // per-call deadline (default: 30s)

	// Retry configuration
	MaxRetries    int           // Maximum number of retry attempts (default: 3)
	RetryDelay    time.Duration // Initial delay between retries (default: 1s)
	RetryMaxDelay time.Duration // Maximum delay between retries (default: 10s)
}

// Client handles batchexecute operations.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     TokenSource
	limiter    Limiter
	log        *zap.Logger
	reqid      *ReqIDGenerator
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithLimiter replaces the default rate limiter.
func WithLimiter(l Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithReqIDGenerator sets the request ID generator.
func WithReqIDGenerator(reqid *ReqIDGenerator) Option {
	return func(c *Client) { c.reqid = reqid }
}

// NewClient creates a new batchexecute client.
func NewClient(config Config, tokens TokenSource, opts ...Option) *Client {
	if config.Host == "" {
		config.Host = "notebooklm.google.com"
	}
	if config.App == "" {
		config.App = "LabsTailwindUi"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.RetryMaxDelay == 0 {
		config.RetryMaxDelay = 10 * time.Second
	}

	c := &Client{
		config:     config,
		httpClient: http.DefaultClient,
		tokens:     tokens,
		limiter:    throttle.New(),
		log:        zap.NewNop(),
		reqid:      NewReqIDGenerator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Config() Config {
	return c.config
}

// Do issues one RPC and returns the raw response body undecoded. The
// sourcePath hint travels as a URL parameter; the upstream service uses
// it for routing, nothing here interprets it.
func (c *Client) Do(ctx context.Context, rpcID string, args []interface{}, sourcePath string) (string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	tok, err := c.tokens.Tokens(ctx, c.config.AccountIndex)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	u, err := c.buildURL(rpcID, sourcePath, tok)
	if err != nil {
		return "", err
	}

	form, err := buildForm(rpcID, args, tok)
	if err != nil {
		return "", err
	}

	c.log.Debug("rpc call",
		zap.String("rpc", rpcID),
		zap.String("source_path", sourcePath),
		zap.Int("account", c.config.AccountIndex))

	resp, err := c.execute(ctx, u, form)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimedOut
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.tokens.Invalidate()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &BatchExecuteError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed: %s", resp.Status),
		}
	}

	return string(body), nil
}

func (c *Client) buildURL(rpcID, sourcePath string, tok auth.Tokens) (*url.URL, error) {
	u, err := url.Parse(fmt.Sprintf("https://%s/_/%s/data/batchexecute", c.config.Host, c.config.App))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if c.config.UseHTTP {
		u.Scheme = "http"
	}

	if sourcePath == "" {
		sourcePath = "/"
	}

	q := u.Query()
	q.Set("rpcids", rpcID)
	q.Set("source-path", sourcePath)
	q.Set("bl", tok.SecurityToken)
	q.Set("_reqid", c.reqid.Next())
	q.Set("rt", "c")
	if c.config.AccountIndex > 0 {
		q.Set("authuser", strconv.Itoa(c.config.AccountIndex))
	}
	u.RawQuery = q.Encode()
	return u, nil
}

func buildForm(rpcID string, args []interface{}, tok auth.Tokens) (url.Values, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal args: %w", err)
	}

	envelope, err := json.Marshal([]interface{}{
		[]interface{}{
			[]interface{}{rpcID, string(argsJSON), nil, "generic"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	form := url.Values{}
	form.Set("f.req", string(envelope))
	form.Set("at", tok.RequestToken)
	return form, nil
}

// execute performs the POST with retry on transient failures.
func (c *Client) execute(ctx context.Context, u *url.URL, form url.Values) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			multiplier := 1 << uint(attempt-1)
			delay := time.Duration(float64(c.config.RetryDelay) * float64(multiplier))
			if delay > c.config.RetryMaxDelay {
				delay = c.config.RetryMaxDelay
			}
			c.log.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Int("max", c.config.MaxRetries),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
		for k, v := range c.config.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = fmt.Errorf("execute request: %w", err)
			if isRetryableError(err) && attempt < c.config.MaxRetries {
				continue
			}
			return nil, lastErr
		}

		if isRetryableStatus(resp.StatusCode) && attempt < c.config.MaxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all retry attempts failed: %w", lastErr)
}

// ReqIDGenerator generates request IDs: a random 4-digit base, stepped by
// 100000 per call, matching the id sequence the web client emits.
type ReqIDGenerator struct {
	base     int
	sequence int
	mu       sync.Mutex
}

// NewReqIDGenerator creates a new request ID generator.
func NewReqIDGenerator() *ReqIDGenerator {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ReqIDGenerator{base: r.Intn(9000) + 1000}
}

// Next returns the next request ID in sequence.
func (g *ReqIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	reqid := g.base + (g.sequence * 100000)
	g.sequence++
	return strconv.Itoa(reqid)
}

// Reset resets the sequence counter but keeps the same base.
func (g *ReqIDGenerator) Reset() {
	g.mu.Lock()
	g.sequence = 0
	g.mu.Unlock()
}
