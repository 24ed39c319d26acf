// Package auth manages the two opaque tokens every authenticated call
// needs. They are scraped from the host application's page HTML and live
// until a call fails authentication or the account index changes; there is
// no credential store of its own, the session cookies come from the caller.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/validate"
)

// ErrNotSignedIn is the single user-facing failure for any problem
// acquiring tokens. The detail behind it is logged, never surfaced.
var ErrNotSignedIn = errors.New("please sign in to NotebookLM first")

const (
	defaultBaseURL = "https://notebooklm.google.com"

	// The page embeds the tokens under these JSON keys.
	buildTokenKey = "cfb2h"
	authTokenKey  = "SNlM0e"
)

// tokenCharset is the only shape a scraped token is allowed to have.
// Anything else is discarded rather than used.
var tokenCharset = regexp.MustCompile(`^[\w.:-]+$`)

// Tokens is one account's token pair, scoped to a single account index.
type Tokens struct {
	SecurityToken string // build token, travels in the request URL
	RequestToken  string // auth token, travels in the form body
	AccountIndex  int
}

// Manager fetches and caches Tokens.
type Manager struct {
	baseURL     string
	accountsURL string
	cookies     string
	httpClient  *http.Client
	log         *zap.Logger

	mu      sync.Mutex
	current *Tokens
}

// Option configures a Manager.
type Option func(*Manager)

// WithBaseURL overrides the host application root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(m *Manager) { m.baseURL = u }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a Manager using the given session cookies.
func NewManager(cookies string, opts ...Option) *Manager {
	m := &Manager{
		baseURL:     defaultBaseURL,
		accountsURL: defaultAccountsURL,
		cookies:     cookies,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Redirects are handled manually: a redirect response is
			// evidence of reachability, and its body is parsed like any
			// other (it simply won't contain tokens).
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tokens returns the cached token pair for accountIndex, fetching a fresh
// one when nothing usable is cached.
func (m *Manager) Tokens(ctx context.Context, accountIndex int) (Tokens, error) {
	m.mu.Lock()
	if m.current != nil && m.current.AccountIndex == accountIndex {
		t := *m.current
		m.mu.Unlock()
		return t, nil
	}
	m.mu.Unlock()
	return m.Refresh(ctx, accountIndex)
}

// Refresh fetches a new token pair regardless of what is cached.
func (m *Manager) Refresh(ctx context.Context, accountIndex int) (Tokens, error) {
	t, err := m.fetch(ctx, accountIndex)
	if err != nil {
		m.log.Warn("token acquisition failed", zap.Int("account", accountIndex), zap.Error(err))
		return Tokens{}, ErrNotSignedIn
	}

	m.mu.Lock()
	m.current = &t
	m.mu.Unlock()
	return t, nil
}

// Invalidate drops the cached tokens so the next operation re-acquires.
// Called after a request is rejected for lacking valid tokens.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

func (m *Manager) fetch(ctx context.Context, accountIndex int) (Tokens, error) {
	u := m.baseURL
	if accountIndex > 0 {
		u = fmt.Sprintf("%s/?authuser=%d&pageId=none", m.baseURL, accountIndex)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Tokens{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cookie", m.cookies)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	redirect := resp.StatusCode >= 300 && resp.StatusCode < 400
	if resp.StatusCode != http.StatusOK && !redirect {
		return Tokens{}, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, fmt.Errorf("read page: %w", err)
	}

	security := ExtractToken(buildTokenKey, string(body))
	request := ExtractToken(authTokenKey, string(body))
	if security == "" || request == "" {
		return Tokens{}, errors.New("tokens not found in page")
	}

	return Tokens{
		SecurityToken: security,
		RequestToken:  request,
		AccountIndex:  accountIndex,
	}, nil
}

// ExtractToken pulls the value of a "key":"value" pair out of page HTML.
// The key is escaped before interpolation into the pattern, and the value
// must match the token charset or it is discarded.
func ExtractToken(key, html string) string {
	pattern, err := regexp.Compile(`"` + validate.EscapeRegex(key) + `":"([^"]+)"`)
	if err != nil {
		return ""
	}
	match := pattern.FindStringSubmatch(html)
	if match == nil {
		return ""
	}
	if !tokenCharset.MatchString(match[1]) {
		return ""
	}
	return match[1]
}
