package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/wire"
)

const defaultAccountsURL = "https://accounts.google.com/ListAccounts?json=standard&source=ogb&md=1&cc=1&mn=1&mo=1&gpsia=1&fwput=860&listPages=1&origin=https%3A%2F%2Fwww.google.com"

// WithAccountsURL overrides the account listing endpoint, mainly for tests.
func WithAccountsURL(u string) Option {
	return func(m *Manager) { m.accountsURL = u }
}

// ListAccounts fetches the signed-in Google accounts for the session.
// Any failure yields an empty list rather than an error; account listing
// is advisory and never blocks an operation.
func (m *Manager) ListAccounts(ctx context.Context) []wire.Account {
	accounts, err := m.fetchAccounts(ctx)
	if err != nil {
		m.log.Warn("account listing failed", zap.Error(err))
		return []wire.Account{}
	}
	return accounts
}

func (m *Manager) fetchAccounts(ctx context.Context) ([]wire.Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.accountsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cookie", m.cookies)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch accounts: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	return wire.ParseAccounts(string(body)), nil
}
