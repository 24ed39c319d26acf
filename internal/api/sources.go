package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/rpc"
	"github.com/nlmtools/nlmbulk/internal/validate"
	"github.com/nlmtools/nlmbulk/internal/wire"
)

// AddSources adds urls to a notebook as sources in a single call and
// returns how many were submitted. Invalid urls are filtered out; the call
// fails only when nothing valid remains. Anything beyond the upstream
// per-call cap is silently truncated.
func (c *Client) AddSources(ctx context.Context, notebookID string, urls []string) (int, error) {
	if !validate.NotebookID(notebookID) {
		return 0, invalidField("notebook id", notebookID)
	}

	valid := validate.FilterURLs(urls)
	if len(valid) == 0 {
		return 0, fmt.Errorf("no valid urls to add")
	}
	if len(valid) > wire.MaxAddURLs {
		c.log.Warn("truncating url list to upstream cap",
			zap.Int("requested", len(valid)), zap.Int("cap", wire.MaxAddURLs))
		valid = valid[:wire.MaxAddURLs]
	}

	_, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCAddSources,
		Args:       wire.AddSourcesArgs(wire.SourcePayloads(valid), notebookID),
		NotebookID: notebookID,
	})
	if err != nil {
		return 0, fmt.Errorf("add sources: %w", err)
	}
	return len(valid), nil
}

// AddSource adds a single url to a notebook.
func (c *Client) AddSource(ctx context.Context, notebookID, url string) error {
	_, err := c.AddSources(ctx, notebookID, []string{url})
	return err
}

// AddTextSource adds pasted text to a notebook as a source.
func (c *Client) AddTextSource(ctx context.Context, notebookID, text, title string) error {
	if !validate.NotebookID(notebookID) {
		return invalidField("notebook id", notebookID)
	}
	if strings.TrimSpace(text) == "" {
		return invalidField("text", text)
	}
	if title == "" {
		title = wire.DefaultSourceTitle
	}

	_, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCAddSources,
		Args:       wire.AddSourcesArgs(wire.TextSourcePayload(text, title), notebookID),
		NotebookID: notebookID,
	})
	if err != nil {
		return fmt.Errorf("add text source: %w", err)
	}
	return nil
}

// DeleteSource deletes one source from a notebook. The notebook id shapes
// the call's routing hint only and never enters the payload.
func (c *Client) DeleteSource(ctx context.Context, notebookID, sourceID string) error {
	if !validate.NotebookID(notebookID) {
		return invalidField("notebook id", notebookID)
	}
	if !validate.NotebookID(sourceID) {
		return invalidField("source id", sourceID)
	}

	_, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCDeleteSources,
		Args:       wire.DeleteSourcesArgs([]string{sourceID}),
		NotebookID: notebookID,
	})
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

// DeleteSources deletes sources from a notebook in chunks bounded by the
// upstream per-request limit, sequentially and in input order. Invalid ids
// are dropped with a warning; an id list that is empty after filtering is
// a hard failure. Returns the accumulated deleted count; a failing chunk
// stops the run and reports what was deleted before it.
func (c *Client) DeleteSources(ctx context.Context, notebookID string, sourceIDs []string) (int, error) {
	if !validate.NotebookID(notebookID) {
		return 0, invalidField("notebook id", notebookID)
	}

	valid := validate.FilterNotebookIDs(sourceIDs)
	if dropped := len(sourceIDs) - len(valid); dropped > 0 {
		c.log.Warn("dropping invalid source ids", zap.Int("dropped", dropped))
	}
	if len(valid) == 0 {
		return 0, fmt.Errorf("no valid source ids")
	}

	deleted := 0
	for _, chunk := range wire.Chunk(valid, wire.DeleteChunkLimit) {
		_, err := c.rpc.Do(ctx, rpc.Call{
			ID:         rpc.RPCDeleteSources,
			Args:       wire.DeleteSourcesArgs(chunk),
			NotebookID: notebookID,
		})
		if err != nil {
			return deleted, fmt.Errorf("delete sources: %w", err)
		}
		deleted += len(chunk)
	}
	return deleted, nil
}

// SourcesReady probes once whether a notebook's sources have finished
// processing.
func (c *Client) SourcesReady(ctx context.Context, notebookID string) (bool, error) {
	raw, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCGetNotebook,
		Args:       wire.GetNotebookArgs(notebookID),
		NotebookID: notebookID,
	})
	if err != nil {
		return false, fmt.Errorf("readiness probe: %w", err)
	}
	return wire.SourcesReady(raw, notebookID), nil
}

// WaitForSources polls SourcesReady once per second for up to maxAttempts.
// It reports readiness and never fails on timeout; not-ready is an
// ordinary outcome.
func (c *Client) WaitForSources(ctx context.Context, notebookID string, maxAttempts int) bool {
	if maxAttempts <= 0 {
		maxAttempts = 30
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return false
			}
		}

		ready, err := c.SourcesReady(ctx, notebookID)
		if err != nil {
			c.log.Debug("readiness probe failed", zap.String("notebook", notebookID), zap.Error(err))
			continue
		}
		if ready {
			return true
		}
	}
	return false
}
