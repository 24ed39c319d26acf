package api

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/rpc"
	"github.com/nlmtools/nlmbulk/internal/validate"
	"github.com/nlmtools/nlmbulk/internal/wire"
)

// ListNotebooks returns the owned notebooks. Shared notebooks never appear.
func (c *Client) ListNotebooks(ctx context.Context) ([]wire.Notebook, error) {
	raw, err := c.rpc.Do(ctx, rpc.Call{
		ID:   rpc.RPCListNotebooks,
		Args: wire.ListNotebooksArgs(),
	})
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}

	notebooks := wire.DecodeNotebookList(raw)
	c.dump("notebooks", notebooks)
	return notebooks, nil
}

// CreateNotebook creates a notebook and returns its record. The returned
// name echoes the requested title; the id comes from the response.
func (c *Client) CreateNotebook(ctx context.Context, title, emoji string) (wire.Notebook, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return wire.Notebook{}, invalidField("title", title)
	}
	if emoji == "" {
		emoji = wire.DefaultEmoji
	}

	raw, err := c.rpc.Do(ctx, rpc.Call{
		ID:   rpc.RPCCreateNotebook,
		Args: wire.CreateNotebookArgs(title, emoji),
	})
	if err != nil {
		return wire.Notebook{}, fmt.Errorf("create notebook: %w", err)
	}

	id, err := wire.ExtractCreatedID(raw)
	if err != nil {
		return wire.Notebook{}, err
	}
	return wire.Notebook{ID: id, Name: title, Emoji: emoji}, nil
}

// GetNotebook returns a notebook's detail including its sources. When the
// response carries no id of its own, the requested id is filled in.
func (c *Client) GetNotebook(ctx context.Context, notebookID string) (wire.NotebookDetail, error) {
	if !validate.NotebookID(notebookID) {
		return wire.NotebookDetail{}, invalidField("notebook id", notebookID)
	}

	raw, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCGetNotebook,
		Args:       wire.GetNotebookArgs(notebookID),
		NotebookID: notebookID,
	})
	if err != nil {
		return wire.NotebookDetail{}, fmt.Errorf("get notebook: %w", err)
	}

	detail := wire.DecodeNotebookDetail(raw)
	if detail.ID == "" {
		detail.ID = notebookID
	}
	c.dump("notebook detail", detail)
	return detail, nil
}

// DeleteNotebook deletes one notebook.
func (c *Client) DeleteNotebook(ctx context.Context, notebookID string) error {
	if !validate.NotebookID(notebookID) {
		return invalidField("notebook id", notebookID)
	}

	_, err := c.rpc.Do(ctx, rpc.Call{
		ID:         rpc.RPCDeleteNotebook,
		Args:       wire.DeleteNotebookArgs(notebookID),
		NotebookID: notebookID,
	})
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	return nil
}

// DeleteNotebooks deletes notebooks one by one, continuing past individual
// failures. Invalid ids are dropped with a warning before any call is
// issued. The result distinguishes none, some, and all succeeded.
func (c *Client) DeleteNotebooks(ctx context.Context, notebookIDs []string) (wire.BatchResult, error) {
	valid := validate.FilterNotebookIDs(notebookIDs)
	if dropped := len(notebookIDs) - len(valid); dropped > 0 {
		c.log.Warn("dropping invalid notebook ids", zap.Int("dropped", dropped))
	}
	if len(valid) == 0 {
		return wire.BatchResult{}, fmt.Errorf("no valid notebook ids")
	}

	var result wire.BatchResult
	for _, id := range valid {
		if err := c.DeleteNotebook(ctx, id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, wire.BatchError{ItemID: id, Message: err.Error()})
			c.log.Warn("delete notebook failed", zap.String("notebook", id), zap.Error(err))
			continue
		}
		result.Succeeded++
	}
	return result, nil
}
