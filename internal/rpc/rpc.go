// Package rpc names the upstream method ids and provides a thin client
// that routes calls through the batched-execute transport.
package rpc

import (
	"context"
	"fmt"

	"github.com/nlmtools/nlmbulk/internal/batchexecute"
)

// RPC endpoint IDs for NotebookLM services.
const (
	// Notebook operations
	RPCListNotebooks  = "wXbhsf" // ListRecentlyViewedProjects
	RPCCreateNotebook = "CCqFvf" // CreateProject
	RPCGetNotebook    = "rLM1Ne" // GetProject
	RPCDeleteNotebook = "WWINqb" // DeleteProjects

	// Source operations
	RPCAddSources    = "izAoDd" // AddSources
	RPCDeleteSources = "tGMBJ"  // DeleteSources
)

// Call represents one NotebookLM RPC call. NotebookID, when set, shapes
// the source-path hint only; it never enters the call arguments.
type Call struct {
	ID         string
	Args       []interface{}
	NotebookID string
}

// Client handles NotebookLM RPC communication.
type Client struct {
	transport *batchexecute.Client
}

// New creates a new NotebookLM RPC client over the given transport.
func New(transport *batchexecute.Client) *Client {
	return &Client{transport: transport}
}

// Do executes a call and returns the raw response text.
func (c *Client) Do(ctx context.Context, call Call) (string, error) {
	sourcePath := "/"
	if call.NotebookID != "" {
		sourcePath = "/notebook/" + call.NotebookID
	}

	raw, err := c.transport.Do(ctx, call.ID, call.Args, sourcePath)
	if err != nil {
		return "", fmt.Errorf("execute rpc: %w", err)
	}
	return raw, nil
}
