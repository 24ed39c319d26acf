// Package dispatch is the command boundary: a command name plus its
// parameters in, a result map out. Failures come back as {"error": msg};
// callers branch solely on the presence of that key and never see an
// exception or a typed error.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/wire"
)

// Command names serviced by Handle.
const (
	CmdListNotebooks   = "list-notebooks"
	CmdCreateNotebook  = "create-notebook"
	CmdAddSource       = "add-source"
	CmdAddSources      = "add-sources"
	CmdAddTextSource   = "add-text-source"
	CmdGetNotebook     = "get-notebook"
	CmdGetSources      = "get-sources"
	CmdDeleteSource    = "delete-source"
	CmdDeleteSources   = "delete-sources"
	CmdDeleteNotebook  = "delete-notebook"
	CmdDeleteNotebooks = "delete-notebooks"
	CmdListAccounts    = "list-accounts"
)

// Request carries one command and its parameters.
type Request struct {
	Cmd         string   `json:"cmd"`
	NotebookID  string   `json:"notebookId,omitempty"`
	NotebookIDs []string `json:"notebookIds,omitempty"`
	SourceID    string   `json:"sourceId,omitempty"`
	SourceIDs   []string `json:"sourceIds,omitempty"`
	URL         string   `json:"url,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	Text        string   `json:"text,omitempty"`
	Title       string   `json:"title,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
}

// Service is the slice of the API client the dispatcher needs.
type Service interface {
	ListNotebooks(ctx context.Context) ([]wire.Notebook, error)
	CreateNotebook(ctx context.Context, title, emoji string) (wire.Notebook, error)
	GetNotebook(ctx context.Context, notebookID string) (wire.NotebookDetail, error)
	AddSources(ctx context.Context, notebookID string, urls []string) (int, error)
	AddSource(ctx context.Context, notebookID, url string) error
	AddTextSource(ctx context.Context, notebookID, text, title string) error
	DeleteSource(ctx context.Context, notebookID, sourceID string) error
	DeleteSources(ctx context.Context, notebookID string, sourceIDs []string) (int, error)
	DeleteNotebook(ctx context.Context, notebookID string) error
	DeleteNotebooks(ctx context.Context, notebookIDs []string) (wire.BatchResult, error)
	ListAccounts(ctx context.Context) []wire.Account
}

// Handler routes commands to the API.
type Handler struct {
	api Service
	log *zap.Logger
}

// New creates a Handler.
func New(api Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{api: api, log: log}
}

// Result is a command outcome. On failure its only key is "error".
type Result map[string]interface{}

func fail(err error) Result {
	return Result{"error": err.Error()}
}

// Handle services one command. It never returns an error value; every
// outcome, including an unknown command, is a Result.
func (h *Handler) Handle(ctx context.Context, req Request) Result {
	res := h.handle(ctx, req)
	if msg, failed := res["error"]; failed {
		h.log.Warn("command failed", zap.String("cmd", req.Cmd), zap.Any("error", msg))
	}
	return res
}

func (h *Handler) handle(ctx context.Context, req Request) Result {
	switch req.Cmd {
	case CmdListNotebooks:
		notebooks, err := h.api.ListNotebooks(ctx)
		if err != nil {
			return fail(err)
		}
		return Result{"notebooks": notebooks}

	case CmdCreateNotebook:
		nb, err := h.api.CreateNotebook(ctx, req.Title, req.Emoji)
		if err != nil {
			return fail(err)
		}
		return Result{"notebook": nb}

	case CmdAddSource:
		if err := h.api.AddSource(ctx, req.NotebookID, req.URL); err != nil {
			return fail(err)
		}
		return Result{"added": 1}

	case CmdAddSources:
		added, err := h.api.AddSources(ctx, req.NotebookID, req.URLs)
		if err != nil {
			return fail(err)
		}
		return Result{"added": added}

	case CmdAddTextSource:
		if err := h.api.AddTextSource(ctx, req.NotebookID, req.Text, req.Title); err != nil {
			return fail(err)
		}
		return Result{"added": 1}

	case CmdGetNotebook:
		detail, err := h.api.GetNotebook(ctx, req.NotebookID)
		if err != nil {
			return fail(err)
		}
		return Result{"notebook": detail}

	case CmdGetSources:
		detail, err := h.api.GetNotebook(ctx, req.NotebookID)
		if err != nil {
			return fail(err)
		}
		return Result{"sources": detail.Sources}

	case CmdDeleteSource:
		if err := h.api.DeleteSource(ctx, req.NotebookID, req.SourceID); err != nil {
			return fail(err)
		}
		return Result{"deleted": 1}

	case CmdDeleteSources:
		deleted, err := h.api.DeleteSources(ctx, req.NotebookID, req.SourceIDs)
		if err != nil {
			return fail(err)
		}
		return Result{"deleted": deleted}

	case CmdDeleteNotebook:
		if err := h.api.DeleteNotebook(ctx, req.NotebookID); err != nil {
			return fail(err)
		}
		return Result{"deleted": true}

	case CmdDeleteNotebooks:
		result, err := h.api.DeleteNotebooks(ctx, req.NotebookIDs)
		if err != nil {
			return fail(err)
		}
		return Result{
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
			"errors":    result.Errors,
			"success":   result.Failed == 0,
		}

	case CmdListAccounts:
		return Result{"accounts": h.api.ListAccounts(ctx)}

	default:
		return fail(fmt.Errorf("unknown command: %q", req.Cmd))
	}
}
