// Package bulk orchestrates multi-url imports. Batches are issued
// sequentially; the upstream service is stateful per request id and
// rate-sensitive, so nothing here runs calls in parallel.
package bulk

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nlmtools/nlmbulk/internal/wire"
)

// BatchSize is how many urls one import batch carries. Deliberately far
// below the transport's per-call cap to keep request latency low and
// progress feedback smooth.
const BatchSize = 10

// API is the slice of the client the orchestrator needs.
type API interface {
	AddSources(ctx context.Context, notebookID string, urls []string) (int, error)
	SourcesReady(ctx context.Context, notebookID string) (bool, error)
	ListNotebooks(ctx context.Context) ([]wire.Notebook, error)
}

// Outcome is an import's terminal state. There is no silent mixed state:
// every import ends in exactly one of these.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Result is the aggregate of one import run.
type Result struct {
	Imported  int             `json:"imported"`
	Failed    int             `json:"failed"`
	Outcome   Outcome         `json:"outcome"`
	Ready     bool            `json:"ready"`
	Notebooks []wire.Notebook `json:"notebooks,omitempty"`
}

// Importer runs bulk imports against an API.
type Importer struct {
	api       API
	log       *zap.Logger
	batchSize int
	poller    Poller
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(i *Importer) { i.log = log }
}

// WithBatchSize overrides the per-batch url count.
func WithBatchSize(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

// WithPoller overrides the readiness poller, mainly for tests.
func WithPoller(p Poller) Option {
	return func(i *Importer) { i.poller = p }
}

// New creates an Importer.
func New(api API, opts ...Option) *Importer {
	i := &Importer{
		api:       api,
		log:       zap.NewNop(),
		batchSize: BatchSize,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Progress reports per-batch advancement to an observer.
type Progress func(done, total int)

// ImportURLs imports urls into a notebook in fixed-size batches, applied
// in input order. A failing batch marks all of its urls failed; there is
// no retry or bisection within a batch. After the last batch one
// best-effort readiness poll runs and the notebook list is refreshed so
// callers see updated source counts.
func (i *Importer) ImportURLs(ctx context.Context, notebookID string, urls []string, progress Progress) (Result, error) {
	if len(urls) == 0 {
		return Result{}, fmt.Errorf("no urls to import")
	}

	var result Result
	done := 0
	for _, batch := range wire.Chunk(urls, i.batchSize) {
		if _, err := i.api.AddSources(ctx, notebookID, batch); err != nil {
			result.Failed += len(batch)
			i.log.Warn("import batch failed",
				zap.String("notebook", notebookID),
				zap.Int("size", len(batch)),
				zap.Error(err))
		} else {
			result.Imported += len(batch)
		}
		done += len(batch)
		if progress != nil {
			progress(done, len(urls))
		}
	}

	switch {
	case result.Failed == 0:
		result.Outcome = OutcomeSuccess
	case result.Imported > 0:
		result.Outcome = OutcomePartial
	default:
		result.Outcome = OutcomeFailure
	}

	if result.Imported > 0 {
		poller := i.poller
		poller.Probe = func(ctx context.Context) (bool, error) {
			return i.api.SourcesReady(ctx, notebookID)
		}
		result.Ready = poller.Run(ctx)

		notebooks, err := i.api.ListNotebooks(ctx)
		if err != nil {
			i.log.Warn("notebook list refresh failed", zap.Error(err))
		} else {
			result.Notebooks = notebooks
		}
	}

	return result, nil
}

// EmojiForURLs picks the glyph for a notebook auto-created to hold urls:
// the TV glyph when every url is a YouTube link, the stock notebook glyph
// otherwise.
func EmojiForURLs(urls []string) string {
	if len(urls) == 0 {
		return wire.DefaultEmoji
	}
	for _, u := range urls {
		if !wire.IsYouTubeURL(u) {
			return wire.DefaultEmoji
		}
	}
	return "\U0001F4FA"
}
