package bulk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/nlmtools/nlmbulk/internal/wire"
)

type fakeAPI struct {
	batches    [][]string
	failBatch  map[int]bool // indices of AddSources calls that fail
	readyAfter int          // SourcesReady probes returning false before true
	probes     int
	notebooks  []wire.Notebook
	listErr    error
}

func (f *fakeAPI) AddSources(ctx context.Context, notebookID string, urls []string) (int, error) {
	call := len(f.batches)
	f.batches = append(f.batches, append([]string(nil), urls...))
	if f.failBatch[call] {
		return 0, fmt.Errorf("upstream rejected batch")
	}
	return len(urls), nil
}

func (f *fakeAPI) SourcesReady(ctx context.Context, notebookID string) (bool, error) {
	f.probes++
	return f.probes > f.readyAfter, nil
}

func (f *fakeAPI) ListNotebooks(ctx context.Context) ([]wire.Notebook, error) {
	return f.notebooks, f.listErr
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testImporter(api API, opts ...Option) *Importer {
	opts = append([]Option{WithPoller(Poller{Sleep: noSleep, MaxAttempts: 3})}, opts...)
	return New(api, opts...)
}

func urlList(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
	}
	return urls
}

func TestImportURLsBatchesInOrder(t *testing.T) {
	api := &fakeAPI{notebooks: []wire.Notebook{{ID: uuid.NewString(), Name: "nb"}}}
	imp := testImporter(api)

	urls := urlList(25)
	result, err := imp.ImportURLs(context.Background(), uuid.NewString(), urls, nil)
	if err != nil {
		t.Fatalf("ImportURLs() error = %v", err)
	}

	if len(api.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(api.batches))
	}
	if len(api.batches[0]) != 10 || len(api.batches[1]) != 10 || len(api.batches[2]) != 5 {
		t.Errorf("batch sizes = %d/%d/%d", len(api.batches[0]), len(api.batches[1]), len(api.batches[2]))
	}
	if api.batches[0][0] != urls[0] || api.batches[2][4] != urls[24] {
		t.Error("batches out of input order")
	}

	if result.Outcome != OutcomeSuccess || result.Imported != 25 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}
	if !result.Ready {
		t.Error("Ready = false, want true")
	}
	if diff := cmp.Diff(api.notebooks, result.Notebooks); diff != "" {
		t.Errorf("notebooks mismatch (-want +got):\n%s", diff)
	}
}

func TestImportURLsPartialFailure(t *testing.T) {
	api := &fakeAPI{failBatch: map[int]bool{1: true}}
	imp := testImporter(api)

	result, err := imp.ImportURLs(context.Background(), uuid.NewString(), urlList(25), nil)
	if err != nil {
		t.Fatalf("ImportURLs() error = %v", err)
	}
	if result.Outcome != OutcomePartial {
		t.Errorf("Outcome = %s, want partial", result.Outcome)
	}
	if result.Imported != 15 || result.Failed != 10 {
		t.Errorf("imported/failed = %d/%d, want 15/10", result.Imported, result.Failed)
	}
	// All batches still attempted.
	if len(api.batches) != 3 {
		t.Errorf("batches = %d, want 3", len(api.batches))
	}
}

func TestImportURLsTotalFailure(t *testing.T) {
	api := &fakeAPI{failBatch: map[int]bool{0: true, 1: true}}
	imp := testImporter(api)

	result, err := imp.ImportURLs(context.Background(), uuid.NewString(), urlList(12), nil)
	if err != nil {
		t.Fatalf("ImportURLs() error = %v", err)
	}
	if result.Outcome != OutcomeFailure {
		t.Errorf("Outcome = %s, want failure", result.Outcome)
	}
	if api.probes != 0 {
		t.Errorf("probes = %d, want no readiness poll after total failure", api.probes)
	}
	if result.Notebooks != nil {
		t.Error("Notebooks refreshed after total failure")
	}
}

func TestImportURLsEmpty(t *testing.T) {
	imp := testImporter(&fakeAPI{})
	if _, err := imp.ImportURLs(context.Background(), uuid.NewString(), nil, nil); err == nil {
		t.Error("ImportURLs() error = nil, want failure on empty input")
	}
}

func TestImportURLsProgress(t *testing.T) {
	imp := testImporter(&fakeAPI{})
	var steps [][2]int
	_, err := imp.ImportURLs(context.Background(), uuid.NewString(), urlList(25), func(done, total int) {
		steps = append(steps, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("ImportURLs() error = %v", err)
	}
	want := [][2]int{{10, 25}, {20, 25}, {25, 25}}
	if diff := cmp.Diff(want, steps); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestImportURLsListRefreshFailureIsBestEffort(t *testing.T) {
	api := &fakeAPI{listErr: fmt.Errorf("upstream down")}
	imp := testImporter(api)

	result, err := imp.ImportURLs(context.Background(), uuid.NewString(), urlList(5), nil)
	if err != nil {
		t.Fatalf("ImportURLs() error = %v", err)
	}
	if result.Outcome != OutcomeSuccess {
		t.Errorf("Outcome = %s, want success despite refresh failure", result.Outcome)
	}
}

func TestPollerReadyAfterRetries(t *testing.T) {
	probes := 0
	var slept []time.Duration
	p := Poller{
		Probe: func(ctx context.Context) (bool, error) {
			probes++
			return probes >= 3, nil
		},
		MaxAttempts: 5,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}
	if !p.Run(context.Background()) {
		t.Error("Run() = false, want true")
	}
	if probes != 3 {
		t.Errorf("probes = %d, want 3", probes)
	}
	for _, d := range slept {
		if d != time.Second {
			t.Errorf("sleep interval = %v, want 1s", d)
		}
	}
}

func TestPollerTimesOut(t *testing.T) {
	probes := 0
	p := Poller{
		Probe: func(ctx context.Context) (bool, error) {
			probes++
			return false, nil
		},
		MaxAttempts: 4,
		Sleep:       noSleep,
	}
	if p.Run(context.Background()) {
		t.Error("Run() = true, want timeout")
	}
	if probes != 4 {
		t.Errorf("probes = %d, want MaxAttempts", probes)
	}
}

func TestPollerProbeErrorsKeepPolling(t *testing.T) {
	probes := 0
	p := Poller{
		Probe: func(ctx context.Context) (bool, error) {
			probes++
			if probes < 2 {
				return true, fmt.Errorf("transient") // error wins over ready
			}
			return true, nil
		},
		MaxAttempts: 3,
		Sleep:       noSleep,
	}
	if !p.Run(context.Background()) {
		t.Error("Run() = false, want true after transient probe error")
	}
	if probes != 2 {
		t.Errorf("probes = %d, want 2", probes)
	}
}

func TestEmojiForURLs(t *testing.T) {
	tests := []struct {
		name string
		urls []string
		want string
	}{
		{"all youtube", []string{"https://youtu.be/a", "https://www.youtube.com/watch?v=b"}, "\U0001F4FA"},
		{"mixed", []string{"https://youtu.be/a", "https://example.com"}, wire.DefaultEmoji},
		{"empty", nil, wire.DefaultEmoji},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmojiForURLs(tt.urls); got != tt.want {
				t.Errorf("EmojiForURLs() = %q, want %q", got, tt.want)
			}
		})
	}
}
