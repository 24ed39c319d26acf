package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/nlmtools/nlmbulk/internal/rpc"
	"github.com/nlmtools/nlmbulk/internal/wire"
)

func TestAddSourcesFiltersInvalidURLs(t *testing.T) {
	id := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})

	added, err := c.AddSources(context.Background(), id, []string{"not-a-url", "https://a.com"})
	if err != nil {
		t.Fatalf("AddSources() error = %v", err)
	}
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}

	calls := upstream.recorded()
	if len(calls) != 1 || calls[0].RPCID != rpc.RPCAddSources {
		t.Fatalf("calls = %+v", calls)
	}
	if !strings.Contains(calls[0].Args, "https://a.com") {
		t.Errorf("args missing surviving url: %s", calls[0].Args)
	}
	if strings.Contains(calls[0].Args, "not-a-url") {
		t.Errorf("args carry rejected url: %s", calls[0].Args)
	}
	if !strings.Contains(calls[0].Args, id) {
		t.Errorf("args missing notebook id: %s", calls[0].Args)
	}
}

func TestAddSourcesNothingValid(t *testing.T) {
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) { return "", 0 })
	if _, err := c.AddSources(context.Background(), uuid.NewString(), []string{"nope", "javascript:alert(1)"}); err == nil {
		t.Error("AddSources() error = nil, want failure on empty url set")
	}
	if len(upstream.recorded()) != 0 {
		t.Error("failure still issued a call")
	}
}

func TestAddSourcesTruncatesAtCap(t *testing.T) {
	urls := make([]string, wire.MaxAddURLs+50)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/%d", i)
	}

	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	added, err := c.AddSources(context.Background(), uuid.NewString(), urls)
	if err != nil {
		t.Fatalf("AddSources() error = %v", err)
	}
	if added != wire.MaxAddURLs {
		t.Errorf("added = %d, want %d", added, wire.MaxAddURLs)
	}

	calls := upstream.recorded()
	if got := strings.Count(calls[0].Args, "https://example.com/"); got != wire.MaxAddURLs {
		t.Errorf("urls in payload = %d, want %d", got, wire.MaxAddURLs)
	}
}

func TestAddSourcesYouTubePayloadSlot(t *testing.T) {
	id := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	if _, err := c.AddSources(context.Background(), id, []string{"https://youtu.be/abc", "https://example.com/x"}); err != nil {
		t.Fatalf("AddSources() error = %v", err)
	}

	var args []interface{}
	if err := json.Unmarshal([]byte(upstream.recorded()[0].Args), &args); err != nil {
		t.Fatalf("unmarshal args: %v", err)
	}
	sources := args[0].([]interface{})
	if yt := sources[0].([]interface{}); len(yt) != 8 {
		t.Errorf("youtube payload slots = %d, want 8", len(yt))
	}
	if generic := sources[1].([]interface{}); len(generic) != 3 {
		t.Errorf("generic payload slots = %d, want 3", len(generic))
	}
}

func TestAddTextSource(t *testing.T) {
	id := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	if err := c.AddTextSource(context.Background(), id, "body text", "Notes"); err != nil {
		t.Fatalf("AddTextSource() error = %v", err)
	}

	wantArgs := fmt.Sprintf(`[[["body text","Notes"]],%q]`, id)
	if got := upstream.recorded()[0].Args; got != wantArgs {
		t.Errorf("args = %s, want %s", got, wantArgs)
	}
}

func TestAddTextSourceEmptyText(t *testing.T) {
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) { return "", 0 })
	if err := c.AddTextSource(context.Background(), uuid.NewString(), "  ", "Notes"); err == nil {
		t.Error("AddTextSource() error = nil, want validation failure")
	}
	if len(upstream.recorded()) != 0 {
		t.Error("validation failure still issued a call")
	}
}

func TestDeleteSourceExcludesNotebookIDFromPayload(t *testing.T) {
	notebookID := uuid.NewString()
	sourceID := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	if err := c.DeleteSource(context.Background(), notebookID, sourceID); err != nil {
		t.Fatalf("DeleteSource() error = %v", err)
	}

	call := upstream.recorded()[0]
	wantArgs := fmt.Sprintf(`[[[%q]]]`, sourceID)
	if call.Args != wantArgs {
		t.Errorf("args = %s, want %s", call.Args, wantArgs)
	}
	if strings.Contains(call.Args, notebookID) {
		t.Error("notebook id leaked into payload")
	}
	if call.SourcePath != "/notebook/"+notebookID {
		t.Errorf("source-path = %q", call.SourcePath)
	}
}

func TestDeleteSourcesChunks(t *testing.T) {
	ids := make([]string, 25)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	deleted, err := c.DeleteSources(context.Background(), uuid.NewString(), ids)
	if err != nil {
		t.Fatalf("DeleteSources() error = %v", err)
	}
	if deleted != 25 {
		t.Errorf("deleted = %d, want 25", deleted)
	}

	calls := upstream.recorded()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if got := strings.Count(calls[0].Args, `"`) / 2; got != 20 {
		t.Errorf("first chunk ids = %d, want 20", got)
	}
	if got := strings.Count(calls[1].Args, `"`) / 2; got != 5 {
		t.Errorf("second chunk ids = %d, want 5", got)
	}
}

func TestDeleteSourcesFiltersInvalidIDs(t *testing.T) {
	valid := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return "ok", 0
	})
	deleted, err := c.DeleteSources(context.Background(), uuid.NewString(), []string{"nope", valid})
	if err != nil {
		t.Fatalf("DeleteSources() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if got := upstream.recorded()[0].Args; !strings.Contains(got, valid) || strings.Contains(got, "nope") {
		t.Errorf("args = %s", got)
	}
}

func TestDeleteSourcesAllInvalid(t *testing.T) {
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) { return "", 0 })
	if _, err := c.DeleteSources(context.Background(), uuid.NewString(), []string{"nope"}); err == nil {
		t.Error("DeleteSources() error = nil, want hard failure")
	}
	if len(upstream.recorded()) != 0 {
		t.Error("hard failure still issued a call")
	}
}

func TestWaitForSourcesReadyImmediately(t *testing.T) {
	id := uuid.NewString()
	c, upstream := newTestClient(t, func(call upstreamCall) (string, int) {
		return envelopeBody(t, rpc.RPCGetNotebook, []interface{}{[]interface{}{"nb", []interface{}{}, id}}), 0
	})
	if !c.WaitForSources(context.Background(), id, 5) {
		t.Error("WaitForSources() = false, want true")
	}
	if len(upstream.recorded()) != 1 {
		t.Errorf("probes = %d, want 1", len(upstream.recorded()))
	}
}

func TestWaitForSourcesNotReady(t *testing.T) {
	id := uuid.NewString()
	c, _ := newTestClient(t, func(call upstreamCall) (string, int) {
		return `[["wrb.fr","` + rpc.RPCGetNotebook + `","[null,\"` + id + `]",null,null,null,"generic"]]`, 0
	})
	if c.WaitForSources(context.Background(), id, 1) {
		t.Error("WaitForSources() = true, want false while processing")
	}
}
