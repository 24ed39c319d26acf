package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nlmtools/nlmbulk/internal/auth"
	"github.com/nlmtools/nlmbulk/internal/batchexecute"
	"github.com/nlmtools/nlmbulk/internal/rpc"
)

type staticTokens struct{}

func (staticTokens) Tokens(ctx context.Context, accountIndex int) (auth.Tokens, error) {
	return auth.Tokens{SecurityToken: "bl", RequestToken: "at"}, nil
}

func (staticTokens) Invalidate() {}

type upstreamCall struct {
	RPCID      string
	Args       string
	SourcePath string
}

// fakeUpstream records every batched-execute request and answers via the
// test's respond hook.
type fakeUpstream struct {
	t  *testing.T
	mu sync.Mutex

	calls   []upstreamCall
	respond func(call upstreamCall) (body string, status int)
}

func (f *fakeUpstream) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("ParseForm: %v", err)
		return
	}

	var outer [][][]interface{}
	if err := json.Unmarshal([]byte(r.PostForm.Get("f.req")), &outer); err != nil {
		f.t.Errorf("unmarshal f.req: %v", err)
		return
	}
	frag := outer[0][0]
	call := upstreamCall{
		RPCID:      frag[0].(string),
		Args:       frag[1].(string),
		SourcePath: r.URL.Query().Get("source-path"),
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	body, status := f.respond(call)
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	fmt.Fprint(w, body)
}

func (f *fakeUpstream) recorded() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

func newTestClient(t *testing.T, respond func(call upstreamCall) (string, int)) (*Client, *fakeUpstream) {
	t.Helper()
	upstream := &fakeUpstream{t: t, respond: respond}
	srv := httptest.NewServer(http.HandlerFunc(upstream.handler))
	t.Cleanup(srv.Close)

	transport := batchexecute.NewClient(batchexecute.Config{
		Host:       strings.TrimPrefix(srv.URL, "http://"),
		UseHTTP:    true,
		RetryDelay: time.Millisecond,
	}, staticTokens{})
	return New(rpc.New(transport), nil), upstream
}

// envelopeBody wraps an inner payload the way the upstream transport does:
// prefix line, noise line, then the fragment line carrying the
// double-JSON-encoded payload.
func envelopeBody(t *testing.T, rpcID string, inner interface{}) string {
	t.Helper()
	innerJSON, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshal inner: %v", err)
	}
	line, err := json.Marshal([]interface{}{
		[]interface{}{"wrb.fr", rpcID, string(innerJSON), nil, nil, nil, "generic"},
	})
	if err != nil {
		t.Fatalf("marshal fragment: %v", err)
	}
	return ")]}'\n\n123\n" + string(line) + "\n"
}

func notebookListBody(t *testing.T, entries ...[]interface{}) string {
	t.Helper()
	list := make([]interface{}, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return envelopeBody(t, rpc.RPCListNotebooks, []interface{}{list})
}
