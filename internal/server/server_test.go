package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragagent/internal/domain"
	"ragagent/internal/history"
)

type echoProcessor struct{ queries []string }

func (p *echoProcessor) Process(_ context.Context, q string) domain.QueryResult {
	p.queries = append(p.queries, q)
	tool, out := "calculator", "4"
	return domain.QueryResult{Query: q, Decision: "Used calculator tool", ToolUsed: &tool, ToolInput: &q, ToolOutput: &out, Answer: out}
}

type fakeHistory struct {
	entries []history.Entry
	err     error
	asked   int
}

func (h *fakeHistory) Recent(_ context.Context, n int) ([]history.Entry, error) {
	h.asked = n
	return h.entries, h.err
}

type fixedStats struct {
	chunks  int
	sources []string
}

func (s fixedStats) Len() int          { return s.chunks }
func (s fixedStats) Sources() []string { return s.sources }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQuery(t *testing.T) {
	p := &echoProcessor{}
	h := Handler(p, Options{}, zerolog.Nop())

	rec := do(t, h, http.MethodPost, "/query", `{"query":"  calculate 2 + 2 "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "calculate 2 + 2", got["query"])
	assert.Equal(t, "calculator", got["tool_used"])
	assert.Equal(t, "4", got["answer"])
	assert.NotContains(t, got, "retrieved_context")
	assert.Equal(t, []string{"calculate 2 + 2"}, p.queries)
}

func TestQueryRejectsBadRequests(t *testing.T) {
	p := &echoProcessor{}
	h := Handler(p, Options{}, zerolog.Nop())

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/query", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/query", `{"query":"   "}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/query", "").Code)
	assert.Empty(t, p.queries)
}

func TestHistory(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	hist := &fakeHistory{entries: []history.Entry{{ID: 1, CreatedAt: created, Query: "q", Decision: "d", Answer: "a"}}}
	h := Handler(&echoProcessor{}, Options{History: hist, HistoryLimit: 7}, zerolog.Nop())

	rec := do(t, h, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, hist.asked)
	var got []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, hist.entries, got)

	rec = do(t, h, http.MethodGet, "/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, hist.asked)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/history?limit=x", "").Code)

	hist.entries = nil
	rec = do(t, h, http.MethodGet, "/history", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	hist.err = errors.New("db locked")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/history", "").Code)
}

func TestHistoryDisabled(t *testing.T) {
	h := Handler(&echoProcessor{}, Options{}, zerolog.Nop())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/history", "").Code)
}

func TestHealthz(t *testing.T) {
	stats := fixedStats{chunks: 12, sources: []string{"company_faq.txt", "products.txt"}}
	h := Handler(&echoProcessor{}, Options{Stats: stats}, zerolog.Nop())
	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","chunks":12,"sources":["company_faq.txt","products.txt"]}`, rec.Body.String())

	rec = do(t, Handler(&echoProcessor{}, Options{Stats: fixedStats{}}, zerolog.Nop()), http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","chunks":0,"sources":[]}`, rec.Body.String())

	rec = do(t, Handler(&echoProcessor{}, Options{}, zerolog.Nop()), http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, Handler(&echoProcessor{}, Options{}, zerolog.Nop()), zerolog.Nop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
