package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/agentd/internal/agent"
	"github.com/mohammad-safakhou/agentd/internal/jobs"
	"github.com/mohammad-safakhou/agentd/internal/jobs/inmemory"
	"github.com/mohammad-safakhou/agentd/provider"
)

// fakeProvider blocks each round until released and records requests.
type fakeProvider struct {
	mu       sync.Mutex
	requests []provider.ChatRequest
	release  chan struct{}
	healthy  bool
}

func (p *fakeProvider) ChatStream(ctx context.Context, req provider.ChatRequest, onDelta func(string)) (provider.ChatResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return provider.ChatResult{}, ctx.Err()
		}
	}
	if onDelta != nil {
		onDelta("answer")
	}
	return provider.ChatResult{Content: "answer"}, nil
}

func (p *fakeProvider) Models(context.Context) ([]string, error) {
	return []string{"qwen2.5:7b"}, nil
}

func (p *fakeProvider) Health(context.Context) error {
	if !p.healthy {
		return errors.New("backend unreachable")
	}
	return nil
}

func (p *fakeProvider) recorded() []provider.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]provider.ChatRequest(nil), p.requests...)
}

type noopExecutor struct{}

func (noopExecutor) Describe(provider.ToolCall) agent.ToolAction {
	return agent.ToolAction{Activity: "doing something"}
}

func (noopExecutor) Execute(context.Context, provider.ToolCall) string {
	return "ok"
}

func newTestHandler(p provider.Provider, store jobs.Store) (*AgentHandler, *echo.Echo) {
	logger := log.New(io.Discard, "", 0)
	runner := &agent.Runner{
		Provider:  p,
		Executor:  noopExecutor{},
		Store:     store,
		Logger:    logger,
		MaxRounds: 10,
	}
	h := &AgentHandler{
		Provider:     p,
		Runner:       runner,
		Store:        store,
		Logger:       logger,
		DefaultModel: "qwen2.5:7b",
		BaseCtx:      context.Background(),
	}
	e := echo.New()
	h.Register(e.Group("/api/agent"))
	return h, e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestChatSubmitReturnsImmediately(t *testing.T) {
	p := &fakeProvider{release: make(chan struct{})}
	store := inmemory.NewStore()
	_, e := newTestHandler(p, store)

	rec, out := doJSON(t, e, http.MethodPost, "/api/agent/chat",
		`{"messages":[{"role":"user","content":"What's the weather in Paris right now?"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	jobID, _ := out["jobId"].(string)
	if jobID == "" {
		t.Fatal("jobId missing from response")
	}

	// the backend is gated, so the job cannot have completed yet
	rec, out = doJSON(t, e, http.MethodGet, "/api/agent/job/"+jobID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("poll failed: %d", rec.Code)
	}
	status, _ := out["status"].(string)
	if status != "pending" && status != "running" {
		t.Fatalf("no instant completion without real work; got status %q", status)
	}
	if out["message"] != nil || out["error"] != nil {
		t.Fatalf("terminal fields set on non-terminal job: %v", out)
	}

	close(p.release)
	waitStatus(t, e, jobID, "done")
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	p := &fakeProvider{}
	_, e := newTestHandler(p, inmemory.NewStore())

	rec, _ := doJSON(t, e, http.MethodPost, "/api/agent/chat", `{"messages":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(p.recorded()) != 0 {
		t.Fatal("validation failure must not reach the backend")
	}
}

func TestPollUnknownJob(t *testing.T) {
	_, e := newTestHandler(&fakeProvider{}, inmemory.NewStore())
	rec, _ := doJSON(t, e, http.MethodGet, "/api/agent/job/never-issued", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAllowInternetFalseOffersNoTools(t *testing.T) {
	p := &fakeProvider{}
	store := inmemory.NewStore()
	_, e := newTestHandler(p, store)

	_, out := doJSON(t, e, http.MethodPost, "/api/agent/chat",
		`{"messages":[{"role":"user","content":"latest news?"}],"allowInternet":false}`)
	jobID := out["jobId"].(string)
	final := waitStatus(t, e, jobID, "done")

	reqs := p.recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected exactly one inference round, got %d", len(reqs))
	}
	if len(reqs[0].Tools) != 0 {
		t.Fatalf("tools offered despite allowInternet=false: %d", len(reqs[0].Tools))
	}
	if urls, ok := final["visitedUrls"].([]interface{}); ok && len(urls) != 0 {
		t.Fatalf("visitedUrls must stay empty: %v", urls)
	}
}

func TestAllowInternetDefaultsToTrue(t *testing.T) {
	p := &fakeProvider{}
	store := inmemory.NewStore()
	_, e := newTestHandler(p, store)

	_, out := doJSON(t, e, http.MethodPost, "/api/agent/chat",
		`{"messages":[{"role":"user","content":"hello"}]}`)
	waitStatus(t, e, out["jobId"].(string), "done")

	reqs := p.recorded()
	if len(reqs[0].Tools) != 2 {
		t.Fatalf("expected web_search and fetch_url definitions, got %d", len(reqs[0].Tools))
	}
}

func TestModelsEndpoint(t *testing.T) {
	_, e := newTestHandler(&fakeProvider{}, inmemory.NewStore())
	rec, out := doJSON(t, e, http.MethodGet, "/api/agent/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	models, _ := out["models"].([]interface{})
	if len(models) != 1 || models[0] != "qwen2.5:7b" {
		t.Fatalf("unexpected models payload: %v", out)
	}
}

func TestHealthEndpoint(t *testing.T) {
	p := &fakeProvider{healthy: true}
	_, e := newTestHandler(p, inmemory.NewStore())
	_, out := doJSON(t, e, http.MethodGet, "/api/agent/health", "")
	if out["ok"] != true {
		t.Fatalf("expected ok=true, got %v", out)
	}

	p.healthy = false
	_, out = doJSON(t, e, http.MethodGet, "/api/agent/health", "")
	if out["ok"] != false || out["error"] == nil {
		t.Fatalf("expected ok=false with error, got %v", out)
	}
}

func waitStatus(t *testing.T, e *echo.Echo, jobID, want string) map[string]interface{} {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		rec, out := doJSON(t, e, http.MethodGet, "/api/agent/job/"+jobID, "")
		if rec.Code == http.StatusOK {
			if s, _ := out["status"].(string); s == want {
				return out
			}
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached %s", jobID, want)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
