package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/agentd/provider"
	"github.com/mohammad-safakhou/agentd/tools/web_search"
	"github.com/mohammad-safakhou/agentd/tools/web_search/models"
)

type stubStrategy struct {
	name    string
	results []models.Result
	err     error
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Search(context.Context, string, int) ([]models.Result, error) {
	return s.results, s.err
}

type stubFetcher struct {
	text string
	err  error
}

func (f stubFetcher) Exec(context.Context, string) (string, error) { return f.text, f.err }

func searchCall(args string) provider.ToolCall {
	return provider.ToolCall{
		ID:       "c1",
		Type:     "function",
		Function: provider.FunctionCall{Name: ToolWebSearch, Arguments: args},
	}
}

func fetchCall(args string) provider.ToolCall {
	return provider.ToolCall{
		ID:       "c2",
		Type:     "function",
		Function: provider.FunctionCall{Name: ToolFetchURL, Arguments: args},
	}
}

func TestDescribeWebSearch(t *testing.T) {
	e := &Executor{}
	action := e.Describe(searchCall(`{"query":"paris weather"}`))
	if !strings.Contains(action.Activity, "paris weather") {
		t.Fatalf("activity should name the query: %q", action.Activity)
	}
	if action.VisitedURL != "https://duckduckgo.com/?q=paris+weather" {
		t.Fatalf("unexpected visited url: %q", action.VisitedURL)
	}
}

func TestDescribeFetchURL(t *testing.T) {
	e := &Executor{}
	action := e.Describe(fetchCall(`{"url":"https://example.com/a"}`))
	if action.Activity != "reading https://example.com/a" {
		t.Fatalf("unexpected activity: %q", action.Activity)
	}
	if action.VisitedURL != "https://example.com/a" {
		t.Fatalf("fetched url must be recorded: %q", action.VisitedURL)
	}
}

func TestDescribeBadArgumentsOmitsURL(t *testing.T) {
	e := &Executor{}
	action := e.Describe(searchCall(`{broken`))
	if action.VisitedURL != "" {
		t.Fatalf("no url should be recorded for unparseable arguments: %q", action.VisitedURL)
	}
	if action.Activity == "" {
		t.Fatal("activity must still describe the attempt")
	}
}

func TestExecuteWebSearchFormatsResults(t *testing.T) {
	searcher := web_search.NewSearcherWithStrategies(time.Second, stubStrategy{
		name: "stub",
		results: []models.Result{
			{Title: "Paris weather", URL: "https://example.com/wx", Snippet: "18°C, cloudy"},
		},
	})
	e := &Executor{Searcher: searcher}

	out := e.Execute(context.Background(), searchCall(`{"query":"paris weather"}`))
	if !strings.Contains(out, "Paris weather") || !strings.Contains(out, "18°C") {
		t.Fatalf("results not formatted: %q", out)
	}
}

func TestExecuteWebSearchFallsBackThroughStrategies(t *testing.T) {
	searcher := web_search.NewSearcherWithStrategies(time.Second,
		stubStrategy{name: "broken", err: errors.New("markup drift")},
		stubStrategy{name: "fallback", results: []models.Result{{Title: "Answer", Snippet: "42"}}},
	)
	e := &Executor{Searcher: searcher}

	out := e.Execute(context.Background(), searchCall(`{"query":"anything"}`))
	if !strings.Contains(out, "42") {
		t.Fatalf("fallback strategy not used: %q", out)
	}
}

func TestExecuteWebSearchDegradesToErrorString(t *testing.T) {
	searcher := web_search.NewSearcherWithStrategies(time.Second,
		stubStrategy{name: "broken", err: errors.New("timeout")},
	)
	e := &Executor{Searcher: searcher}

	out := e.Execute(context.Background(), searchCall(`{"query":"anything"}`))
	if !strings.HasPrefix(out, "Error:") {
		t.Fatalf("failure must degrade to an explanatory string: %q", out)
	}
}

func TestExecuteWebSearchNoResults(t *testing.T) {
	searcher := web_search.NewSearcherWithStrategies(time.Second,
		stubStrategy{name: "empty"},
	)
	e := &Executor{Searcher: searcher}

	out := e.Execute(context.Background(), searchCall(`{"query":"gibberish zxqv"}`))
	if !strings.Contains(out, "No results") {
		t.Fatalf("expected no-results string, got %q", out)
	}
}

func TestExecuteWebSearchBadArguments(t *testing.T) {
	e := &Executor{Searcher: web_search.NewSearcherWithStrategies(time.Second)}
	out := e.Execute(context.Background(), searchCall(`{broken`))
	if !strings.HasPrefix(out, "Error:") {
		t.Fatalf("expected argument error string, got %q", out)
	}
}

func TestExecuteFetchURL(t *testing.T) {
	e := &Executor{Fetcher: stubFetcher{text: "Readable article text."}}
	out := e.Execute(context.Background(), fetchCall(`{"url":"https://example.com/a"}`))
	if !strings.Contains(out, "Readable article text.") {
		t.Fatalf("fetch text missing: %q", out)
	}
}

func TestExecuteFetchURLFailureDegrades(t *testing.T) {
	e := &Executor{Fetcher: stubFetcher{err: errors.New("connection reset")}}
	out := e.Execute(context.Background(), fetchCall(`{"url":"https://example.com/a"}`))
	if !strings.HasPrefix(out, "Error:") || !strings.Contains(out, "connection reset") {
		t.Fatalf("fetch failure must degrade to a string: %q", out)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := &Executor{}
	out := e.Execute(context.Background(), provider.ToolCall{
		Function: provider.FunctionCall{Name: "teleport", Arguments: `{}`},
	})
	if !strings.Contains(out, "unknown tool") {
		t.Fatalf("expected unknown-tool string, got %q", out)
	}
}
