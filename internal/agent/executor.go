package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/agentd/provider"
	"github.com/mohammad-safakhou/agentd/tools/web_fetch"
	"github.com/mohammad-safakhou/agentd/tools/web_search"
)

// ToolAction is what a tool call is about to do, derived from the call
// alone. The loop publishes it before execution so a poller watches the
// side action while it is still in flight, not after.
type ToolAction struct {
	Activity   string // human-readable description for pollers
	VisitedURL string // URL to record for source attribution
}

// ToolExecutor invokes external capabilities on the model's behalf.
// Describe must not block; Execute may take seconds. Execute always
// returns text: failures degrade to an explanatory string so the model
// can react instead of the job dying.
type ToolExecutor interface {
	Describe(call provider.ToolCall) ToolAction
	Execute(ctx context.Context, call provider.ToolCall) string
}

// Executor is the production ToolExecutor over web search and page fetch.
// It holds no state between calls and is safe for concurrent use.
type Executor struct {
	Searcher   *web_search.Searcher
	Fetcher    web_fetch.WebFetcher
	MaxResults int
	Logger     *log.Logger
}

func (e *Executor) Describe(call provider.ToolCall) ToolAction {
	switch call.Function.Name {
	case ToolWebSearch:
		query, ok := searchQuery(call.Function.Arguments)
		if !ok {
			return ToolAction{Activity: "searching the web"}
		}
		return ToolAction{
			Activity:   fmt.Sprintf("searching the web for %q", query),
			VisitedURL: "https://duckduckgo.com/?q=" + url.QueryEscape(query),
		}
	case ToolFetchURL:
		target, ok := fetchTarget(call.Function.Arguments)
		if !ok {
			return ToolAction{Activity: "reading a web page"}
		}
		return ToolAction{
			Activity:   "reading " + target,
			VisitedURL: target,
		}
	default:
		return ToolAction{Activity: "handling an unknown tool request"}
	}
}

func (e *Executor) Execute(ctx context.Context, call provider.ToolCall) string {
	switch call.Function.Name {
	case ToolWebSearch:
		return e.webSearch(ctx, call.Function.Arguments)
	case ToolFetchURL:
		return e.fetchURL(ctx, call.Function.Arguments)
	default:
		return fmt.Sprintf("Error: unknown tool %q.", call.Function.Name)
	}
}

func (e *Executor) webSearch(ctx context.Context, rawArgs string) string {
	query, ok := searchQuery(rawArgs)
	if !ok {
		return "Error: web_search requires a non-empty \"query\" argument."
	}

	k := e.MaxResults
	if k <= 0 {
		k = 5
	}
	results, strategy, err := e.Searcher.Search(ctx, query, k)
	if err != nil {
		if err == web_search.ErrNoResults {
			return fmt.Sprintf("No results found for %q. Try a different query.", query)
		}
		e.logf("web_search %q failed: %v", query, err)
		return fmt.Sprintf("Error: web search failed (%v). Try a different query.", err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q. Try a different query.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   URL: %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	e.logf("web_search %q via %s: %d results", query, strategy, len(results))
	return strings.TrimSpace(b.String())
}

func (e *Executor) fetchURL(ctx context.Context, rawArgs string) string {
	target, ok := fetchTarget(rawArgs)
	if !ok {
		return "Error: fetch_url requires a non-empty \"url\" argument."
	}

	text, err := e.Fetcher.Exec(ctx, target)
	if err != nil {
		e.logf("fetch_url %s failed: %v", target, err)
		return fmt.Sprintf("Error: could not fetch %s (%v).", target, err)
	}
	return fmt.Sprintf("Content of %s:\n%s", target, text)
}

func searchQuery(rawArgs string) (string, bool) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "", false
	}
	q := strings.TrimSpace(args.Query)
	return q, q != ""
}

func fetchTarget(rawArgs string) (string, bool) {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "", false
	}
	u := strings.TrimSpace(args.URL)
	return u, u != ""
}

func (e *Executor) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}
