package instant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/agentd/tools/web_search/models"
)

const apiURL = "https://api.duckduckgo.com/"

// Answers queries the keyless DuckDuckGo instant-answer API. It rarely has
// organic results but often carries a direct answer or an abstract, which is
// plenty for the model to work with when the HTML scrape comes back empty.
type Answers struct {
	Timeout time.Duration
	BaseURL string // override for tests
}

func (a Answers) Name() string { return "duckduckgo_instant" }

func (a Answers) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("instant: empty query")
	}
	if k <= 0 {
		k = 5
	}
	base := a.BaseURL
	if base == "" {
		base = apiURL
	}
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := base + "?q=" + url.QueryEscape(q) + "&format=json&no_html=1&skip_disambig=1"
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instant answer API returned status %d", resp.StatusCode)
	}

	var raw struct {
		Answer        string `json:"Answer"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var out []models.Result
	if raw.Answer != "" {
		out = append(out, models.Result{Title: "Answer", Snippet: raw.Answer})
	}
	if raw.AbstractText != "" {
		title := raw.Heading
		if title == "" {
			title = "Summary"
		}
		out = append(out, models.Result{Title: title, URL: raw.AbstractURL, Snippet: raw.AbstractText})
	}
	for _, rt := range raw.RelatedTopics {
		if len(out) >= k {
			break
		}
		if rt.Text == "" {
			continue
		}
		out = append(out, models.Result{Title: "Related", URL: rt.FirstURL, Snippet: rt.Text})
	}
	return out, nil
}
