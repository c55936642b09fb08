package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mohammad-safakhou/agentd/tools/web_search/models"
)

const resultsURL = "https://html.duckduckgo.com/html/"

// Scrape extracts organic results from the DuckDuckGo HTML endpoint. It
// needs no API key, which is the whole point for a self-hosted deployment.
type Scrape struct {
	Timeout   time.Duration
	UserAgent string
	BaseURL   string // override for tests
}

func (s Scrape) Name() string { return "duckduckgo_html" }

func (s Scrape) Search(ctx context.Context, q string, k int) ([]models.Result, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("duckduckgo: empty query")
	}
	if k <= 0 {
		k = 5
	}
	base := s.BaseURL
	if base == "" {
		base = resultsURL
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", base+"?q="+url.QueryEscape(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	ua := s.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; agentd/1.0)"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var out []models.Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		href, _ := anchor.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())
		out = append(out, models.Result{
			Title:   title,
			URL:     cleanRedirect(href),
			Snippet: snippet,
		})
		return len(out) < k
	})
	return out, nil
}

// cleanRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func cleanRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		u.Scheme = "https"
		if u.Host == "" {
			u.Host = "duckduckgo.com"
		}
		return u.String()
	}
	return href
}
