package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/agentd/internal/helpers"
)

// Fetch retrieves pages with plain HTTP and extracts readable text. Pages
// that defeat readability fall back to a strict tag strip of the raw body,
// so the model always gets text and never markup.
type Fetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

const maxBodyBytes = 2 << 20 // 2 MiB of HTML is more than any article needs

func (f *Fetch) Exec(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("invalid url")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("invalid url: %s", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	text := extractText(string(body), parsed)
	text = helpers.CollapseWhitespace(text)
	if text == "" {
		return "", errors.New("page contained no extractable text")
	}
	return helpers.TruncateRunes(text, f.MaxChars), nil
}

func extractText(html string, u *url.URL) string {
	article, err := readability.FromReader(strings.NewReader(html), u)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.TextContent
	}
	return helpers.SanitizeHTMLStrict(html)
}
