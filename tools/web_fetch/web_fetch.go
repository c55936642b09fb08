package web_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/agentd/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/agentd/tools/web_fetch/httpfetch"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 4000
)

// WebFetcher retrieves a page and returns sanitized plain text, truncated to
// the configured character budget.
type WebFetcher interface {
	Exec(ctx context.Context, url string) (string, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int, userAgent string) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case HTTPFetcherType, "":
		return &httpfetch.Fetch{Timeout: timeout, MaxChars: maxChars, UserAgent: userAgent}, nil
	case ChromedpFetcherType:
		return &chromedp.Fetch{Timeout: timeout, MaxChars: maxChars, UserAgent: userAgent}, nil
	default:
		return nil, errors.New("unsupported fetcher type: " + string(fetcherType))
	}
}
