package chromedp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/agentd/internal/helpers"
)

// Fetch renders pages in headless Chrome before extraction. Slower than the
// plain HTTP fetcher but survives JS-only sites.
type Fetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

func (f *Fetch) Exec(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	html, err := fetchHTML(ctx, rawURL, f.UserAgent)
	if err != nil {
		return "", err
	}

	var text string
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(rawURL))
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		text = article.TextContent
	} else {
		text = helpers.SanitizeHTMLStrict(html)
	}
	text = helpers.CollapseWhitespace(text)
	if text == "" {
		return "", errors.New("page contained no extractable text")
	}
	return helpers.TruncateRunes(text, f.MaxChars), nil
}

func fetchHTML(ctx context.Context, url, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
