package web_search

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/agentd/tools/web_search/duckduckgo"
	"github.com/mohammad-safakhou/agentd/tools/web_search/instant"
	"github.com/mohammad-safakhou/agentd/tools/web_search/models"
)

// Strategy is one way of turning a query into results. Strategies are
// isolated so markup drift in one does not affect the others.
type Strategy interface {
	Name() string
	Search(ctx context.Context, q string, k int) ([]models.Result, error)
}

// Searcher tries its strategies in order until one yields results.
type Searcher struct {
	strategies []Strategy
	timeout    time.Duration
}

// ErrNoResults is returned when every strategy came back empty.
var ErrNoResults = errors.New("no results")

// NewSearcher builds the default strategy chain: results-page scrape first,
// keyless instant-answer API as the fallback.
func NewSearcher(timeout time.Duration) *Searcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Searcher{
		strategies: []Strategy{
			duckduckgo.Scrape{Timeout: timeout},
			instant.Answers{Timeout: timeout},
		},
		timeout: timeout,
	}
}

// NewSearcherWithStrategies builds a searcher over an explicit chain.
func NewSearcherWithStrategies(timeout time.Duration, strategies ...Strategy) *Searcher {
	return &Searcher{strategies: strategies, timeout: timeout}
}

// Search returns the first non-empty result set, plus the name of the
// strategy that produced it. A failing strategy is skipped, not fatal.
func (s *Searcher) Search(ctx context.Context, q string, k int) ([]models.Result, string, error) {
	var lastErr error
	for _, strat := range s.strategies {
		results, err := strat.Search(ctx, q, k)
		if err != nil {
			lastErr = err
			continue
		}
		if len(results) > 0 {
			return results, strat.Name(), nil
		}
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return nil, "", ErrNoResults
}
