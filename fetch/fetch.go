// Package fetch retrieves fully rendered catalog pages. Two
// implementations are provided: CollyFetcher issues plain HTTP requests
// through a colly collector, RodFetcher drives a headless Chromium
// instance for pages that only materialize after client-side rendering.
package fetch

import "context"

// Fetcher loads a page and returns its HTML.
type Fetcher interface {
	// Fetch returns the rendered HTML of url. The same URL may be
	// fetched repeatedly; callers rely on that for probing a page
	// before extracting it.
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
