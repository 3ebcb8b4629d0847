package crawler

import (
	"context"
	"strings"
)

// PageFetcher is the fetch surface the detector needs: page content by
// URL, no extraction.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SentinelDetector decides catalog exhaustion by fetching a page and
// looking for the marker string the catalog renders once no further
// results exist.
type SentinelDetector struct {
	fetcher PageFetcher
	marker  string
}

// NewSentinelDetector builds a detector over fetcher looking for marker.
func NewSentinelDetector(fetcher PageFetcher, marker string) *SentinelDetector {
	return &SentinelDetector{fetcher: fetcher, marker: marker}
}

// Exhausted fetches pageURL and reports whether the marker is present.
// A failed fetch is inconclusive: the error is returned and exhaustion
// is never claimed.
func (d *SentinelDetector) Exhausted(ctx context.Context, pageURL string) (bool, error) {
	body, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return false, ProbeError{URL: pageURL, Err: err}
	}
	return strings.Contains(body, d.marker), nil
}
