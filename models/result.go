package models

import "time"

// StopReason identifies the terminal condition that ended a crawl.
type StopReason string

const (
	// StopCatalogExhausted means the end-of-results marker was found.
	StopCatalogExhausted StopReason = "catalog_exhausted"
	// StopProbeFailed means an end-of-results probe could not complete.
	StopProbeFailed StopReason = "probe_failed"
	// StopExtractionFailed means a page-level extraction call failed.
	StopExtractionFailed StopReason = "extraction_failed"
	// StopNoYield means a page (or a configured run of pages) produced
	// no accepted records.
	StopNoYield StopReason = "no_yield"
	// StopCanceled means the run context was canceled mid-crawl.
	StopCanceled StopReason = "canceled"
)

// Drop reasons used in CrawlResult.Drops and the drop metrics.
const (
	DropFlagged    = "extractor_flagged"
	DropIncomplete = "incomplete"
	DropDuplicate  = "duplicate"
)

// CrawlResult holds the outcome of one crawl run. Books preserves
// acceptance order: page order first, extraction order within a page.
// StopErr carries the failure that ended the run when StopReason is
// probe_failed or extraction_failed; it is nil otherwise.
type CrawlResult struct {
	Books          []*Book
	PagesProbed    int
	PagesExtracted int
	Drops          map[string]int
	StopReason     StopReason
	StopErr        error
	StartTime      time.Time
	EndTime        time.Time
}

// Duration returns the wall-clock time the run took.
func (r *CrawlResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Dropped returns the total number of candidates rejected across all
// drop reasons.
func (r *CrawlResult) Dropped() int {
	total := 0
	for _, n := range r.Drops {
		total += n
	}
	return total
}
