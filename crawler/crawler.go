// Package crawler implements the crawl control loop: probe each page
// for the end-of-results marker, extract raw candidates through an
// adapter, filter them (error markers, required fields, duplicate
// names), and accumulate accepted records in page-then-extraction
// order until a terminal condition is reached.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/aluiziolira/go-crawl-books/models"
	"github.com/aluiziolira/go-crawl-books/parser"
)

// EndDetector decides whether the catalog has run out of results. An
// error means the question could not be answered; it is never read as
// exhaustion.
type EndDetector interface {
	Exhausted(ctx context.Context, pageURL string) (bool, error)
}

// PageExtractor turns one catalog page into raw candidates. An empty
// slice with a nil error is a legitimate outcome (page had no items).
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) ([]models.Candidate, error)
}

// RecordSink receives accepted records in acceptance order.
type RecordSink interface {
	Process(books ...*models.Book) error
}

// Crawler owns the crawl loop state: the page cursor, the seen-name
// set, and the accumulated output. Collaborators are injected; the
// loop itself is strictly sequential.
type Crawler struct {
	cfg       *config.Config
	detector  EndDetector
	extractor PageExtractor
	sink      RecordSink
	Metrics   *Metrics
}

// NewCrawler builds a crawler from cfg and its collaborators. The sink
// may be nil when streaming output is not wanted.
func NewCrawler(cfg *config.Config, detector EndDetector, extractor PageExtractor, sink RecordSink) (*Crawler, error) {
	if detector == nil {
		return nil, fmt.Errorf("crawler: end detector is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("crawler: page extractor is required")
	}
	if _, err := pageURL(cfg.BaseURL, cfg.PageParam, 1); err != nil {
		return nil, err
	}
	return &Crawler{
		cfg:       cfg,
		detector:  detector,
		extractor: extractor,
		sink:      sink,
		Metrics:   NewMetrics(),
	}, nil
}

// Run walks the catalog from page 1 until a terminal condition:
// the end-of-results marker, a probe or extraction failure, a page
// yielding no accepted records, or context cancellation. The returned
// result always carries whatever was accumulated before the stop; the
// error return is reserved for broken wiring, not for terminal
// conditions.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.CrawlResult{
		Drops:     make(map[string]int),
		StartTime: time.Now(),
	}
	seen := NewSeenSet()

	emptyStreak := 0
	for page := 1; ; page++ {
		if ctx.Err() != nil {
			return c.stop(result, models.StopCanceled), nil
		}

		target, err := pageURL(c.cfg.BaseURL, c.cfg.PageParam, page)
		if err != nil {
			return nil, fmt.Errorf("build page url: %w", err)
		}
		pageStart := time.Now()

		exhausted, err := c.detector.Exhausted(ctx, target)
		result.PagesProbed++
		c.Metrics.IncPageProbed()
		if err != nil {
			slog.Error("end-of-results probe failed",
				slog.Int("page", page),
				slog.String("url", target),
				slog.Any("error", err),
			)
			result.StopErr = err
			return c.stop(result, models.StopProbeFailed), nil
		}
		if exhausted {
			slog.Info("catalog exhausted", slog.Int("page", page))
			return c.stop(result, models.StopCatalogExhausted), nil
		}

		candidates, err := c.extractor.Extract(ctx, target)
		if err != nil {
			slog.Error("page extraction failed",
				slog.Int("page", page),
				slog.String("url", target),
				slog.Any("error", err),
			)
			result.StopErr = ExtractionError{URL: target, Err: err}
			return c.stop(result, models.StopExtractionFailed), nil
		}
		result.PagesExtracted++
		c.Metrics.IncPageExtracted()

		accepted := c.filterPage(page, candidates, seen, result)
		c.Metrics.ObservePageDuration(time.Since(pageStart))
		slog.Info("page processed",
			slog.Int("page", page),
			slog.Int("candidates", len(candidates)),
			slog.Int("accepted", accepted),
			slog.Int("total", len(result.Books)),
		)

		if accepted == 0 {
			emptyStreak++
			if emptyStreak >= c.cfg.MaxEmptyPages {
				slog.Info("stopping on zero-yield page",
					slog.Int("page", page),
					slog.Int("consecutive", emptyStreak),
				)
				return c.stop(result, models.StopNoYield), nil
			}
		} else {
			emptyStreak = 0
		}

		if err := c.pause(ctx); err != nil {
			return c.stop(result, models.StopCanceled), nil
		}
	}
}

// filterPage applies the per-candidate filter chain in extraction
// order and returns how many records the page yielded.
func (c *Crawler) filterPage(page int, candidates []models.Candidate, seen *SeenSet, result *models.CrawlResult) int {
	accepted := 0
	for _, cand := range candidates {
		cand.ClearFalseError()

		if cand.Flagged() {
			c.drop(result, models.DropFlagged)
			slog.Warn("extraction agent flagged candidate",
				slog.Int("page", page),
				slog.String("name", cand.Name()),
			)
			continue
		}
		if !parser.IsComplete(cand, c.cfg.RequiredFields) {
			c.drop(result, models.DropIncomplete)
			slog.Debug("incomplete candidate",
				slog.Int("page", page),
				slog.String("name", cand.Name()),
			)
			continue
		}
		name := cand.Name()
		if seen.Duplicate(name) {
			c.drop(result, models.DropDuplicate)
			slog.Debug("duplicate candidate",
				slog.Int("page", page),
				slog.String("name", name),
			)
			continue
		}

		seen.Record(name)
		book := parser.BookFromCandidate(cand)
		result.Books = append(result.Books, book)
		accepted++
		c.Metrics.IncAccepted()

		if c.sink != nil {
			if err := c.sink.Process(book); err != nil {
				slog.Error("record sink error",
					slog.String("name", name),
					slog.Any("error", err),
				)
			}
		}
	}
	return accepted
}

func (c *Crawler) drop(result *models.CrawlResult, reason string) {
	result.Drops[reason]++
	c.Metrics.IncDropped(reason)
}

func (c *Crawler) stop(result *models.CrawlResult, reason models.StopReason) *models.CrawlResult {
	result.StopReason = reason
	result.EndTime = time.Now()
	return result
}

// pause waits the configured politeness delay between pages.
func (c *Crawler) pause(ctx context.Context) error {
	if c.cfg.PageDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.cfg.PageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pageURL sets the page query parameter on the catalog base URL.
func pageURL(base, param string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url must include a host")
	}
	q := u.Query()
	q.Set(param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
