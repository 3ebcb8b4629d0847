package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/aluiziolira/go-crawl-books/models"
)

// PageExtractor matches the extraction step of the crawl loop.
type PageExtractor interface {
	Extract(ctx context.Context, pageURL string) ([]models.Candidate, error)
}

// RetryExtractor reissues failed page extractions with exponential
// backoff before giving up. The crawl loop itself never retries; this
// wrapper is the only place a transient LLM or fetch error gets a
// second chance.
type RetryExtractor struct {
	inner      PageExtractor
	retries    int
	backoff    time.Duration
	backoffMax time.Duration
}

// WithRetries wraps inner according to cfg.MaxRetries. A zero retry
// budget returns inner unchanged.
func WithRetries(inner PageExtractor, cfg *config.Config) PageExtractor {
	if cfg.MaxRetries <= 0 {
		return inner
	}
	return &RetryExtractor{
		inner:      inner,
		retries:    cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		backoffMax: cfg.RetryBackoffMax,
	}
}

// Extract calls the wrapped extractor, retrying up to the configured
// budget. The last error is returned when every attempt fails.
func (r *RetryExtractor) Extract(ctx context.Context, pageURL string) ([]models.Candidate, error) {
	candidates, err := r.inner.Extract(ctx, pageURL)
	for attempt := 1; err != nil && attempt <= r.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("retrying extraction",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if waitErr := r.wait(ctx, r.delay(attempt)); waitErr != nil {
			return nil, err
		}
		candidates, err = r.inner.Extract(ctx, pageURL)
	}
	return candidates, err
}

func (r *RetryExtractor) delay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	base := r.backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base * time.Duration(1<<(attempt-1))
	if r.backoffMax > 0 && delay > r.backoffMax {
		delay = r.backoffMax
	}
	return delay
}

func (r *RetryExtractor) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
