package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-crawl-books/config"
)

// CollyFetcher fetches pages over plain HTTP using a colly collector.
// The collector runs synchronously and a mutex serializes Fetch calls,
// so the capture fields below are only touched by one request at a
// time.
type CollyFetcher struct {
	collector *colly.Collector

	mu           sync.Mutex
	lastBody     string
	lastErr      error
	errorsByType map[string]int
}

// NewCollyFetcher builds a fetcher restricted to the host of
// cfg.BaseURL. URL revisits are allowed because the control loop
// probes a page before extracting it.
func NewCollyFetcher(cfg *config.Config) (*CollyFetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &CollyFetcher{
		collector:    collector,
		errorsByType: make(map[string]int),
	}

	collector.OnResponse(func(r *colly.Response) {
		f.lastBody = string(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		f.lastErr = classify(err, statusCode)
	})

	return f, nil
}

// Fetch issues a GET for pageURL and returns the response body.
// Errors are classified and tallied by category.
func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.lastBody = ""
	f.lastErr = nil

	visitErr := f.collector.Visit(pageURL)

	if f.lastErr != nil {
		f.errorsByType[errorTypeLabel(f.lastErr)]++
		return "", f.lastErr
	}
	if visitErr != nil {
		classified := classify(visitErr, 0)
		f.errorsByType[errorTypeLabel(classified)]++
		return "", classified
	}
	return f.lastBody, nil
}

// ErrorsByType returns a copy of the per-category error counts.
func (f *CollyFetcher) ErrorsByType() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		out[k] = v
	}
	return out
}

// Close implements Fetcher. The collector holds no resources that
// outlive its requests.
func (f *CollyFetcher) Close() error {
	return nil
}
