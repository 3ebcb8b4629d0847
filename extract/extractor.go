// Package extract turns rendered catalog pages into raw book
// candidates. The listing region is cut out of the page with a CSS
// selector and handed to an LLM that replies with a JSON array; replies
// are cached by region content hash so an unchanged page does not cost
// a second model call.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/aluiziolira/go-crawl-books/models"
)

// PageFetcher provides rendered page HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Completer is the single LLM call the extractor depends on.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMExtractor extracts raw candidates from one page at a time.
type LLMExtractor struct {
	fetcher     PageFetcher
	client      Completer
	selector    string
	instruction string
	cache       *lru.Cache[string, string]
	metrics     *Metrics
}

// NewLLMExtractor builds an extractor from cfg. A zero cache size
// disables response caching.
func NewLLMExtractor(cfg *config.Config, fetcher PageFetcher, client Completer, metrics *Metrics) (*LLMExtractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract: page fetcher is required")
	}
	if client == nil {
		return nil, fmt.Errorf("extract: llm client is required")
	}

	var cache *lru.Cache[string, string]
	if cfg.CacheSize > 0 {
		var err error
		cache, err = lru.New[string, string](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
	}

	return &LLMExtractor{
		fetcher:     fetcher,
		client:      client,
		selector:    cfg.ContentSelector,
		instruction: Instruction(cfg.RequiredFields),
		cache:       cache,
		metrics:     metrics,
	}, nil
}

// Extract fetches pageURL, isolates the listing region and returns the
// candidates the LLM found there. A page whose selector matches nothing
// yields an empty slice, not an error.
func (e *LLMExtractor) Extract(ctx context.Context, pageURL string) ([]models.Candidate, error) {
	html, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	region, err := selectRegion(html, e.selector)
	if err != nil {
		return nil, err
	}
	if region == "" {
		slog.Debug("selector matched no content", slog.String("url", pageURL))
		return nil, nil
	}

	key := regionKey(region)
	if e.cache != nil {
		if raw, ok := e.cache.Get(key); ok {
			e.metrics.IncCacheHit()
			return parseCandidates(raw)
		}
		e.metrics.IncCacheMiss()
	}

	start := time.Now()
	raw, err := e.client.Complete(ctx, e.instruction, region)
	e.metrics.ObserveLLMDuration(time.Since(start))
	if err != nil {
		e.metrics.IncLLMRequest("error")
		return nil, fmt.Errorf("llm extraction: %w", err)
	}
	e.metrics.IncLLMRequest("ok")

	candidates, err := parseCandidates(raw)
	if err != nil {
		return nil, err
	}
	// Only replies that decode cleanly are worth replaying.
	if e.cache != nil {
		e.cache.Add(key, raw)
	}
	return candidates, nil
}

// selectRegion concatenates the outer HTML of every node matching
// selector.
func selectRegion(html, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse page html: %w", err)
	}

	var parts []string
	var renderErr error
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		h, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = err
			return
		}
		parts = append(parts, h)
	})
	if renderErr != nil {
		return "", fmt.Errorf("render selection: %w", renderErr)
	}
	return strings.Join(parts, "\n"), nil
}

func regionKey(region string) string {
	sum := sha256.Sum256([]byte(region))
	return hex.EncodeToString(sum[:])
}

// parseCandidates decodes the model reply into candidates. Array items
// that are not JSON objects become nil candidates so the filter chain
// can drop them individually instead of failing the page.
func parseCandidates(raw string) ([]models.Candidate, error) {
	cleaned := stripFences(raw)

	var items []any
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("decode llm reply: %w", err)
	}

	out := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			out = append(out, nil)
			continue
		}
		out = append(out, models.Candidate(obj))
	}
	return out, nil
}

// stripFences removes a ```json ... ``` wrapper; models add one even
// when asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
