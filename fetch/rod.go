package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/aluiziolira/go-crawl-books/config"
)

// stableWindow is how long the DOM must stay unchanged before a page
// counts as rendered.
const stableWindow = time.Second

// RodFetcher renders pages in a Chromium instance driven over the
// DevTools protocol. A single tab is reused for every fetch so the
// target sees one browsing session for the whole crawl.
type RodFetcher struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
}

// NewRodFetcher launches a browser and opens the tab used for all
// subsequent fetches.
func NewRodFetcher(cfg *config.Config) (*RodFetcher, error) {
	l := launcher.New().
		Headless(cfg.BrowserHeadless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &RodFetcher{
		launcher: l,
		browser:  browser,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

// Fetch navigates the shared tab to pageURL, waits for the DOM to
// settle and returns the rendered HTML.
func (f *RodFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	page := f.page.Context(ctx)
	if f.timeout > 0 {
		page = page.Timeout(f.timeout)
	}

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", pageURL, err)
	}
	if err := page.WaitStable(stableWindow); err != nil {
		return "", fmt.Errorf("wait stable %s: %w", pageURL, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html %s: %w", pageURL, err)
	}
	return html, nil
}

// Close shuts down the tab, the browser connection and the launched
// process.
func (f *RodFetcher) Close() error {
	if f.page != nil {
		f.page.Close()
	}
	var err error
	if f.browser != nil {
		err = f.browser.Close()
	}
	if f.launcher != nil {
		f.launcher.Cleanup()
	}
	return err
}
