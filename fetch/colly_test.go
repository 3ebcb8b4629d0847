package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-crawl-books/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://catalog.example.com/latest"
	return cfg
}

func newMockedFetcher(t *testing.T, transport *httpmock.MockTransport) *CollyFetcher {
	t.Helper()
	f, err := NewCollyFetcher(testConfig())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	f.collector.WithTransport(transport)
	return f
}

func TestCollyFetcherFetch(t *testing.T) {
	const body = "<html><body><ul class=\"list\"><li class=\"media\">Dune</li></ul></body></html>"

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://catalog.example.com/latest?page=1",
		httpmock.NewStringResponder(http.StatusOK, body))

	f := newMockedFetcher(t, transport)

	got, err := f.Fetch(context.Background(), "http://catalog.example.com/latest?page=1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got != body {
		t.Fatalf("fetched body = %q, want %q", got, body)
	}
}

func TestCollyFetcherRevisitsSameURL(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://catalog.example.com/latest?page=1",
		httpmock.NewStringResponder(http.StatusOK, "<html>page one</html>"))

	f := newMockedFetcher(t, transport)

	ctx := context.Background()
	url := "http://catalog.example.com/latest?page=1"
	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(ctx, url); err != nil {
			t.Fatalf("fetch %d: %v", i+1, err)
		}
	}

	info := transport.GetCallCountInfo()
	if got := info["GET "+url]; got != 2 {
		t.Fatalf("request count = %d, want 2", got)
	}
}

func TestCollyFetcherClassifiesNotFound(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://catalog.example.com/latest?page=9",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	f := newMockedFetcher(t, transport)

	_, err := f.Fetch(context.Background(), "http://catalog.example.com/latest?page=9")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("fetch error = %T, want ErrNotFound", err)
	}
	if got := f.ErrorsByType()["not_found"]; got != 1 {
		t.Fatalf("not_found count = %d, want 1", got)
	}
}

func TestCollyFetcherCanceledContext(t *testing.T) {
	transport := httpmock.NewMockTransport()
	f := newMockedFetcher(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://catalog.example.com/latest?page=1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("fetch error = %v, want context.Canceled", err)
	}
	if total := transport.GetTotalCallCount(); total != 0 {
		t.Fatalf("requests issued after cancel: %d", total)
	}
}

func TestNewCollyFetcherValidation(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "/latest"
	if _, err := NewCollyFetcher(cfg); err == nil {
		t.Fatal("expected error for base url without host")
	}
}
