package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-crawl-books/config"
	"github.com/aluiziolira/go-crawl-books/crawler"
	"github.com/aluiziolira/go-crawl-books/extract"
	"github.com/aluiziolira/go-crawl-books/fetch"
	"github.com/aluiziolira/go-crawl-books/llm"
	"github.com/aluiziolira/go-crawl-books/models"
	"github.com/aluiziolira/go-crawl-books/notify"
	"github.com/aluiziolira/go-crawl-books/pipeline"
)

func main() {
	defaults := config.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file path")
	baseURL := flag.String("base-url", defaults.BaseURL, "Catalog base URL")
	fetcherKind := flag.String("fetcher", defaults.Fetcher, "Page fetcher: colly or rod")
	headless := flag.Bool("headless", defaults.BrowserHeadless, "Run the rod browser headless")
	pageDelay := flag.Duration("page-delay", defaults.PageDelay, "Politeness delay between pages")
	maxEmptyPages := flag.Int("max-empty-pages", defaults.MaxEmptyPages, "Consecutive zero-yield pages tolerated before stopping")
	maxRetries := flag.Int("max-retries", defaults.MaxRetries, "Extraction retry attempts per page")
	retryBackoffMs := flag.Int("retry-backoff", int(defaults.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaults.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	respectRobots := flag.Bool("respect-robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	outputFile := flag.String("output", defaults.OutputFile, "Output file path")
	outputFormat := flag.String("format", defaults.OutputFormat, "Output format: csv, json, dual, or sqlite")
	metricsAddr := flag.String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			slog.Error("loading config file", slog.String("path", *configPath), slog.Any("error", err))
			os.Exit(1)
		}
	}
	if err := applyEnv(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = *baseURL
		case "fetcher":
			cfg.Fetcher = strings.ToLower(*fetcherKind)
		case "headless":
			cfg.BrowserHeadless = *headless
		case "page-delay":
			cfg.PageDelay = *pageDelay
		case "max-empty-pages":
			cfg.MaxEmptyPages = *maxEmptyPages
		case "max-retries":
			cfg.MaxRetries = *maxRetries
		case "retry-backoff":
			cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
		case "retry-backoff-max":
			cfg.RetryBackoffMax = time.Duration(*retryBackoffMaxMs) * time.Millisecond
		case "respect-robots":
			cfg.RespectRobotsTxt = *respectRobots
		case "output":
			cfg.OutputFile = *outputFile
		case "format":
			cfg.OutputFormat = strings.ToLower(*outputFormat)
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "v":
			cfg.Verbose = *verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting crawl",
		slog.String("base_url", cfg.BaseURL),
		slog.String("fetcher", cfg.Fetcher),
		slog.String("output", cfg.OutputFile),
	)

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		slog.Error("initialising llm client", slog.Any("error", err))
		os.Exit(1)
	}

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		slog.Error("initialising fetcher", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			slog.Error("close fetcher", slog.Any("error", err))
		}
	}()

	extractRegistry := prometheus.NewRegistry()
	extractMetrics := extract.NewMetrics(extractRegistry)
	llmExtractor, err := extract.NewLLMExtractor(cfg, fetcher, llmClient, extractMetrics)
	if err != nil {
		slog.Error("initialising extractor", slog.Any("error", err))
		os.Exit(1)
	}
	extractor := extract.WithRetries(llmExtractor, cfg)
	detector := crawler.NewSentinelDetector(fetcher, cfg.EndMarker)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	p := pipeline.NewPipeline(writer, cfg)
	p.Start()
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	c, err := crawler.NewCrawler(cfg, detector, extractor, p)
	if err != nil {
		slog.Error("initialising crawler", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, finishing the current page")
		case <-runDone:
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		gatherers := prometheus.Gatherers{c.Metrics.Registry, extractRegistry}
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := c.Run(ctx)
	close(runDone)
	if err != nil {
		slog.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile, llmClient, fetcher)

	notifier, err := notify.NewNotifierFromEnv()
	if err != nil {
		slog.Error("initialising notifier", slog.Any("error", err))
	} else if err := notifier.Send(notify.RunSummary(result, cfg.OutputFile)); err != nil {
		slog.Error("sending run summary", slog.Any("error", err))
	}
}

func applyEnv(cfg *config.Config) error {
	if v, ok := config.EnvString("CRAWLER_BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := config.EnvString("CRAWLER_FETCHER"); ok {
		cfg.Fetcher = strings.ToLower(v)
	}
	if v, ok := config.EnvString("CRAWLER_OUTPUT"); ok {
		cfg.OutputFile = v
	}
	if v, ok := config.EnvString("CRAWLER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(v)
	}
	if v, ok := config.EnvString("CRAWLER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok, err := config.EnvDuration("CRAWLER_PAGE_DELAY"); err != nil {
		return fmt.Errorf("invalid CRAWLER_PAGE_DELAY: %w", err)
	} else if ok {
		cfg.PageDelay = v
	}
	if v, ok, err := config.EnvInt("CRAWLER_MAX_EMPTY_PAGES"); err != nil {
		return fmt.Errorf("invalid CRAWLER_MAX_EMPTY_PAGES: %w", err)
	} else if ok {
		cfg.MaxEmptyPages = v
	}
	if v, ok, err := config.EnvBool("CRAWLER_HEADLESS"); err != nil {
		return fmt.Errorf("invalid CRAWLER_HEADLESS: %w", err)
	} else if ok {
		cfg.BrowserHeadless = v
	}
	return nil
}

func buildFetcher(cfg *config.Config) (fetch.Fetcher, error) {
	switch cfg.Fetcher {
	case "rod":
		return fetch.NewRodFetcher(cfg)
	case "colly":
		return fetch.NewCollyFetcher(cfg)
	default:
		return nil, fmt.Errorf("unsupported fetcher: %s", cfg.Fetcher)
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	case "sqlite":
		return pipeline.NewSQLiteWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, outputFile string, llmClient *llm.Client, fetcher fetch.Fetcher) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Crawl complete: %s\n", result.StopReason)

	if result.StopErr != nil {
		fmt.Printf("  Stop cause:     %v\n", result.StopErr)
	}
	fmt.Printf("  Books found:    %d\n", len(result.Books))
	fmt.Printf("  Pages probed:   %d\n", result.PagesProbed)
	fmt.Printf("  Pages extracted:%d\n", result.PagesExtracted)
	if result.Dropped() > 0 {
		fmt.Printf("  Dropped:        %v\n", result.Drops)
	}
	prompt, completion := llmClient.Usage()
	fmt.Printf("  LLM tokens:     %d prompt / %d completion\n", prompt, completion)
	if cf, ok := fetcher.(*fetch.CollyFetcher); ok {
		if errorsByType := cf.ErrorsByType(); len(errorsByType) > 0 {
			fmt.Printf("  Fetch errors:   %v\n", errorsByType)
		}
	}
	duration := result.Duration()
	fmt.Printf("  Duration:       %v\n", duration)
	if duration.Seconds() > 0 {
		fmt.Printf("  Books/sec:      %.2f\n", float64(len(result.Books))/duration.Seconds())
	}
	fmt.Printf("  Output file:    %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
