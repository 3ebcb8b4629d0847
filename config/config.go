// Package config holds the crawl configuration, its defaults, and the
// env/file loading helpers used by the command.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-crawl-books/models"
)

// Config holds crawler configuration.
type Config struct {
	// Catalog shape.
	BaseURL         string
	PageParam       string
	ContentSelector string
	RequiredFields  []string
	EndMarker       string

	// Crawl pacing and termination.
	PageDelay     time.Duration
	MaxEmptyPages int

	// Page fetching.
	Fetcher          string // colly or rod
	BrowserHeadless  bool
	Timeout          time.Duration
	UserAgent        string
	RespectRobotsTxt bool

	// Extraction retry policy. The crawl loop itself never retries;
	// MaxRetries > 0 wraps only the extraction adapter.
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration

	// LLM extraction agent.
	LLMBaseURL     string
	LLMModel       string
	LLMAPIKeyEnv   string
	LLMTimeout     time.Duration
	LLMTemperature float64
	CacheSize      int

	// Output.
	OutputFile         string
	OutputFormat       string // csv, json, dual, or sqlite
	PipelineBufferSize int
	BatchSize          int

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults for the Douban new-books catalog.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://book.douban.com/latest",
		PageParam:          "page",
		ContentSelector:    ".list li.media",
		RequiredFields:     models.RequiredFields(),
		EndMarker:          "No Results Found",
		PageDelay:          2 * time.Second,
		MaxEmptyPages:      1,
		Fetcher:            "colly",
		BrowserHeadless:    true,
		Timeout:            10 * time.Second,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt:   false,
		MaxRetries:         0,
		RetryBackoff:       200 * time.Millisecond,
		RetryBackoffMax:    2 * time.Second,
		LLMBaseURL:         "https://api.deepseek.com",
		LLMModel:           "deepseek-chat",
		LLMAPIKeyEnv:       "DEEPSEEK_API_KEY",
		LLMTimeout:         60 * time.Second,
		LLMTemperature:     0,
		CacheSize:          128,
		OutputFile:         "output/books.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 512,
		BatchSize:          64,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.PageParam == "" {
		return fmt.Errorf("page parameter cannot be empty")
	}
	if c.ContentSelector == "" {
		return fmt.Errorf("content selector cannot be empty")
	}
	if len(c.RequiredFields) == 0 {
		return fmt.Errorf("required fields cannot be empty")
	}
	if !containsField(c.RequiredFields, "name") {
		return fmt.Errorf("required fields must include name")
	}
	if c.EndMarker == "" {
		return fmt.Errorf("end marker cannot be empty")
	}

	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.MaxEmptyPages <= 0 {
		return fmt.Errorf("max empty pages must be positive")
	}

	if c.Fetcher != "colly" && c.Fetcher != "rod" {
		return fmt.Errorf("fetcher must be colly or rod")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}

	if c.LLMBaseURL == "" {
		return fmt.Errorf("llm base URL cannot be empty")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("llm model cannot be empty")
	}
	if c.LLMAPIKeyEnv == "" {
		return fmt.Errorf("llm api key env cannot be empty")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "sqlite":
	default:
		return fmt.Errorf("output format must be csv, json, dual, or sqlite")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	return nil
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// fileConfig mirrors Config for YAML loading. Durations are strings in
// Go duration syntax; pointer fields distinguish "absent" from a
// legitimate zero value.
type fileConfig struct {
	BaseURL         string   `yaml:"base_url"`
	PageParam       string   `yaml:"page_param"`
	ContentSelector string   `yaml:"content_selector"`
	RequiredFields  []string `yaml:"required_fields"`
	EndMarker       string   `yaml:"end_marker"`
	PageDelay       string   `yaml:"page_delay"`
	MaxEmptyPages   *int     `yaml:"max_empty_pages"`
	Fetcher         string   `yaml:"fetcher"`
	BrowserHeadless *bool    `yaml:"browser_headless"`
	Timeout         string   `yaml:"timeout"`
	UserAgent       string   `yaml:"user_agent"`
	RespectRobots   *bool    `yaml:"respect_robots"`
	MaxRetries      *int     `yaml:"max_retries"`
	RetryBackoff    string   `yaml:"retry_backoff"`
	RetryBackoffMax string   `yaml:"retry_backoff_max"`
	LLM             struct {
		BaseURL     string   `yaml:"base_url"`
		Model       string   `yaml:"model"`
		APIKeyEnv   string   `yaml:"api_key_env"`
		Timeout     string   `yaml:"timeout"`
		Temperature *float64 `yaml:"temperature"`
		CacheSize   *int     `yaml:"cache_size"`
	} `yaml:"llm"`
	Output struct {
		File   string `yaml:"file"`
		Format string `yaml:"format"`
		Buffer *int   `yaml:"buffer"`
		Batch  *int   `yaml:"batch"`
	} `yaml:"output"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LoadFile overlays settings from a YAML file onto c. Only keys present
// in the file are applied; everything else keeps its current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return c.apply(&fc)
}

func (c *Config) apply(fc *fileConfig) error {
	setString(&c.BaseURL, fc.BaseURL)
	setString(&c.PageParam, fc.PageParam)
	setString(&c.ContentSelector, fc.ContentSelector)
	if len(fc.RequiredFields) > 0 {
		c.RequiredFields = fc.RequiredFields
	}
	setString(&c.EndMarker, fc.EndMarker)
	if err := setDuration(&c.PageDelay, fc.PageDelay, "page_delay"); err != nil {
		return err
	}
	setInt(&c.MaxEmptyPages, fc.MaxEmptyPages)
	setString(&c.Fetcher, fc.Fetcher)
	setBool(&c.BrowserHeadless, fc.BrowserHeadless)
	if err := setDuration(&c.Timeout, fc.Timeout, "timeout"); err != nil {
		return err
	}
	setString(&c.UserAgent, fc.UserAgent)
	setBool(&c.RespectRobotsTxt, fc.RespectRobots)
	setInt(&c.MaxRetries, fc.MaxRetries)
	if err := setDuration(&c.RetryBackoff, fc.RetryBackoff, "retry_backoff"); err != nil {
		return err
	}
	if err := setDuration(&c.RetryBackoffMax, fc.RetryBackoffMax, "retry_backoff_max"); err != nil {
		return err
	}
	setString(&c.LLMBaseURL, fc.LLM.BaseURL)
	setString(&c.LLMModel, fc.LLM.Model)
	setString(&c.LLMAPIKeyEnv, fc.LLM.APIKeyEnv)
	if err := setDuration(&c.LLMTimeout, fc.LLM.Timeout, "llm.timeout"); err != nil {
		return err
	}
	if fc.LLM.Temperature != nil {
		c.LLMTemperature = *fc.LLM.Temperature
	}
	setInt(&c.CacheSize, fc.LLM.CacheSize)
	setString(&c.OutputFile, fc.Output.File)
	setString(&c.OutputFormat, fc.Output.Format)
	setInt(&c.PipelineBufferSize, fc.Output.Buffer)
	setInt(&c.BatchSize, fc.Output.Batch)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, raw, key string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// EnvString reads a string environment variable; ok reports whether it
// was set to a non-empty value.
func EnvString(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// EnvInt reads an integer environment variable.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}

// EnvBool reads a boolean environment variable.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}

// EnvDuration reads a duration environment variable in Go duration
// syntax ("2s", "500ms").
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return v, true, nil
}
