// Package models defines data structures for configuration and contact results.
package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputPath      = "google_scrape_results.csv"
	DefaultMaxDomains      = 5
	DefaultResultsPerPage  = 10
	DefaultSearchPages     = 5
	DefaultWorkers         = 5
	DefaultPageConcurrency = 8
	DefaultRequestTimeout  = 10 * time.Second
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/123.0.6312.86 Safari/537.36"
)

// DefaultContactPaths are resolved against the domain root for every crawl.
var DefaultContactPaths = []string{"/contact", "/about", "/advertising", "/contact-us", "/about-us"}

// DefaultExcludes keeps forum hosts out of the candidate list.
var DefaultExcludes = []string{"reddit.com"}

// Config holds runtime configuration for a scout run.
// Values come from an optional YAML file and are overridden by CLI flags.
type Config struct {
	Query          string        `yaml:"query"`
	OutputPath     string        `yaml:"output"`
	MaxDomains     int           `yaml:"max_domains"`
	ResultsPerPage int           `yaml:"results_per_page"`
	SearchPages    int           `yaml:"search_pages"`
	Excludes       []string      `yaml:"exclude"`
	ContactPaths   []string      `yaml:"contact_paths"`
	Workers        int           `yaml:"workers"`
	PageWorkers    int           `yaml:"page_concurrency"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RunTimeout     time.Duration `yaml:"run_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent      string        `yaml:"user_agent"`
	DBPath         string        `yaml:"db"`

	// Extra filter entries, merged with the built-in sets.
	PlaceholderEmails  []string `yaml:"placeholder_emails"`
	PlaceholderDomains []string `yaml:"placeholder_domains"`
	ConsumerDomains    []string `yaml:"consumer_domains"`
}

// DefaultConfig returns a Config populated with the stock values.
func DefaultConfig() *Config {
	return &Config{
		OutputPath:     DefaultOutputPath,
		MaxDomains:     DefaultMaxDomains,
		ResultsPerPage: DefaultResultsPerPage,
		SearchPages:    DefaultSearchPages,
		Excludes:       append([]string(nil), DefaultExcludes...),
		ContactPaths:   append([]string(nil), DefaultContactPaths...),
		Workers:        DefaultWorkers,
		PageWorkers:    DefaultPageConcurrency,
		RequestTimeout: DefaultRequestTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "config", Err: fmt.Errorf("failed to read config file: %w", err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Field: "config", Err: fmt.Errorf("failed to parse config file: %w", err)}
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Query == "":
		return &ConfigError{Field: "query", Err: fmt.Errorf("a search query is required")}
	case c.OutputPath == "":
		return &ConfigError{Field: "output", Err: fmt.Errorf("an output path is required")}
	case c.MaxDomains < 1:
		return &ConfigError{Field: "max_domains", Err: fmt.Errorf("must be at least 1, got %d", c.MaxDomains)}
	case c.ResultsPerPage < 1 || c.ResultsPerPage > 10:
		// Custom Search caps num at 10.
		return &ConfigError{Field: "results_per_page", Err: fmt.Errorf("must be between 1 and 10, got %d", c.ResultsPerPage)}
	case c.SearchPages < 1:
		return &ConfigError{Field: "search_pages", Err: fmt.Errorf("must be at least 1, got %d", c.SearchPages)}
	case c.Workers < 1:
		return &ConfigError{Field: "workers", Err: fmt.Errorf("must be at least 1, got %d", c.Workers)}
	case c.PageWorkers < 1:
		return &ConfigError{Field: "page_concurrency", Err: fmt.Errorf("must be at least 1, got %d", c.PageWorkers)}
	case c.RequestTimeout <= 0:
		return &ConfigError{Field: "request_timeout", Err: fmt.Errorf("must be positive, got %s", c.RequestTimeout)}
	case c.RunTimeout < 0:
		return &ConfigError{Field: "run_timeout", Err: fmt.Errorf("must not be negative, got %s", c.RunTimeout)}
	case c.RateLimit < 0:
		return &ConfigError{Field: "rate_limit", Err: fmt.Errorf("must not be negative, got %v", c.RateLimit)}
	}
	return nil
}
