package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.OutputPath != DefaultOutputPath || cfg.MaxDomains != 5 || cfg.SearchPages != 5 || cfg.ResultsPerPage != 10 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %s, want 10s", cfg.RequestTimeout)
	}
	if len(cfg.ContactPaths) != 5 || cfg.ContactPaths[0] != "/contact" {
		t.Errorf("ContactPaths = %v", cfg.ContactPaths)
	}

	// DefaultConfig must not share backing arrays with the package defaults.
	cfg.Excludes[0] = "changed"
	if DefaultExcludes[0] != "reddit.com" {
		t.Error("DefaultConfig() aliases DefaultExcludes")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "scout.yaml", `
query: thai dishes recipes
output: out/contacts.csv
max_domains: 3
exclude: [reddit.com, pinterest.com]
request_timeout: 5s
rate_limit: 2.5
consumer_domains: [outlook.com]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Query != "thai dishes recipes" || cfg.OutputPath != "out/contacts.csv" || cfg.MaxDomains != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Excludes) != 2 || cfg.Excludes[1] != "pinterest.com" {
		t.Errorf("Excludes = %v", cfg.Excludes)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.RateLimit != 2.5 {
		t.Errorf("RequestTimeout = %s, RateLimit = %v", cfg.RequestTimeout, cfg.RateLimit)
	}
	// Unset keys keep their defaults.
	if cfg.SearchPages != DefaultSearchPages || cfg.Workers != DefaultWorkers {
		t.Errorf("SearchPages = %d, Workers = %d", cfg.SearchPages, cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.yaml")},
		{"bad yaml", writeFile(t, "bad.yaml", "max_domains: [oops")},
		{"bad duration", writeFile(t, "dur.yaml", "request_timeout: soon")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("LoadConfig() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != "config" {
				t.Errorf("Field = %q, want %q", cfgErr.Field, "config")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no query", func(c *Config) { c.Query = "" }, "query"},
		{"no output", func(c *Config) { c.OutputPath = "" }, "output"},
		{"zero domains", func(c *Config) { c.MaxDomains = 0 }, "max_domains"},
		{"too many per page", func(c *Config) { c.ResultsPerPage = 11 }, "results_per_page"},
		{"zero pages", func(c *Config) { c.SearchPages = 0 }, "search_pages"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"zero page concurrency", func(c *Config) { c.PageWorkers = 0 }, "page_concurrency"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "request_timeout"},
		{"negative run timeout", func(c *Config) { c.RunTimeout = -time.Second }, "run_timeout"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Query = "q"
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("Validate() error = %v, want ConfigError on %q", err, tt.field)
			}
		})
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "key-1")
		t.Setenv(EnvCSEID, "cx-1")

		creds, err := LoadCredentials(filepath.Join(t.TempDir(), "missing.env"))
		if err != nil {
			t.Fatalf("LoadCredentials() error = %v", err)
		}
		if creds.APIKey != "key-1" || creds.CSEID != "cx-1" {
			t.Errorf("creds = %+v", creds)
		}
	})

	t.Run("from env file", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		t.Setenv(EnvCSEID, "")
		os.Unsetenv(EnvAPIKey)
		os.Unsetenv(EnvCSEID)

		path := writeFile(t, ".env", "API_KEY=file-key\nCSE_ID=file-cx\n")
		creds, err := LoadCredentials(path)
		if err != nil {
			t.Fatalf("LoadCredentials() error = %v", err)
		}
		if creds.APIKey != "file-key" || creds.CSEID != "file-cx" {
			t.Errorf("creds = %+v", creds)
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		t.Setenv(EnvCSEID, "")

		_, err := LoadCredentials("")
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Field != "credentials" {
			t.Errorf("LoadCredentials() error = %v, want credentials ConfigError", err)
		}
	})
}
