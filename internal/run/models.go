package run

import (
	"github.com/dtnitsch/contact-scout/models"
)

// FinalOutput is the structured summary printed after a run.
type FinalOutput struct {
	RunID   string          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Status  string          `json:"status" yaml:"status"`
	Query   string          `json:"query" yaml:"query"`
	Output  string          `json:"output" yaml:"output"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
	Domains []DomainSummary `json:"domains" yaml:"domains"`
	Stats   Stats           `json:"stats" yaml:"stats"`
}

// DomainSummary is what one crawled domain contributed to the output.
type DomainSummary struct {
	Domain   string   `json:"domain" yaml:"domain"`
	EntryURL string   `json:"entry_url" yaml:"entry_url"`
	Records  int      `json:"records" yaml:"records"`
	Emails   []string `json:"emails,omitempty" yaml:"emails,omitempty"`
	Contact  bool     `json:"contact_signal" yaml:"contact_signal"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	models.RunStats  `yaml:",inline"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}
