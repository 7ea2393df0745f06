package models

import "time"

// SearchResultItem is one hit returned by the search provider.
type SearchResultItem struct {
	URL   string `json:"link" yaml:"url"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// DomainCandidate is a unique host selected for crawling plus the URL that surfaced it.
type DomainCandidate struct {
	Domain   string `yaml:"domain"`
	EntryURL string `yaml:"entry_url"`
}

// PageResult is what one fetched page contributed.
type PageResult struct {
	Emails           []string
	HasContactSignal bool
}

// Empty reports whether the page yields no record at all.
func (r PageResult) Empty() bool {
	return len(r.Emails) == 0 && !r.HasContactSignal
}

// ContactRecord is one output row. Email is empty for signal-only pages.
type ContactRecord struct {
	Date          time.Time `yaml:"date"`
	Domain        string    `yaml:"domain"`
	Page          string    `yaml:"page"`
	Email         string    `yaml:"email"`
	FormFoundPage bool      `yaml:"form_found_page"`
}

// PageAccess describes one fetch attempt for the audit history.
type PageAccess struct {
	Domain           string
	URL              string
	StatusCode       int
	ErrorType        string
	Success          bool
	EmailCount       int
	HasContactSignal bool
	Title            string
	SiteName         string
	AccessedAt       time.Time
}
