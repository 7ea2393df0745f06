package models

// Run statuses recorded in the audit history.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCanceled  = "canceled"
	RunStatusFailed    = "failed"
)

// RunStats summarises what one pipeline run did.
type RunStats struct {
	SearchResults int `yaml:"search_results" json:"search_results"`
	Domains       int `yaml:"domains" json:"domains"`
	PagesFetched  int `yaml:"pages_fetched" json:"pages_fetched"`
	PagesFailed   int `yaml:"pages_failed" json:"pages_failed"`
	Records       int `yaml:"records" json:"records"`
	UniqueEmails  int `yaml:"unique_emails" json:"unique_emails"`
}
