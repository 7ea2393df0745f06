package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/contact-scout/models"
)

// ErrRunNotFound is returned when a run_id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table.
type Run struct {
	RunID        string
	Query        string
	OutputPath   string
	StartedAt    time.Time
	FinishedAt   time.Time // zero while running
	Status       string
	ErrorMessage string
	Stats        models.RunStats
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateRun inserts a run in the running state.
func (db *DB) CreateRun(runID, query, outputPath string, startedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO runs (run_id, query, output_path, started_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, runID, query, outputPath, formatTime(startedAt), models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of a run.
func (db *DB) FinishRun(runID, status, errorMessage string, stats models.RunStats, finishedAt time.Time) error {
	result, err := db.Exec(`
		UPDATE runs
		SET finished_at = ?, status = ?, error_message = ?,
		    search_results = ?, domain_count = ?, pages_fetched = ?, pages_failed = ?,
		    record_count = ?, unique_emails = ?
		WHERE run_id = ?
	`, formatTime(finishedAt), status, NewNullString(errorMessage),
		stats.SearchResults, stats.Domains, stats.PagesFetched, stats.PagesFailed,
		stats.Records, stats.UniqueEmails, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// RecordAccess records a fetch attempt in page_accesses.
func (db *DB) RecordAccess(runID string, access models.PageAccess) error {
	accessedAt := access.AccessedAt
	if accessedAt.IsZero() {
		accessedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO page_accesses
		    (run_id, domain, url, accessed_at, status_code, error_type, success, email_count, contact_signal, title, site_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, access.Domain, access.URL, formatTime(accessedAt), access.StatusCode,
		NewNullString(access.ErrorType), access.Success, access.EmailCount, access.HasContactSignal,
		NewNullString(access.Title), NewNullString(access.SiteName))
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

// InsertContacts stores the output rows of a run in one transaction, keeping their order.
func (db *DB) InsertContacts(runID string, records []models.ContactRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	stmt, err := tx.Prepare(`
		INSERT INTO contacts (run_id, position, found_at, domain, page, email, form_found_page)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare contact insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(runID, i, formatTime(r.Date), r.Domain, r.Page, r.Email, r.FormFoundPage); err != nil {
			return fmt.Errorf("failed to insert contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contacts: %w", err)
	}
	return nil
}

const runColumns = `run_id, query, output_path, started_at, finished_at, status, error_message,
	search_results, domain_count, pages_fetched, pages_failed, record_count, unique_emails`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var outputPath, finishedAt, errorMessage sql.NullString
	var startedAt string
	err := row.Scan(&r.RunID, &r.Query, &outputPath, &startedAt, &finishedAt, &r.Status, &errorMessage,
		&r.Stats.SearchResults, &r.Stats.Domains, &r.Stats.PagesFetched, &r.Stats.PagesFailed,
		&r.Stats.Records, &r.Stats.UniqueEmails)
	if err != nil {
		return nil, err
	}
	r.OutputPath = outputPath.String
	r.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		r.FinishedAt = parseTime(finishedAt.String)
	}
	r.ErrorMessage = errorMessage.String
	return &r, nil
}

// GetRun returns one run by id.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query("SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRunContacts returns the stored output rows of a run in their original order.
func (db *DB) GetRunContacts(runID string) ([]models.ContactRecord, error) {
	rows, err := db.Query(`
		SELECT found_at, domain, page, email, form_found_page
		FROM contacts
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run contacts: %w", err)
	}
	defer rows.Close()

	var records []models.ContactRecord
	for rows.Next() {
		var r models.ContactRecord
		var foundAt string
		var email sql.NullString
		if err := rows.Scan(&foundAt, &r.Domain, &r.Page, &email, &r.FormFoundPage); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		r.Date = parseTime(foundAt)
		r.Email = email.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRunAccesses returns every fetch attempt of a run in insertion order.
func (db *DB) GetRunAccesses(runID string) ([]models.PageAccess, error) {
	rows, err := db.Query(`
		SELECT domain, url, accessed_at, status_code, error_type, success, email_count, contact_signal, title, site_name
		FROM page_accesses
		WHERE run_id = ?
		ORDER BY access_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run accesses: %w", err)
	}
	defer rows.Close()

	var accesses []models.PageAccess
	for rows.Next() {
		var a models.PageAccess
		var accessedAt string
		var errorType, title, siteName sql.NullString
		if err := rows.Scan(&a.Domain, &a.URL, &accessedAt, &a.StatusCode, &errorType, &a.Success,
			&a.EmailCount, &a.HasContactSignal, &title, &siteName); err != nil {
			return nil, fmt.Errorf("failed to scan access: %w", err)
		}
		a.AccessedAt = parseTime(accessedAt)
		a.ErrorType = errorType.String
		a.Title = title.String
		a.SiteName = siteName.String
		accesses = append(accesses, a)
	}
	return accesses, rows.Err()
}

// LatestRunID returns the id of the most recently started run.
func (db *DB) LatestRunID() (string, error) {
	var runID string
	err := db.QueryRow("SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}

// NewNullString converts empty strings to SQL NULL.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
