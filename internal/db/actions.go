package db

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/contact-scout/models"
	dbpkg "github.com/dtnitsch/contact-scout/pkg/db"
	"github.com/dtnitsch/contact-scout/pkg/storage"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// RunsAction lists recent runs from the audit database.
func RunsAction(c *cli.Context) error {
	database, err := openFromFlag(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return printRuns(os.Stdout, runs)
}

func printRuns(w io.Writer, runs []dbpkg.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-36s %-16s %-10s %-8s %-8s %-8s %s\n",
		"Run ID", "Started", "Status", "Domains", "Records", "Emails", "Query")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, r := range runs {
		fmt.Fprintf(w, "%-36s %-16s %-10s %-8d %-8d %-8d %s\n",
			r.RunID,
			r.StartedAt.Local().Format(storage.DateLayout),
			r.Status,
			r.Stats.Domains,
			r.Stats.Records,
			r.Stats.UniqueEmails,
			r.Query,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'contact-scout history show <run-id>' to see contacts\n")
	return nil
}

// ShowAction prints a run and the contacts it wrote. The latest run is used when
// no run ID is given.
func ShowAction(c *cli.Context) error {
	database, err := openFromFlag(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	contacts, err := database.GetRunContacts(runID)
	if err != nil {
		return fmt.Errorf("failed to get run contacts: %w", err)
	}

	return printRun(os.Stdout, run, contacts, c.String("format"))
}

// printRun writes run and its contacts as a text report, or as the run's CSV
// when format is "csv".
func printRun(w io.Writer, run *dbpkg.Run, contacts []models.ContactRecord, format string) error {
	if strings.ToLower(format) == "csv" {
		return storage.EncodeCSV(w, contacts)
	}

	fmt.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Query:    %s\n", run.Query)
	fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished: %s (%s)\n", run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "Status:   %s\n", run.Status)
	if run.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:    %s\n", run.ErrorMessage)
	}
	fmt.Fprintf(w, "Output:   %s\n", run.OutputPath)
	fmt.Fprintf(w, "Pages:    %d fetched, %d failed across %d domains\n",
		run.Stats.PagesFetched, run.Stats.PagesFailed, run.Stats.Domains)

	fmt.Fprintf(w, "\nContacts (%d):\n", len(contacts))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, r := range contacts {
		email := r.Email
		if email == "" {
			email = "(contact form or link only)"
		}
		form := ""
		if r.FormFoundPage {
			form = " [contact signal]"
		}
		fmt.Fprintf(w, "%2d. %s%s\n", i+1, email, form)
		fmt.Fprintf(w, "    %s\n", r.Page)
	}

	fmt.Fprintf(w, "\nTip: Use 'contact-scout history pages %s' to see every fetch\n", run.RunID)
	return nil
}

type pageRow struct {
	URL        string `yaml:"url"`
	Domain     string `yaml:"domain"`
	Status     string `yaml:"status"`
	StatusCode int    `yaml:"status_code,omitempty"`
	ErrorType  string `yaml:"error_type,omitempty"`
	Emails     int    `yaml:"emails,omitempty"`
	Contact    bool   `yaml:"contact_signal,omitempty"`
	Title      string `yaml:"title,omitempty"`
	SiteName   string `yaml:"site_name,omitempty"`
}

// PagesAction prints every page fetch of a run as YAML.
func PagesAction(c *cli.Context) error {
	database, err := openFromFlag(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	accesses, err := database.GetRunAccesses(runID)
	if err != nil {
		return fmt.Errorf("failed to get page accesses: %w", err)
	}

	return printPages(os.Stdout, runID, pageRows(accesses, c.Bool("failed")))
}

// pageRows converts accesses for display, keeping only failures when failedOnly is set.
func pageRows(accesses []models.PageAccess, failedOnly bool) []pageRow {
	rows := make([]pageRow, 0, len(accesses))
	for _, a := range accesses {
		if failedOnly && a.Success {
			continue
		}
		status := "success"
		if !a.Success {
			status = "failed"
		}
		rows = append(rows, pageRow{
			URL:        a.URL,
			Domain:     a.Domain,
			Status:     status,
			StatusCode: a.StatusCode,
			ErrorType:  a.ErrorType,
			Emails:     a.EmailCount,
			Contact:    a.HasContactSignal,
			Title:      a.Title,
			SiteName:   a.SiteName,
		})
	}
	return rows
}

func printPages(w io.Writer, runID string, rows []pageRow) error {
	data, err := yaml.Marshal(map[string]any{"run_id": runID, "pages": rows})
	if err != nil {
		return fmt.Errorf("failed to marshal pages: %w", err)
	}
	_, err = w.Write(data)
	return err
}
