package run

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dtnitsch/contact-scout/models"
	"github.com/dtnitsch/contact-scout/pkg/pipeline"
	"gopkg.in/yaml.v3"
)

// BuildOutput assembles the run summary. result may be nil when the run failed
// before any domain was selected.
func BuildOutput(runID string, cfg *models.Config, status string, result *pipeline.Result, runErr error, elapsed time.Duration) *FinalOutput {
	out := &FinalOutput{
		RunID:   runID,
		Status:  status,
		Query:   cfg.Query,
		Output:  cfg.OutputPath,
		Domains: []DomainSummary{},
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	out.Stats.TotalTimeSeconds = elapsed.Seconds()

	if result == nil {
		return out
	}
	out.Stats.RunStats = result.Stats

	byDomain := make(map[string]*DomainSummary, len(result.Domains))
	for _, d := range result.Domains {
		out.Domains = append(out.Domains, DomainSummary{Domain: d.Domain, EntryURL: d.EntryURL})
	}
	for i := range out.Domains {
		byDomain[out.Domains[i].Domain] = &out.Domains[i]
	}
	for _, r := range result.Records {
		ds, ok := byDomain[r.Domain]
		if !ok {
			continue
		}
		ds.Records++
		if r.Email != "" {
			ds.Emails = append(ds.Emails, r.Email)
		}
		if r.FormFoundPage {
			ds.Contact = true
		}
	}
	return out
}

// WriteOutput renders out as yaml or json. "none" writes nothing.
func WriteOutput(w io.Writer, out *FinalOutput, format string) error {
	var data []byte
	var err error

	switch strings.ToLower(format) {
	case "", "yaml":
		data, err = yaml.Marshal(out)
	case "json":
		data, err = json.MarshalIndent(out, "", "  ")
		data = append(data, '\n')
	case "none":
		return nil
	default:
		return fmt.Errorf("unknown output format: %s (use: yaml, json, or none)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = w.Write(data)
	return err
}
