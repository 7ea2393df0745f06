// Package pipeline ties search, domain selection, crawling and output together.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dtnitsch/contact-scout/internal/common"
	"github.com/dtnitsch/contact-scout/models"
	"github.com/dtnitsch/contact-scout/pkg/crawler"
	"github.com/dtnitsch/contact-scout/pkg/search"
	"golang.org/x/sync/errgroup"
)

// Sink receives the merged records of a run exactly once.
type Sink interface {
	Write(records []models.ContactRecord) error
}

// SearchProviderError means the run could not obtain search results.
type SearchProviderError struct {
	Query string
	Err   error
}

func (e *SearchProviderError) Error() string {
	return fmt.Sprintf("search failed for query %q: %v", e.Query, e.Err)
}

func (e *SearchProviderError) Unwrap() error { return e.Err }

// SinkError means the records were gathered but could not be written.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("failed to write results: %v", e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

// Result is what a run produced.
type Result struct {
	Domains []models.DomainCandidate
	Records []models.ContactRecord
	Stats   models.RunStats
}

type Options struct {
	Searcher search.Searcher
	Crawler  *crawler.Crawler
	Sink     Sink

	MaxDomains     int
	Excludes       []string
	ResultsPerPage int
	SearchPages    int
	Workers        int

	Logger *slog.Logger
}

type Pipeline struct {
	searcher search.Searcher
	crawler  *crawler.Crawler
	sink     Sink

	maxDomains     int
	excludes       []string
	resultsPerPage int
	searchPages    int
	workers        int

	logger *slog.Logger
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		searcher:       opts.Searcher,
		crawler:        opts.Crawler,
		sink:           opts.Sink,
		maxDomains:     opts.MaxDomains,
		excludes:       opts.Excludes,
		resultsPerPage: opts.ResultsPerPage,
		searchPages:    opts.SearchPages,
		workers:        opts.Workers,
		logger:         opts.Logger,
	}
	if p.maxDomains <= 0 {
		p.maxDomains = models.DefaultMaxDomains
	}
	if p.excludes == nil {
		p.excludes = models.DefaultExcludes
	}
	if p.resultsPerPage <= 0 {
		p.resultsPerPage = models.DefaultResultsPerPage
	}
	if p.searchPages <= 0 {
		p.searchPages = models.DefaultSearchPages
	}
	if p.workers <= 0 {
		p.workers = models.DefaultWorkers
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return p
}

// SelectDomains picks up to limit unique hosts from items in rank order. Links that
// are not valid http(s) URLs are skipped, as are hosts containing any exclude substring.
// The entry URL of each candidate is the search link exactly as returned.
func SelectDomains(items []models.SearchResultItem, limit int, excludes []string) []models.DomainCandidate {
	var candidates []models.DomainCandidate
	seen := make(map[string]struct{})

	for _, item := range items {
		if limit > 0 && len(candidates) >= limit {
			break
		}
		u, ok := common.ParseHTTPURL(item.URL)
		if !ok {
			continue
		}
		domain := strings.ToLower(u.Host)
		if _, dup := seen[domain]; dup {
			continue
		}
		if excluded(domain, excludes) {
			continue
		}
		seen[domain] = struct{}{}
		candidates = append(candidates, models.DomainCandidate{Domain: domain, EntryURL: item.URL})
	}
	return candidates
}

func excluded(domain string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" && strings.Contains(domain, ex) {
			return true
		}
	}
	return false
}

// Run searches for query, crawls the selected domains and writes the merged records.
// Domains are fetched concurrently but committed in rank order, so when two domains
// share an email the higher-ranked one keeps it. A canceled ctx makes outstanding
// fetches fail soft; whatever was gathered is still written.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	result := &Result{}

	p.logger.Info("Searching", "query", query, "results_per_page", p.resultsPerPage, "pages", p.searchPages)
	items, err := p.searcher.Search(ctx, query, p.resultsPerPage, p.searchPages)
	if err != nil {
		return result, &SearchProviderError{Query: query, Err: err}
	}
	result.Stats.SearchResults = len(items)

	result.Domains = SelectDomains(items, p.maxDomains, p.excludes)
	result.Stats.Domains = len(result.Domains)
	p.logger.Info("Domains selected", "search_results", len(items), "domains", len(result.Domains))

	outcomes := make([][]crawler.PageOutcome, len(result.Domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, candidate := range result.Domains {
		g.Go(func() error {
			p.logger.Debug("Domain worker started", "rank", i+1, "domain", candidate.Domain)
			outcomes[i] = p.crawler.Collect(gctx, candidate)
			return nil
		})
	}
	_ = g.Wait() // workers never fail; page errors live in the outcomes

	for i, candidate := range result.Domains {
		fetched, failed := crawler.Stats(outcomes[i])
		result.Stats.PagesFetched += fetched
		result.Stats.PagesFailed += failed
		p.crawler.Commit(candidate, outcomes[i])
	}
	result.Records = p.crawler.Store().Records()
	result.Stats.Records = len(result.Records)
	result.Stats.UniqueEmails = p.crawler.Store().UniqueEmails()

	if ctx.Err() != nil {
		p.logger.Warn("Run interrupted, writing partial results", "error", ctx.Err(), "records", len(result.Records))
	}

	if err := p.sink.Write(result.Records); err != nil {
		return result, &SinkError{Err: err}
	}
	p.logger.Info("Results written", "records", result.Stats.Records, "unique_emails", result.Stats.UniqueEmails)
	return result, nil
}
