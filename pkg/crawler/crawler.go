package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/dtnitsch/contact-scout/models"
	"github.com/dtnitsch/contact-scout/pkg/db"
	"github.com/dtnitsch/contact-scout/pkg/detector"
	"github.com/dtnitsch/contact-scout/pkg/extractor"
	"github.com/dtnitsch/contact-scout/pkg/fetcher"
	"github.com/dtnitsch/contact-scout/pkg/store"
	"golang.org/x/sync/semaphore"
)

// PageFetcher is satisfied by *fetcher.Fetcher.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// PageOutcome is the result of fetching one target URL.
type PageOutcome struct {
	URL    string
	Result models.PageResult
	Err    error
}

// Options configures a Crawler. Fetcher and Store are required.
type Options struct {
	Fetcher      PageFetcher
	Store        *store.Store
	Extractor    *extractor.Extractor
	ContactPaths []string
	// Pages is shared by every domain so the total number of in-flight
	// fetches stays bounded.
	Pages    *semaphore.Weighted
	Database *db.DB
	RunID    string
	Logger   *slog.Logger
	Now      func() time.Time
}

type Crawler struct {
	fetcher   PageFetcher
	store     *store.Store
	extractor *extractor.Extractor
	paths     []string
	pages     *semaphore.Weighted
	database  *db.DB
	runID     string
	logger    *slog.Logger
	now       func() time.Time
}

func New(opts Options) *Crawler {
	c := &Crawler{
		fetcher:   opts.Fetcher,
		store:     opts.Store,
		extractor: opts.Extractor,
		paths:     opts.ContactPaths,
		pages:     opts.Pages,
		database:  opts.Database,
		runID:     opts.RunID,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if c.store == nil {
		c.store = store.New()
	}
	if c.extractor == nil {
		c.extractor = extractor.New(extractor.Options{})
	}
	if c.paths == nil {
		c.paths = models.DefaultContactPaths
	}
	if c.pages == nil {
		c.pages = semaphore.NewWeighted(int64(models.DefaultPageConcurrency))
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Targets lists the URLs crawled for a domain: the root, the entry URL, then each
// contact path resolved against the root. Exact duplicates are dropped.
func Targets(candidate models.DomainCandidate, paths []string) []string {
	root := "https://" + candidate.Domain
	raw := make([]string, 0, len(paths)+2)
	raw = append(raw, root+"/")
	if candidate.EntryURL != "" {
		raw = append(raw, candidate.EntryURL)
	}

	base, err := url.Parse(root)
	for _, p := range paths {
		if err != nil {
			raw = append(raw, root+p)
			continue
		}
		ref, perr := url.Parse(p)
		if perr != nil {
			continue
		}
		raw = append(raw, base.ResolveReference(ref).String())
	}

	seen := make(map[string]struct{}, len(raw))
	targets := make([]string, 0, len(raw))
	for _, u := range raw {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		targets = append(targets, u)
	}
	return targets
}

// Crawl fetches every target of candidate and commits its records to the store.
func (c *Crawler) Crawl(ctx context.Context, candidate models.DomainCandidate) []models.ContactRecord {
	return c.Commit(candidate, c.Collect(ctx, candidate))
}

// Collect fetches each target exactly once, concurrently, and returns the outcomes
// in target order. Failures are logged and yield an empty result.
func (c *Crawler) Collect(ctx context.Context, candidate models.DomainCandidate) []PageOutcome {
	targets := Targets(candidate, c.paths)
	outcomes := make([]PageOutcome, len(targets))
	c.logger.Info("Crawling domain", "domain", candidate.Domain, "targets", len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			outcomes[i] = c.fetchOne(ctx, candidate.Domain, target)
		}(i, target)
	}
	wg.Wait()
	return outcomes
}

func (c *Crawler) fetchOne(ctx context.Context, domain, target string) PageOutcome {
	outcome := PageOutcome{URL: target}
	access := models.PageAccess{Domain: domain, URL: target}

	if err := c.pages.Acquire(ctx, 1); err != nil {
		outcome.Err = &fetcher.FetchError{URL: target, Kind: fetcher.KindCanceled, Err: err}
	} else {
		page, err := c.fetcher.Fetch(ctx, target)
		c.pages.Release(1)
		if err != nil {
			outcome.Err = err
		} else {
			outcome.Result = models.PageResult{
				Emails:           c.extractor.Extract(page.Body),
				HasContactSignal: detector.HasContactSignal(page.Doc),
			}
			access.StatusCode = page.StatusCode
			access.Title = page.Title
			access.SiteName = page.SiteName
		}
	}

	var fe *fetcher.FetchError
	switch {
	case outcome.Err == nil:
		access.Success = true
		access.EmailCount = len(outcome.Result.Emails)
		access.HasContactSignal = outcome.Result.HasContactSignal
		c.logger.Debug("Fetched page", "domain", domain, "url", target,
			"emails", access.EmailCount, "contact_signal", access.HasContactSignal)
	case errors.As(outcome.Err, &fe):
		access.ErrorType = fe.Kind
		access.StatusCode = fe.StatusCode
		c.logger.Warn("Error fetching page", "domain", domain, "url", target, "error_type", fe.Kind, "error", outcome.Err)
	default:
		access.ErrorType = "fetch_error"
		c.logger.Warn("Error fetching page", "domain", domain, "url", target, "error", outcome.Err)
	}

	if c.database != nil && c.runID != "" {
		access.AccessedAt = c.now()
		if err := c.database.RecordAccess(c.runID, access); err != nil {
			c.logger.Warn("Failed to record page access", "url", target, "error", err)
		}
	}
	return outcome
}

// Store is the run-wide record store Commit writes to.
func (c *Crawler) Store() *store.Store {
	return c.store
}

// Commit turns outcomes into records in target order. An email already claimed by
// an earlier page or domain is skipped; pages with a contact signal but no email
// yield one record with an empty email.
func (c *Crawler) Commit(candidate models.DomainCandidate, outcomes []PageOutcome) []models.ContactRecord {
	var records []models.ContactRecord
	for _, o := range outcomes {
		if o.Err != nil || o.Result.Empty() {
			continue
		}

		emails := o.Result.Emails
		if len(emails) == 0 {
			emails = []string{""}
		}
		for _, email := range emails {
			if !c.store.Claim(email) {
				c.logger.Debug("Skipping duplicate email", "domain", candidate.Domain, "url", o.URL, "email", email)
				continue
			}
			records = append(records, models.ContactRecord{
				Date:          c.now(),
				Domain:        candidate.Domain,
				Page:          o.URL,
				Email:         email,
				FormFoundPage: o.Result.HasContactSignal,
			})
		}
	}

	c.store.Append(records...)
	if len(records) > 0 {
		c.logger.Info("Domain committed", "domain", candidate.Domain, "records", len(records))
	}
	return records
}

// Stats counts fetched and failed pages among outcomes.
func Stats(outcomes []PageOutcome) (fetched, failed int) {
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		} else {
			fetched++
		}
	}
	return fetched, failed
}
