package crawler

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/contact-scout/models"
	"github.com/dtnitsch/contact-scout/pkg/fetcher"
	"github.com/dtnitsch/contact-scout/pkg/store"
	"golang.org/x/sync/semaphore"
)

// fakeFetcher serves canned HTML per URL. URLs without a page fail with a timeout.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error) {
	f.mu.Lock()
	f.calls[rawURL]++
	html, ok := f.pages[rawURL]
	f.mu.Unlock()

	if !ok {
		return nil, &fetcher.FetchError{URL: rawURL, Kind: fetcher.KindTimeout, Err: context.DeadlineExceeded}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &fetcher.Page{URL: rawURL, Body: html, Doc: doc, StatusCode: 200}, nil
}

var fixed = time.Date(2026, 4, 2, 15, 4, 0, 0, time.UTC)

func newTestCrawler(f PageFetcher, s *store.Store) *Crawler {
	return New(Options{
		Fetcher: f,
		Store:   s,
		Pages:   semaphore.NewWeighted(4),
		Now:     func() time.Time { return fixed },
	})
}

func TestTargets(t *testing.T) {
	tests := []struct {
		name      string
		candidate models.DomainCandidate
		want      []string
	}{
		{
			name:      "entry page differs from root",
			candidate: models.DomainCandidate{Domain: "acme.io", EntryURL: "https://acme.io/blog/x"},
			want: []string{
				"https://acme.io/",
				"https://acme.io/blog/x",
				"https://acme.io/contact",
				"https://acme.io/about",
				"https://acme.io/advertising",
				"https://acme.io/contact-us",
				"https://acme.io/about-us",
			},
		},
		{
			name:      "entry equals root",
			candidate: models.DomainCandidate{Domain: "acme.io", EntryURL: "https://acme.io/"},
			want: []string{
				"https://acme.io/",
				"https://acme.io/contact",
				"https://acme.io/about",
				"https://acme.io/advertising",
				"https://acme.io/contact-us",
				"https://acme.io/about-us",
			},
		},
		{
			name:      "entry equals a contact path",
			candidate: models.DomainCandidate{Domain: "acme.io", EntryURL: "https://acme.io/about"},
			want: []string{
				"https://acme.io/",
				"https://acme.io/about",
				"https://acme.io/contact",
				"https://acme.io/advertising",
				"https://acme.io/contact-us",
				"https://acme.io/about-us",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Targets(tt.candidate, models.DefaultContactPaths)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Targets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCrawl_FormAndEmail(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://acme.io/contact": `<html><body><form action="/send"></form><p>Reach sales@acme.io</p></body></html>`,
	})
	s := store.New()
	c := newTestCrawler(f, s)

	got := c.Crawl(context.Background(), models.DomainCandidate{Domain: "acme.io", EntryURL: "https://acme.io/"})

	want := []models.ContactRecord{{
		Date:          fixed,
		Domain:        "acme.io",
		Page:          "https://acme.io/contact",
		Email:         "sales@acme.io",
		FormFoundPage: true,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Crawl() = %+v, want %+v", got, want)
	}
	if !s.Seen("sales@acme.io") {
		t.Error("email was not claimed in the store")
	}
	if n := len(s.Records()); n != 1 {
		t.Errorf("store holds %d records, want 1", n)
	}
}

func TestCrawl_SignalOnly(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://beta.dev/about": `<html><body><a href="/reach">Contact our team</a></body></html>`,
	})
	c := newTestCrawler(f, store.New())

	got := c.Crawl(context.Background(), models.DomainCandidate{Domain: "beta.dev", EntryURL: "https://beta.dev/"})
	if len(got) != 1 {
		t.Fatalf("Crawl() returned %d records, want 1", len(got))
	}
	if got[0].Email != "" || !got[0].FormFoundPage || got[0].Page != "https://beta.dev/about" {
		t.Errorf("Crawl() = %+v, want signal-only record for /about", got[0])
	}
}

func TestCrawl_FailedPagesAreSkipped(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"https://gamma.net/":        `<html><body>nothing here</body></html>`,
		"https://gamma.net/contact": `<html><body>hello@gamma.net</body></html>`,
	})
	c := newTestCrawler(f, store.New())

	outcomes := c.Collect(context.Background(), models.DomainCandidate{Domain: "gamma.net", EntryURL: "https://gamma.net/"})
	fetched, failed := Stats(outcomes)
	if fetched != 2 || failed != 4 {
		t.Errorf("Stats() = (%d, %d), want (2, 4)", fetched, failed)
	}

	var fe *fetcher.FetchError
	for _, o := range outcomes {
		if o.URL == "https://gamma.net/about" && !errors.As(o.Err, &fe) {
			t.Errorf("outcome for /about err = %v, want FetchError", o.Err)
		}
	}

	got := c.Commit(models.DomainCandidate{Domain: "gamma.net"}, outcomes)
	if len(got) != 1 || got[0].Email != "hello@gamma.net" {
		t.Errorf("Commit() = %+v, want one record for hello@gamma.net", got)
	}
}

func TestCrawl_EmailRepeatedAcrossPagesOfOneDomain(t *testing.T) {
	body := `<html><body>info@delta.org</body></html>`
	f := newFakeFetcher(map[string]string{
		"https://delta.org/":         body,
		"https://delta.org/contact":  body,
		"https://delta.org/about-us": body,
	})
	c := newTestCrawler(f, store.New())

	got := c.Crawl(context.Background(), models.DomainCandidate{Domain: "delta.org", EntryURL: "https://delta.org/"})
	if len(got) != 1 {
		t.Fatalf("Crawl() returned %d records, want 1", len(got))
	}
	if got[0].Page != "https://delta.org/" {
		t.Errorf("record page = %q, want the first page in target order", got[0].Page)
	}
}

func TestCrawl_EachTargetFetchedOnce(t *testing.T) {
	f := newFakeFetcher(map[string]string{})
	c := newTestCrawler(f, store.New())

	c.Crawl(context.Background(), models.DomainCandidate{Domain: "eps.io", EntryURL: "https://eps.io/contact"})
	for u, n := range f.calls {
		if n != 1 {
			t.Errorf("%s fetched %d times, want 1", u, n)
		}
	}
	if len(f.calls) != 6 {
		t.Errorf("fetched %d distinct URLs, want 6", len(f.calls))
	}
}

func TestCommit_EarlierDomainWins(t *testing.T) {
	s := store.New()
	c := newTestCrawler(newFakeFetcher(nil), s)

	shared := models.PageResult{Emails: []string{"press@shared.com"}}
	first := c.Commit(models.DomainCandidate{Domain: "one.com"}, []PageOutcome{{URL: "https://one.com/", Result: shared}})
	second := c.Commit(models.DomainCandidate{Domain: "two.com"}, []PageOutcome{{URL: "https://two.com/", Result: shared}})

	if len(first) != 1 || len(second) != 0 {
		t.Errorf("Commit() lengths = (%d, %d), want (1, 0)", len(first), len(second))
	}
}

func TestCommit_SignalOnlyRowsRepeat(t *testing.T) {
	s := store.New()
	c := newTestCrawler(newFakeFetcher(nil), s)

	signal := models.PageResult{HasContactSignal: true}
	got := c.Commit(models.DomainCandidate{Domain: "one.com"}, []PageOutcome{
		{URL: "https://one.com/contact", Result: signal},
		{URL: "https://one.com/about", Result: signal},
	})
	if len(got) != 2 {
		t.Errorf("Commit() returned %d records, want 2", len(got))
	}
	if s.UniqueEmails() != 0 {
		t.Errorf("UniqueEmails() = %d, want 0", s.UniqueEmails())
	}
}

func TestCollect_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := semaphore.NewWeighted(1)
	// Hold the only slot so Acquire must observe the canceled context.
	if !pages.TryAcquire(1) {
		t.Fatal("TryAcquire() failed")
	}
	c := New(Options{Fetcher: newFakeFetcher(nil), Store: store.New(), Pages: pages})

	outcomes := c.Collect(ctx, models.DomainCandidate{Domain: "z.io"})
	for _, o := range outcomes {
		var fe *fetcher.FetchError
		if !errors.As(o.Err, &fe) || fe.Kind != fetcher.KindCanceled {
			t.Errorf("outcome %s err = %v, want canceled", o.URL, o.Err)
		}
	}
}
