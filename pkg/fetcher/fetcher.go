package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/contact-scout/models"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 5 << 20

// Error kinds carried by FetchError.
const (
	KindRequest     = "request_error"
	KindTimeout     = "timeout"
	KindCanceled    = "canceled"
	KindNetwork     = "network_error"
	KindHTTP        = "http_error"
	KindRead        = "read_error"
	KindParse       = "parse_error"
	KindRateLimited = "rate_limited"
)

// FetchError is the single failure type returned by Fetch. Callers treat it as
// "no emails, no contact signal" for the URL and move on.
type FetchError struct {
	URL        string
	Kind       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Page is a successfully fetched and parsed HTML page.
type Page struct {
	URL        string
	Body       string
	Doc        *goquery.Document
	StatusCode int

	// Set only when enrichment is enabled.
	Title    string
	SiteName string
}

// Options configures a Fetcher. Zero values fall back to defaults.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	RateLimit float64 // requests per second across all fetches, 0 = unlimited
	Enrich    bool    // run readability to capture title and site name
	Client    *http.Client
	Logger    *slog.Logger
}

type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	enrich    bool
	logger    *slog.Logger
}

func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		enrich:    opts.Enrich,
		logger:    opts.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	if f.userAgent == "" {
		f.userAgent = models.DefaultUserAgent
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if f.client == nil {
		f.client = newHTTPClient(f.timeout, f.logger)
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return f
}

func newHTTPClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: timeout,
		},
	}
	// Some sites only serve pages once their cookies round-trip.
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.Warn("Failed to create cookie jar, continuing without cookies", "error", err)
		return client
	}
	client.Jar = jar
	return client
}

// Fetch performs one GET for rawURL and parses the body. Any failure comes back
// as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, f.classify(ctx, rawURL, KindRateLimited, err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, status, err := f.getHTMLBytes(reqCtx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: KindParse, StatusCode: status, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	page := &Page{
		URL:        rawURL,
		Body:       string(body),
		Doc:        doc,
		StatusCode: status,
	}
	if f.enrich {
		f.enrichPage(page)
	}
	return page, nil
}

func (f *Fetcher) getHTMLBytes(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, &FetchError{URL: rawURL, Kind: KindRequest, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, f.classify(ctx, rawURL, KindNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, &FetchError{URL: rawURL, Kind: KindHTTP, StatusCode: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fe := f.classify(ctx, rawURL, KindRead, err)
		fe.StatusCode = resp.StatusCode
		return nil, resp.StatusCode, fe
	}
	return bodyBytes, resp.StatusCode, nil
}

// classify maps a transport error onto a FetchError kind, separating our own
// per-request timeout from cancellation of the whole run.
func (f *Fetcher) classify(ctx context.Context, rawURL, fallback string, err error) *FetchError {
	kind := fallback
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	}
	return &FetchError{URL: rawURL, Kind: kind, Err: err}
}

func (f *Fetcher) enrichPage(page *Page) {
	parsedURL, err := url.Parse(page.URL)
	if err != nil {
		return
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(page.Body), parsedURL)
	if err != nil {
		f.logger.Debug("Readability parse failed", "url", page.URL, "error", err)
		page.Title = strings.TrimSpace(page.Doc.Find("title").First().Text())
		return
	}
	page.Title = strings.TrimSpace(article.Title)
	page.SiteName = strings.TrimSpace(article.SiteName)
}
