// Package search queries a web search API for result links.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dtnitsch/contact-scout/models"
)

// DefaultEndpoint is the Custom Search JSON API.
const DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// maxPerPage is the largest num value the API accepts.
const maxPerPage = 10

// Searcher returns result items for a query, in rank order.
type Searcher interface {
	Search(ctx context.Context, query string, perPage, pages int) ([]models.SearchResultItem, error)
}

// ProviderError is a failed or undecodable search response.
type ProviderError struct {
	StatusCode int
	Reason     string
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "search provider error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// GoogleClient calls the Custom Search JSON API.
type GoogleClient struct {
	Endpoint    string
	Credentials models.Credentials
	Client      *http.Client
	Logger      *slog.Logger
}

// NewGoogleClient returns a client for the default endpoint.
func NewGoogleClient(creds models.Credentials, timeout time.Duration, logger *slog.Logger) *GoogleClient {
	if timeout <= 0 {
		timeout = models.DefaultRequestTimeout
	}
	return &GoogleClient{
		Endpoint:    DefaultEndpoint,
		Credentials: creds,
		Client:      &http.Client{Timeout: timeout},
		Logger:      logger,
	}
}

type response struct {
	Items []models.SearchResultItem `json:"items"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// Search requests up to pages pages of perPage results. Start indices are 1, 1+perPage, ...
// An empty page ends the search early.
func (g *GoogleClient) Search(ctx context.Context, query string, perPage, pages int) ([]models.SearchResultItem, error) {
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	if pages <= 0 {
		pages = 1
	}

	var all []models.SearchResultItem
	for i := 0; i < pages; i++ {
		start := 1 + i*perPage
		items, err := g.page(ctx, query, perPage, start)
		if err != nil {
			return all, err
		}
		if g.Logger != nil {
			g.Logger.Debug("Search page fetched", "start", start, "items", len(items))
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
	}
	return all, nil
}

func (g *GoogleClient) page(ctx context.Context, query string, num, start int) ([]models.SearchResultItem, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{}
	params.Set("key", g.Credentials.APIKey)
	params.Set("cx", g.Credentials.CSEID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", models.DefaultUserAgent)

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Err: fmt.Errorf("failed to call search api: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil {
			perr.Message = apiErr.Error.Message
			perr.Reason = apiErr.Error.Status
			if len(apiErr.Error.Errors) > 0 && apiErr.Error.Errors[0].Reason != "" {
				perr.Reason = apiErr.Error.Errors[0].Reason
			}
		}
		if perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, perr
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return decoded.Items, nil
}

var _ Searcher = (*GoogleClient)(nil)
