package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/contact-scout/models"
)

func newTestClient(url string) *GoogleClient {
	return &GoogleClient{
		Endpoint:    url,
		Credentials: models.Credentials{APIKey: "k", CSEID: "cx"},
		Client:      &http.Client{Timeout: 2 * time.Second},
	}
}

func TestSearch_PagesAndParams(t *testing.T) {
	var mu sync.Mutex
	var starts []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" || q.Get("cx") != "cx" || q.Get("q") != "thai dishes" || q.Get("num") != "10" {
			t.Errorf("unexpected query params: %v", q)
		}
		mu.Lock()
		starts = append(starts, q.Get("start"))
		mu.Unlock()

		start, _ := strconv.Atoi(q.Get("start"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items":[{"link":"https://site%d.com/a","title":"t"}]}`, start)
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).Search(context.Background(), "thai dishes", 10, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Search() returned %d items, want 3", len(items))
	}
	if items[0].URL != "https://site1.com/a" || items[2].URL != "https://site21.com/a" {
		t.Errorf("items out of rank order: %+v", items)
	}

	want := []string{"1", "11", "21"}
	if fmt.Sprint(starts) != fmt.Sprint(want) {
		t.Errorf("start params = %v, want %v", starts, want)
	}
}

func TestSearch_StopsOnEmptyPage(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("start") == "1" {
			fmt.Fprint(w, `{"items":[{"link":"https://a.com/"},{"link":"https://b.com/"}]}`)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).Search(context.Background(), "q", 10, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Search() returned %d items, want 2", len(items))
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}

func TestSearch_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantReason string
	}{
		{
			name:       "quota exceeded",
			status:     http.StatusTooManyRequests,
			body:       `{"error":{"code":429,"message":"Quota exceeded","errors":[{"reason":"rateLimitExceeded"}]}}`,
			wantStatus: 429,
			wantReason: "rateLimitExceeded",
		},
		{
			name:       "bad key",
			status:     http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantStatus: 400,
			wantReason: "INVALID_ARGUMENT",
		},
		{
			name:       "non-json error body",
			status:     http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			wantStatus: 502,
		},
		{
			name:       "undecodable success body",
			status:     http.StatusOK,
			body:       `not json`,
			wantStatus: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Search(context.Background(), "q", 10, 1)
			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("Search() error = %v, want *ProviderError", err)
			}
			if perr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", perr.StatusCode, tt.wantStatus)
			}
			if perr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", perr.Reason, tt.wantReason)
			}
		})
	}
}

func TestSearch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Search(context.Background(), "q", 10, 1)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Search() error = %v, want *ProviderError", err)
	}
	if perr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", perr.StatusCode)
	}
}
