package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dtnitsch/contact-scout/models"
)

func TestEncodeCSV(t *testing.T) {
	when := time.Date(2026, 7, 9, 8, 5, 59, 0, time.UTC)
	records := []models.ContactRecord{
		{Date: when, Domain: "acme.io", Page: "https://acme.io/contact", Email: "sales@acme.io", FormFoundPage: true},
		{Date: when, Domain: "beta.dev", Page: "https://beta.dev/about", Email: "", FormFoundPage: true},
		{Date: when, Domain: "gamma.net", Page: "https://gamma.net/?a=1,2", Email: "hi@gamma.net", FormFoundPage: false},
	}

	var sb strings.Builder
	if err := EncodeCSV(&sb, records); err != nil {
		t.Fatalf("EncodeCSV() error = %v", err)
	}

	want := "date,domain,page,emails,form_found_page\n" +
		"2026-07-09 08:05,acme.io,https://acme.io/contact,sales@acme.io,True\n" +
		"2026-07-09 08:05,beta.dev,https://beta.dev/about,,True\n" +
		"2026-07-09 08:05,gamma.net,\"https://gamma.net/?a=1,2\",hi@gamma.net,\n"
	if sb.String() != want {
		t.Errorf("EncodeCSV() =\n%s\nwant\n%s", sb.String(), want)
	}
}

func TestCSVSink_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	sink := NewCSVSink(path)

	first := []models.ContactRecord{
		{Date: time.Now(), Domain: "a.com", Page: "https://a.com/", Email: "a@a.com"},
		{Date: time.Now(), Domain: "b.com", Page: "https://b.com/", Email: "b@b.com"},
	}
	if err := sink.Write(first); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := sink.Write(nil); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "date,domain,page,emails,form_found_page\n" {
		t.Errorf("file = %q, want header only", data)
	}
}

func TestNewCSVSink_DefaultPath(t *testing.T) {
	if got := NewCSVSink("").Path; got != models.DefaultOutputPath {
		t.Errorf("Path = %q, want %q", got, models.DefaultOutputPath)
	}
}
