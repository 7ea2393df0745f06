package detector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

func TestHasContactSignal(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "form only",
			html: `<html><body><form action="/send"><input name="q"></form></body></html>`,
			want: true,
		},
		{
			name: "contact us link",
			html: `<html><body><a href="/reach">Contact Us</a></body></html>`,
			want: true,
		},
		{
			name: "partial match inside link text",
			html: `<html><body><a href="/x">Our CONTACTS page</a></body></html>`,
			want: true,
		},
		{
			name: "nested markup in link",
			html: `<html><body><a href="/x"><span>Get in</span> <b>contact</b></a></body></html>`,
			want: true,
		},
		{
			name: "contact text outside a link",
			html: `<html><body><p>Contact us at the office.</p><a href="/about">About</a></body></html>`,
			want: false,
		},
		{
			name: "contact only in href",
			html: `<html><body><a href="/contact">Reach us</a></body></html>`,
			want: false,
		},
		{
			name: "empty page",
			html: `<html><body></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasContactSignal(mustDoc(t, tt.html)); got != tt.want {
				t.Errorf("HasContactSignal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasContactSignal_NilDocument(t *testing.T) {
	if HasContactSignal(nil) {
		t.Error("HasContactSignal(nil) = true, want false")
	}
}

func TestHasFormAndLinkIndependently(t *testing.T) {
	doc := mustDoc(t, `<form></form><a>contact</a>`)
	if !HasForm(doc) {
		t.Error("HasForm() = false, want true")
	}
	if !HasContactLink(doc) {
		t.Error("HasContactLink() = false, want true")
	}
}
