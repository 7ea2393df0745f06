package extractor

import (
	"regexp"
	"sort"
	"strings"
)

// Verdict is the classification given to one email-shaped token.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictRejectPlaceholder
	VerdictRejectConsumer
	VerdictRejectMalformed
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictRejectPlaceholder:
		return "reject_placeholder"
	case VerdictRejectConsumer:
		return "reject_consumer"
	default:
		return "reject_malformed"
	}
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9_.+\-]+@[a-zA-Z0-9\-]+\.[a-zA-Z0-9.\-]+`)

// Known fake addresses.
var defaultPlaceholderEmails = []string{"example@example.com", "test@test.com", "contact@domain.com"}

// Domains used in documentation and templates, including the RFC 2606 reserved ones.
var defaultPlaceholderDomains = []string{"example.com", "example.org", "example.net", "test.com", "domain.com"}

// Free webmail providers rarely belong to a business contact.
var defaultConsumerDomains = []string{"gmail.com", "yahoo.com", "hotmail.com"}

// Extractor finds business email addresses in raw page text.
type Extractor struct {
	placeholderEmails  map[string]struct{}
	placeholderDomains map[string]struct{}
	consumerDomains    map[string]struct{}
}

// Options adds entries on top of the built-in filter sets.
type Options struct {
	PlaceholderEmails  []string
	PlaceholderDomains []string
	ConsumerDomains    []string
}

// New builds an Extractor with the built-in filter sets plus any extras.
func New(opts Options) *Extractor {
	return &Extractor{
		placeholderEmails:  toSet(defaultPlaceholderEmails, opts.PlaceholderEmails),
		placeholderDomains: toSet(defaultPlaceholderDomains, opts.PlaceholderDomains),
		consumerDomains:    toSet(defaultConsumerDomains, opts.ConsumerDomains),
	}
}

var defaultExtractor = New(Options{})

// Extract runs the default Extractor over text.
func Extract(text string) []string {
	return defaultExtractor.Extract(text)
}

// Extract returns the accepted, lower-cased, deduplicated emails found in text, sorted.
func (e *Extractor) Extract(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		email := normalize(match)
		if e.Classify(email) != VerdictAccept {
			continue
		}
		seen[email] = struct{}{}
	}

	emails := make([]string, 0, len(seen))
	for email := range seen {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}

// Classify decides whether a normalized email is kept.
func (e *Extractor) Classify(email string) Verdict {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return VerdictRejectMalformed
	}
	if _, found := e.placeholderEmails[email]; found {
		return VerdictRejectPlaceholder
	}
	if _, found := e.placeholderDomains[domain]; found {
		return VerdictRejectPlaceholder
	}
	if _, found := e.consumerDomains[domain]; found {
		return VerdictRejectConsumer
	}
	return VerdictAccept
}

func normalize(token string) string {
	return strings.TrimRight(strings.ToLower(token), ".")
}

func toSet(base, extra []string) map[string]struct{} {
	set := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" {
				set[v] = struct{}{}
			}
		}
	}
	return set
}
