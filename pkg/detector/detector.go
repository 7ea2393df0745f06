package detector

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var contactPattern = regexp.MustCompile(`(?i)contact`)

// HasContactSignal reports whether a page offers a way to reach the site owner:
// any form, or any link whose visible text mentions "contact".
func HasContactSignal(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	return HasForm(doc) || HasContactLink(doc)
}

// HasForm reports whether the document contains at least one form element.
func HasForm(doc *goquery.Document) bool {
	return doc.Find("form").Length() > 0
}

// HasContactLink reports whether any anchor's text contains "contact", ignoring case.
func HasContactLink(doc *goquery.Document) bool {
	found := false
	doc.Find("a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if contactPattern.MatchString(s.Text()) {
			found = true
			return false
		}
		return true
	})
	return found
}
