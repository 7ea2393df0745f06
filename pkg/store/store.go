// Package store accumulates the contact records of one run and deduplicates
// emails across every domain crawled in that run.
package store

import (
	"sync"

	"github.com/dtnitsch/contact-scout/models"
)

type Store struct {
	mu      sync.Mutex
	emails  map[string]struct{}
	records []models.ContactRecord
}

func New() *Store {
	return &Store{
		emails: make(map[string]struct{}),
	}
}

// Claim inserts email and reports whether it was new. The empty email is
// never recorded and always claimable.
func (s *Store) Claim(email string) bool {
	if email == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[email]; ok {
		return false
	}
	s.emails[email] = struct{}{}
	return true
}

// Seen reports whether email has already been claimed.
func (s *Store) Seen(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.emails[email]
	return ok
}

// Append adds committed records. Records keeps them in call order.
func (s *Store) Append(records ...models.ContactRecord) {
	if len(records) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// Records returns a copy of every record in emission order.
func (s *Store) Records() []models.ContactRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ContactRecord, len(s.records))
	copy(out, s.records)
	return out
}

// UniqueEmails is the number of distinct non-empty emails claimed so far.
func (s *Store) UniqueEmails() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails)
}
