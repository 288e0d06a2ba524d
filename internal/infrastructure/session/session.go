package session

import (
	"sync"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// Logical keys stored per domain.
const (
	keyResults      = "results"
	keySelectedYear = "selected_year"
)

type stateKey struct {
	domain string
	name   string
}

// Session is one user's search state: a map from (domain, logical key) to a
// typed value. Writes for one domain never touch another domain's keys.
type Session struct {
	id string

	mu     sync.Mutex
	values map[stateKey]any
}

func New(id string) *Session {
	return &Session{
		id:     id,
		values: make(map[stateKey]any),
	}
}

func (s *Session) ID() string { return s.id }

// RecordSearch replaces the domain's result set and selects its first year.
func (s *Session) RecordSearch(domainName string, rs domain.ResultSet) {
	stored := domain.ResultSet{
		Domain: rs.Domain,
		Years:  append([]string(nil), rs.Years...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[stateKey{domainName, keyResults}] = stored
	if first, ok := stored.First(); ok {
		s.values[stateKey{domainName, keySelectedYear}] = first
	} else {
		delete(s.values, stateKey{domainName, keySelectedYear})
	}
}

func (s *Session) Results(domainName string) (domain.ResultSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.values[stateKey{domainName, keyResults}].(domain.ResultSet)
	if !ok {
		return domain.ResultSet{}, false
	}
	return domain.ResultSet{Domain: rs.Domain, Years: append([]string(nil), rs.Years...)}, true
}

func (s *Session) Selection(domainName string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	year, ok := s.values[stateKey{domainName, keySelectedYear}].(string)
	return year, ok
}

// SetSelection stores year as-is. Callers restrict year to the stored result
// set; no membership check happens here.
func (s *Session) SetSelection(domainName, year string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[stateKey{domainName, keySelectedYear}] = year
}
