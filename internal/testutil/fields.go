package testutil

import (
	"strings"
	"sync"

	"github.com/roach88/semquery/internal/ontology"
)

// StubFields is a field lookup with canned answers that records how often
// each name was asked for.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StubFields struct {
	mu      sync.Mutex
	answers map[string][]ontology.Property
	calls   map[string]int
}

// NewStubFields creates an empty stub. Unknown names resolve to nothing.
func NewStubFields() *StubFields {
	return &StubFields{
		answers: make(map[string][]ontology.Property),
		calls:   make(map[string]int),
	}
}

// Set registers the candidates returned for name. Names are matched
// case-insensitively.
func (s *StubFields) Set(name string, props ...ontology.Property) *StubFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[strings.ToLower(name)] = props
	return s
}

// MatchField implements userquery.FieldMatcher.
func (s *StubFields) MatchField(name string) []ontology.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	s.calls[key]++
	return s.answers[key]
}

// Calls returns how often name was looked up.
func (s *StubFields) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[strings.ToLower(name)]
}
