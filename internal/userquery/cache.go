package userquery

import (
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/cases"

	"github.com/roach88/semquery/internal/ontology"
)

// FieldMatcher resolves a field name to candidate properties.
// ontology.Catalog implements it.
type FieldMatcher interface {
	MatchField(name string) []ontology.Property
}

// FieldCache memoizes a FieldMatcher by case-folded field name.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FieldCache struct {
	matcher FieldMatcher
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string][]ontology.Property
}

// NewFieldCache wraps matcher. A nil logger falls back to slog.Default().
func NewFieldCache(matcher FieldMatcher, logger *slog.Logger) *FieldCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldCache{
		matcher: matcher,
		logger:  logger,
		entries: make(map[string][]ontology.Property),
	}
}

// MatchField returns the cached candidates for name, consulting the
// underlying matcher on a miss. The result must not be modified.
func (c *FieldCache) MatchField(name string) []ontology.Property {
	key := cases.Fold().String(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if props, ok := c.entries[key]; ok {
		c.logger.Debug("field cache hit", "field", name, "candidates", len(props))
		return props
	}
	props := slices.Clone(c.matcher.MatchField(name))
	c.entries[key] = props
	c.logger.Debug("field cache miss", "field", name, "candidates", len(props))
	return props
}

// Len returns the number of cached field names.
func (c *FieldCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops every cached entry.
func (c *FieldCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
