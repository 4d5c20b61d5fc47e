// Package ontology provides the property and class metadata that the parser
// and the SPARQL compiler consult.
//
// A Catalog is an immutable in-memory index, built either from Go values
// (NewCatalog), from a directory of CUE files (LoadCatalog) or from the
// embedded built-in desktop vocabulary (Builtin). Catalogs are safe for
// concurrent use.
package ontology

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Property describes one ontology property.
type Property struct {
	URI   string
	Label string

	// RangeIsResource is true when values are entities rather than
	// literals.
	RangeIsResource bool

	// Range is the datatype IRI for literal properties or the class IRI for
	// resource properties. Empty means unknown.
	Range string
}

// Class describes one ontology class.
type Class struct {
	URI          string
	Label        string
	SuperClasses []string
}

// Catalog indexes properties and classes.
type Catalog struct {
	properties []Property
	byURI      map[string]int
	classes    map[string]Class
}

// NewCatalog builds a catalog. Later duplicates of a URI replace earlier
// ones.
func NewCatalog(properties []Property, classes []Class) *Catalog {
	c := &Catalog{
		byURI:   make(map[string]int, len(properties)),
		classes: make(map[string]Class, len(classes)),
	}
	for _, p := range properties {
		if i, ok := c.byURI[p.URI]; ok {
			c.properties[i] = p
			continue
		}
		c.byURI[p.URI] = len(c.properties)
		c.properties = append(c.properties, p)
	}
	slices.SortFunc(c.properties, func(a, b Property) int {
		return strings.Compare(a.URI, b.URI)
	})
	for i, p := range c.properties {
		c.byURI[p.URI] = i
	}
	for _, cl := range classes {
		cl.SuperClasses = slices.Clone(cl.SuperClasses)
		c.classes[cl.URI] = cl
	}
	return c
}

// Properties returns every property ordered by URI.
func (c *Catalog) Properties() []Property {
	return slices.Clone(c.properties)
}

// Classes returns every class ordered by URI.
func (c *Catalog) Classes() []Class {
	out := make([]Class, 0, len(c.classes))
	for _, cl := range c.classes {
		out = append(out, cl)
	}
	slices.SortFunc(out, func(a, b Class) int {
		return strings.Compare(a.URI, b.URI)
	})
	return out
}

// Property looks up a property by full URI.
func (c *Catalog) Property(uri string) (Property, bool) {
	i, ok := c.byURI[uri]
	if !ok {
		return Property{}, false
	}
	return c.properties[i], true
}

// Class looks up a class by full URI.
func (c *Catalog) Class(uri string) (Class, bool) {
	cl, ok := c.classes[uri]
	return cl, ok
}

// MatchField resolves a user-typed field name to candidate properties.
//
// Matching is case-insensitive. Properties whose label or local name equals
// name win; only when there are none do substring matches against label
// and URI count. Results are ordered by URI.
func (c *Catalog) MatchField(name string) []Property {
	// Casers are stateful and cannot be shared between goroutines.
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}

	var exact, partial []Property
	for _, p := range c.properties {
		label := folder.String(p.Label)
		local := folder.String(localName(p.URI))
		switch {
		case label == needle || local == needle:
			exact = append(exact, p)
		case strings.Contains(label, needle) || strings.Contains(folder.String(p.URI), needle):
			partial = append(partial, p)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}

// IsSubClassOf reports whether sub is a strict, possibly indirect, subclass
// of super. Cycles in the class graph are tolerated.
func (c *Catalog) IsSubClassOf(sub, super string) bool {
	if sub == super {
		return false
	}
	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cl, ok := c.classes[cur]
		if !ok {
			continue
		}
		for _, parent := range cl.SuperClasses {
			if parent == super {
				return true
			}
			if !seen[parent] {
				seen[parent] = true
				queue = append(queue, parent)
			}
		}
	}
	return false
}

// localName returns the part of uri after the last '#' or '/'.
func localName(uri string) string {
	if i := strings.LastIndexAny(uri, "#/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
