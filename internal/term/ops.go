package term

// AndTerms combines terms into a conjunction. And operands are spliced in
// place, invalid operands are dropped, and a single survivor is returned
// unwrapped. With no valid operand the result is Invalid.
func AndTerms(terms ...Term) Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if !IsValid(t) {
			continue
		}
		if a, ok := t.(And); ok {
			out = append(out, a.Terms...)
			continue
		}
		out = append(out, t)
	}
	return collapse(out, func(ts []Term) Term { return And{Terms: ts} })
}

// OrTerms is the disjunctive counterpart of AndTerms.
func OrTerms(terms ...Term) Term {
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		if !IsValid(t) {
			continue
		}
		if o, ok := t.(Or); ok {
			out = append(out, o.Terms...)
			continue
		}
		out = append(out, t)
	}
	return collapse(out, func(ts []Term) Term { return Or{Terms: ts} })
}

func collapse(terms []Term, wrap func([]Term) Term) Term {
	switch len(terms) {
	case 0:
		return Invalid{}
	case 1:
		return terms[0]
	default:
		return wrap(terms)
	}
}

// Negate wraps t in a Negation, or unwraps it if t already is one.
func Negate(t Term) Term {
	if n, ok := t.(Negation); ok {
		return n.Sub
	}
	return Negation{Sub: t}
}

// MakeOptional wraps t in an Optional unless it already is one.
func MakeOptional(t Term) Term {
	if _, ok := t.(Optional); ok {
		return t
	}
	return Optional{Sub: t}
}

// Children returns the direct sub-terms of t in order.
// The returned slice must not be modified.
func Children(t Term) []Term {
	switch t := t.(type) {
	case And:
		return t.Terms
	case Or:
		return t.Terms
	case Negation:
		return []Term{t.Sub}
	case Optional:
		return []Term{t.Sub}
	case Comparison:
		if t.Sub == nil {
			return nil
		}
		return []Term{t.Sub}
	default:
		return nil
	}
}

// Walk visits t and every descendant depth-first, parent before children.
// Returning false from fn skips the children of the current node.
func Walk(t Term, fn func(Term) bool) {
	if !fn(t) {
		return
	}
	for _, c := range Children(t) {
		Walk(c, fn)
	}
}

// NewComparison builds a Contains comparison on property.
func NewComparison(property string, sub Term) Comparison {
	return Comparison{Property: property, Sub: sub, Comparator: Contains}
}

// WithComparator returns a copy of c using comparator cmp.
func (c Comparison) WithComparator(cmp Comparator) Comparison {
	c.Comparator = cmp
	return c
}

// WithVariable returns a copy of c whose bound value surfaces as name.
func (c Comparison) WithVariable(name string) Comparison {
	c.Variable = name
	return c
}

// WithAggregate returns a copy of c with aggregate a.
func (c Comparison) WithAggregate(a Aggregate) Comparison {
	c.Aggregate = a
	return c
}

// WithSort returns a copy of c ordered by its bound value.
func (c Comparison) WithSort(weight int, order SortOrder) Comparison {
	c.SortWeight = weight
	c.SortOrder = order
	return c
}

// WithInverted returns a copy of c with subject and object swapped.
func (c Comparison) WithInverted(inverted bool) Comparison {
	c.Inverted = inverted
	return c
}

// NewResourceType builds a ResourceType over the given classes.
func NewResourceType(types ...string) ResourceType {
	return ResourceType{Types: append([]string(nil), types...)}
}
