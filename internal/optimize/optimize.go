// Package optimize rewrites term trees into simpler equivalent trees.
//
// Term performs structural flattening and is idempotent. EvenMore performs
// domain tightening for the SPARQL compiler and is applied exactly once, at
// the compile boundary.
package optimize

import (
	"slices"

	"github.com/roach88/semquery/internal/term"
)

// Term flattens t:
//   - invalid children of And/Or are dropped
//   - nested groups of the same kind are spliced into their parent
//   - single-child groups collapse to the child, empty groups to Invalid
//   - stacked negations reduce to their parity
//   - stacked optionals reduce to one layer
//   - comparisons keep their shape, only their sub-term is optimized
//
// Term never fails. An input with nothing valid in it yields term.Invalid.
func Term(t term.Term) term.Term {
	switch t := t.(type) {
	case term.And:
		return group(t.Terms, term.KindAnd)
	case term.Or:
		return group(t.Terms, term.KindOr)
	case term.Negation:
		sub := Term(t.Sub)
		if !term.IsValid(sub) {
			return term.Invalid{}
		}
		if inner, ok := sub.(term.Negation); ok {
			// sub is already optimized, so its own Sub is not a Negation.
			return inner.Sub
		}
		return term.Negation{Sub: sub}
	case term.Optional:
		sub := Term(t.Sub)
		if !term.IsValid(sub) {
			return term.Invalid{}
		}
		if _, ok := sub.(term.Optional); ok {
			return sub
		}
		return term.Optional{Sub: sub}
	case term.Comparison:
		if t.Sub != nil {
			t.Sub = Term(t.Sub)
		}
		return t
	case nil:
		return term.Invalid{}
	default:
		return t
	}
}

func group(children []term.Term, kind term.Kind) term.Term {
	out := make([]term.Term, 0, len(children))
	for _, c := range children {
		oc := Term(c)
		if !term.IsValid(oc) {
			continue
		}
		if term.KindOf(oc) == kind {
			out = append(out, term.Children(oc)...)
			continue
		}
		out = append(out, oc)
	}

	switch len(out) {
	case 0:
		return term.Invalid{}
	case 1:
		return out[0]
	}
	if kind == term.KindAnd {
		return term.And{Terms: out}
	}
	return term.Or{Terms: out}
}

// EvenMore tightens an already optimized tree for compilation:
//   - inside an Or, all direct ResourceType children merge into one
//     ResourceType placed where the first one stood
//   - inside an And, comparisons that bind a named variable move to the
//     front, keeping relative order otherwise
//
// The rewrite recurses through Negation, Optional and comparison sub-terms.
// The And reordering is what lets the compiler reuse the named variable for
// later comparisons on the same edge.
func EvenMore(t term.Term) term.Term {
	switch t := t.(type) {
	case term.And:
		children := evenMoreAll(t.Terms)
		named := make([]term.Term, 0, len(children))
		rest := make([]term.Term, 0, len(children))
		for _, c := range children {
			if cmp, ok := c.(term.Comparison); ok && cmp.Variable != "" {
				named = append(named, c)
			} else {
				rest = append(rest, c)
			}
		}
		return term.And{Terms: append(named, rest...)}
	case term.Or:
		children := evenMoreAll(t.Terms)
		out := make([]term.Term, 0, len(children))
		typeIdx := -1
		for _, c := range children {
			rt, ok := c.(term.ResourceType)
			if !ok {
				out = append(out, c)
				continue
			}
			if typeIdx < 0 {
				typeIdx = len(out)
				out = append(out, term.NewResourceType(rt.Types...))
				continue
			}
			merged := out[typeIdx].(term.ResourceType)
			for _, uri := range rt.Types {
				if !slices.Contains(merged.Types, uri) {
					merged.Types = append(merged.Types, uri)
				}
			}
			out[typeIdx] = merged
		}
		if len(out) == 1 {
			return out[0]
		}
		return term.Or{Terms: out}
	case term.Negation:
		return term.Negation{Sub: EvenMore(t.Sub)}
	case term.Optional:
		return term.Optional{Sub: EvenMore(t.Sub)}
	case term.Comparison:
		if term.IsValid(t.Sub) {
			t.Sub = EvenMore(t.Sub)
		}
		return t
	default:
		return t
	}
}

func evenMoreAll(terms []term.Term) []term.Term {
	out := make([]term.Term, len(terms))
	for i, c := range terms {
		out[i] = EvenMore(c)
	}
	return out
}
