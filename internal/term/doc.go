// Package term provides the filter expression tree used by every other
// semquery package.
//
// This package contains the Term sum type and value-level helpers only. It
// imports nothing internal, so the optimizer, the SPARQL compiler and both
// surface encodings can depend on it without cycles.
//
// SEALED INTERFACE:
//
// Term is sealed with an unexported marker method. Only the kinds declared
// here implement it, so consumers switch over them exhaustively:
//
//	switch t := t.(type) {
//	case Literal:
//	case Resource:
//	case ResourceType:
//	case Comparison:
//	case And:
//	case Or:
//	case Negation:
//	case Optional:
//	default:
//	    // Invalid or nil
//	}
//
// VALUE SEMANTICS:
//
// Terms are plain values. Group kinds hold slices which are never written to
// after construction: every combinator in this package allocates a fresh
// slice, so sharing sub-trees between terms is safe.
//
// EQUALITY:
//
// Equal compares kinds and payload recursively. And/Or compare their children
// as ordered lists, so two conjunctions with the same children in different
// order are NOT equal. ResourceType compares its classes as a set. Hash is
// consistent with Equal.
package term
