package term

import "github.com/cayleygraph/quad"

// Term is one node of a filter expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Term interface {
	termNode() // Marker method - seals interface to this package
}

// Kind identifies the variant of a Term.
type Kind int

const (
	KindInvalid Kind = iota
	KindLiteral
	KindResource
	KindResourceType
	KindComparison
	KindAnd
	KindOr
	KindNegation
	KindOptional
)

var kindNames = [...]string{
	KindInvalid:      "invalid",
	KindLiteral:      "literal",
	KindResource:     "resource",
	KindResourceType: "resourceType",
	KindComparison:   "comparison",
	KindAnd:          "and",
	KindOr:           "or",
	KindNegation:     "negation",
	KindOptional:     "optional",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// KindOf returns the variant tag of t. A nil term is KindInvalid.
func KindOf(t Term) Kind {
	switch t.(type) {
	case Literal:
		return KindLiteral
	case Resource:
		return KindResource
	case ResourceType:
		return KindResourceType
	case Comparison:
		return KindComparison
	case And:
		return KindAnd
	case Or:
		return KindOr
	case Negation:
		return KindNegation
	case Optional:
		return KindOptional
	default:
		return KindInvalid
	}
}

// Invalid is the canonical term that matches nothing.
// A nil Term is treated exactly like Invalid everywhere.
type Invalid struct{}

func (Invalid) termNode() {}

// Literal is a typed scalar. Used on its own it is a full-text search over
// every property of the subject.
type Literal struct {
	Value quad.Value
}

func (Literal) termNode() {}

// Resource references exactly one known entity.
type Resource struct {
	URI string
}

func (Resource) termNode() {}

// ResourceType matches entities whose type is one of Types or a subclass
// thereof. Types behaves as a set.
type ResourceType struct {
	Types []string
}

func (ResourceType) termNode() {}

// Comparison matches entities whose value of Property satisfies Sub under
// Comparator. An empty Property matches any property; a nil or invalid Sub
// matches any value.
type Comparison struct {
	Property   string
	Sub        Term
	Comparator Comparator

	// Variable forces the bound value to appear in the result set under
	// this name.
	Variable string

	// Aggregate wraps the bound value in an aggregate function in the
	// projection.
	Aggregate Aggregate

	// SortWeight orders results by the bound value when non-zero. Higher
	// weights sort first.
	SortWeight int
	SortOrder  SortOrder

	// Inverted swaps subject and object of the generated edge.
	Inverted bool
}

func (Comparison) termNode() {}

// And matches when all of Terms match.
type And struct {
	Terms []Term
}

func (And) termNode() {}

// Or matches when any of Terms matches.
type Or struct {
	Terms []Term
}

func (Or) termNode() {}

// Negation matches when Sub does not.
type Negation struct {
	Sub Term
}

func (Negation) termNode() {}

// Optional matches Sub where possible without restricting the result.
type Optional struct {
	Sub Term
}

func (Optional) termNode() {}

// IsValid reports whether t can match anything.
//
// Groups are valid iff non-empty and every child is valid. A Comparison is
// always valid, with or without a property.
func IsValid(t Term) bool {
	switch t := t.(type) {
	case Literal:
		return t.Value != nil
	case Resource:
		return t.URI != ""
	case ResourceType:
		return len(t.Types) > 0
	case Comparison:
		return true
	case And:
		return groupValid(t.Terms)
	case Or:
		return groupValid(t.Terms)
	case Negation:
		return IsValid(t.Sub)
	case Optional:
		return IsValid(t.Sub)
	default:
		return false
	}
}

func groupValid(terms []Term) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if !IsValid(t) {
			return false
		}
	}
	return true
}
