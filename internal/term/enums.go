package term

import "fmt"

// Comparator selects how a Comparison matches its bound value.
type Comparator int

const (
	Contains Comparator = iota
	Regexp
	Equal
	Greater
	Smaller
	GreaterOrEqual
	SmallerOrEqual
)

var comparatorNames = [...]string{
	Contains:       "contains",
	Regexp:         "regexp",
	Equal:          "equal",
	Greater:        "greater",
	Smaller:        "smaller",
	GreaterOrEqual: "greater-or-equal",
	SmallerOrEqual: "smaller-or-equal",
}

func (c Comparator) String() string {
	if c < 0 || int(c) >= len(comparatorNames) {
		return fmt.Sprintf("comparator(%d)", int(c))
	}
	return comparatorNames[c]
}

// Symbol returns the operator used in user query syntax and SPARQL filters.
// Contains and Regexp have no infix operator and return ":" and "~".
func (c Comparator) Symbol() string {
	switch c {
	case Contains:
		return ":"
	case Regexp:
		return "~"
	case Equal:
		return "="
	case Greater:
		return ">"
	case Smaller:
		return "<"
	case GreaterOrEqual:
		return ">="
	case SmallerOrEqual:
		return "<="
	default:
		return "?"
	}
}

// ParseComparator is the inverse of Comparator.String.
func ParseComparator(s string) (Comparator, error) {
	for i, name := range comparatorNames {
		if name == s {
			return Comparator(i), nil
		}
	}
	return Contains, fmt.Errorf("unknown comparator %q", s)
}

// Aggregate wraps a bound value in an aggregate function.
type Aggregate int

const (
	NoAggregate Aggregate = iota
	Count
	DistinctCount
	Max
	Min
	Sum
	DistinctSum
	Average
	DistinctAverage
)

var aggregateNames = [...]string{
	NoAggregate:     "none",
	Count:           "count",
	DistinctCount:   "distinct-count",
	Max:             "max",
	Min:             "min",
	Sum:             "sum",
	DistinctSum:     "distinct-sum",
	Average:         "average",
	DistinctAverage: "distinct-average",
}

func (a Aggregate) String() string {
	if a < 0 || int(a) >= len(aggregateNames) {
		return fmt.Sprintf("aggregate(%d)", int(a))
	}
	return aggregateNames[a]
}

// ParseAggregate is the inverse of Aggregate.String. The empty string
// parses as NoAggregate.
func ParseAggregate(s string) (Aggregate, error) {
	if s == "" {
		return NoAggregate, nil
	}
	for i, name := range aggregateNames {
		if name == s {
			return Aggregate(i), nil
		}
	}
	return NoAggregate, fmt.Errorf("unknown aggregate %q", s)
}

// SortOrder is the direction of an ordering.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "descending"
	}
	return "ascending"
}

// ParseSortOrder is the inverse of SortOrder.String. The empty string
// parses as Ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch s {
	case "", "ascending":
		return Ascending, nil
	case "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort order %q", s)
	}
}
