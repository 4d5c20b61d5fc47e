package userquery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/xsd"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/term"
)

// coerce builds the comparison for one candidate property, converting the
// raw value to the property's range. An unconvertible value yields
// Invalid.
func (s *scan) coerce(p ontology.Property, cmp term.Comparator, v string, quoted bool) term.Term {
	if p.RangeIsResource {
		return term.NewComparison(p.URI, term.Text(s.glob(v, quoted))).WithComparator(cmp)
	}

	switch p.Range {
	case term.DatatypeInteger, xsd.NS + "int", xsd.NS + "long", xsd.NS + "nonNegativeInteger":
		val, ok := parseNumber(v)
		if !ok {
			return term.Invalid{}
		}
		return numeric(p.URI, val, cmp)
	case term.DatatypeDouble, xsd.NS + "float", xsd.NS + "decimal":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return term.Invalid{}
		}
		return numeric(p.URI, quad.Float(f), cmp)
	case term.DatatypeBoolean:
		b, err := strconv.ParseBool(strings.ToLower(v))
		if err != nil {
			return term.Invalid{}
		}
		return numeric(p.URI, quad.Bool(b), cmp)
	case term.DatatypeDateTime, xsd.NS + "date":
		return dateComparison(p.URI, v, cmp)
	default:
		return term.NewComparison(p.URI, term.Text(s.glob(v, quoted))).WithComparator(cmp)
	}
}

// numeric builds a comparison on a non-string value. Contains has no
// meaning there and becomes Equal.
func numeric(property string, v quad.Value, cmp term.Comparator) term.Comparison {
	if cmp == term.Contains {
		cmp = term.Equal
	}
	return term.NewComparison(property, term.Literal{Value: v}).WithComparator(cmp)
}

// parseNumber reads an integer, falling back to a float.
func parseNumber(v string) (quad.Value, bool) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return quad.Int(n), true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return quad.Float(f), true
	}
	return nil, false
}

var dayLayouts = []string{"2006-01-02"}

var instantLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}

// dateComparison reads a year, a day, or an instant. Years and days are
// half-open intervals [start, end) and the comparator is applied to the
// interval as a whole: "> 2020" means from 2021 on.
func dateComparison(property, v string, cmp term.Comparator) term.Term {
	start, end, ok := dateInterval(v)
	if !ok {
		for _, layout := range instantLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return numeric(property, quad.Time(t.UTC()), cmp)
			}
		}
		return term.Invalid{}
	}

	bound := func(t time.Time, c term.Comparator) term.Term {
		return term.NewComparison(property, term.Literal{Value: quad.Time(t)}).WithComparator(c)
	}
	switch cmp {
	case term.Greater:
		return bound(end, term.GreaterOrEqual)
	case term.GreaterOrEqual:
		return bound(start, term.GreaterOrEqual)
	case term.Smaller:
		return bound(start, term.Smaller)
	case term.SmallerOrEqual:
		return bound(end, term.Smaller)
	default:
		return term.And{Terms: []term.Term{
			bound(start, term.GreaterOrEqual),
			bound(end, term.Smaller),
		}}
	}
}

func dateInterval(v string) (start, end time.Time, ok bool) {
	if isYear(v) {
		y, _ := strconv.Atoi(v)
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), true
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, t.AddDate(0, 0, 1), true
		}
	}
	return time.Time{}, time.Time{}, false
}

func isYear(v string) bool {
	if len(v) != 4 {
		return false
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isFilenamePattern(v string) bool {
	return strings.ContainsAny(v, "*?") && strings.Contains(v, ".")
}

// globToRegexp translates a shell glob into an anchored regular
// expression.
func globToRegexp(glob string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// mergeLiterals joins the string literals directly under a top-level And
// into one literal at the position of the first.
func mergeLiterals(t term.Term) term.Term {
	and, ok := t.(term.And)
	if !ok {
		return t
	}
	var words []string
	first := -1
	for i, child := range and.Terms {
		if lit, ok := child.(term.Literal); ok && term.IsString(lit.Value) {
			if first < 0 {
				first = i
			}
			words = append(words, term.StringOf(lit.Value))
		}
	}
	if len(words) < 2 {
		return t
	}

	out := make([]term.Term, 0, len(and.Terms)-len(words)+1)
	for i, child := range and.Terms {
		if i == first {
			out = append(out, term.Text(strings.Join(words, " ")))
			continue
		}
		if lit, ok := child.(term.Literal); ok && term.IsString(lit.Value) {
			continue
		}
		out = append(out, child)
	}
	return term.AndTerms(out...)
}
