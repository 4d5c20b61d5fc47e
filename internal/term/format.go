package term

import (
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
)

// String renders t as a compact single-line expression for logs and CLI
// output. It is not a parseable format; see the serial package for that.
func String(t Term) string {
	var b strings.Builder
	writeTerm(&b, t)
	return b.String()
}

func writeTerm(b *strings.Builder, t Term) {
	switch t := t.(type) {
	case Literal:
		writeValue(b, t.Value)
	case Resource:
		b.WriteString("<" + t.URI + ">")
	case ResourceType:
		b.WriteString("type(")
		for i, uri := range t.Types {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("<" + uri + ">")
		}
		b.WriteString(")")
	case Comparison:
		writeComparison(b, t)
	case And:
		writeGroup(b, "AND", t.Terms)
	case Or:
		writeGroup(b, "OR", t.Terms)
	case Negation:
		writeGroup(b, "NOT", []Term{t.Sub})
	case Optional:
		writeGroup(b, "OPTIONAL", []Term{t.Sub})
	default:
		b.WriteString("<invalid>")
	}
}

func writeComparison(b *strings.Builder, c Comparison) {
	b.WriteString("(")
	if c.Property == "" {
		b.WriteString("*")
	} else {
		b.WriteString("<" + c.Property + ">")
	}
	b.WriteString(" " + c.Comparator.String() + " ")
	if IsValid(c.Sub) {
		writeTerm(b, c.Sub)
	} else {
		b.WriteString("*")
	}
	if c.Variable != "" {
		b.WriteString(" as ?" + c.Variable)
	}
	if c.Aggregate != NoAggregate {
		b.WriteString(" [" + c.Aggregate.String() + "]")
	}
	if c.SortWeight != 0 {
		b.WriteString(" sort=" + strconv.Itoa(c.SortWeight))
		if c.SortOrder == Descending {
			b.WriteString(" desc")
		}
	}
	if c.Inverted {
		b.WriteString(" inverted")
	}
	b.WriteString(")")
}

func writeGroup(b *strings.Builder, name string, terms []Term) {
	b.WriteString(name + "(")
	for i, t := range terms {
		if i > 0 {
			b.WriteString(", ")
		}
		writeTerm(b, t)
	}
	b.WriteString(")")
}

func writeValue(b *strings.Builder, v quad.Value) {
	switch v.(type) {
	case nil:
		b.WriteString("<nil>")
	case quad.String, quad.LangString:
		b.WriteString(strconv.Quote(StringOf(v)))
	default:
		b.WriteString(StringOf(v))
	}
}
