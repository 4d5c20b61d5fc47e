package term

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Full XSD datatype IRIs of the values a Literal can carry.
const (
	DatatypeString   = xsd.NS + "string"
	DatatypeInteger  = xsd.NS + "integer"
	DatatypeDouble   = xsd.NS + "double"
	DatatypeBoolean  = xsd.NS + "boolean"
	DatatypeDateTime = xsd.NS + "dateTime"
)

// NewLiteral wraps a Go scalar into a Literal term.
//
// Accepted inputs are string, the signed integer kinds, float32/64, bool,
// time.Time and the matching quad values (String, Int, Float, Bool, Time).
// Anything else yields a Literal with a nil value, which is not valid.
func NewLiteral(v any) Literal {
	return Literal{Value: ToValue(v)}
}

// Text is shorthand for a string Literal.
func Text(s string) Literal {
	return Literal{Value: quad.String(s)}
}

// ToValue converts a Go scalar into its quad.Value representation.
// Returns nil for unsupported inputs.
func ToValue(v any) quad.Value {
	switch val := v.(type) {
	case nil:
		return nil
	case quad.String, quad.Int, quad.Float, quad.Bool, quad.Time:
		return val.(quad.Value)
	case string:
		return quad.String(val)
	case int:
		return quad.Int(val)
	case int32:
		return quad.Int(val)
	case int64:
		return quad.Int(val)
	case float32:
		return quad.Float(val)
	case float64:
		return quad.Float(val)
	case bool:
		return quad.Bool(val)
	case time.Time:
		return quad.Time(val)
	default:
		return nil
	}
}

// Datatype returns the full XSD datatype IRI of v, or "" for values that
// carry no datatype (IRIs, blank nodes, nil).
func Datatype(v quad.Value) string {
	switch val := v.(type) {
	case quad.String:
		return DatatypeString
	case quad.Int:
		return DatatypeInteger
	case quad.Float:
		return DatatypeDouble
	case quad.Bool:
		return DatatypeBoolean
	case quad.Time:
		return DatatypeDateTime
	case quad.TypedString:
		return string(val.Type.Full())
	case quad.LangString:
		return DatatypeString
	default:
		return ""
	}
}

// IsString reports whether v is a plain or language-tagged string.
func IsString(v quad.Value) bool {
	switch v.(type) {
	case quad.String, quad.LangString:
		return true
	}
	return false
}

// IsNumeric reports whether v is an integer or floating point value.
func IsNumeric(v quad.Value) bool {
	switch v.(type) {
	case quad.Int, quad.Float:
		return true
	}
	return false
}

// StringOf returns the lexical form of v without quoting or datatype.
func StringOf(v quad.Value) string {
	switch val := v.(type) {
	case nil:
		return ""
	case quad.String:
		return string(val)
	case quad.LangString:
		return string(val.Value)
	case quad.TypedString:
		return string(val.Value)
	case quad.Int:
		return strconv.FormatInt(int64(val), 10)
	case quad.Float:
		return formatFloat(float64(val))
	case quad.Bool:
		return strconv.FormatBool(bool(val))
	case quad.Time:
		return time.Time(val).UTC().Format(time.RFC3339Nano)
	case quad.IRI:
		return string(val.Full())
	default:
		return fmt.Sprint(v.Native())
	}
}

// ParseValue reverses Datatype+StringOf: it builds a value of the given
// XSD datatype from its lexical form. An empty datatype yields a string.
// Only the datatypes Datatype produces for the scalar kinds map to scalar
// values; any other datatype, xsd:int included, stays a TypedString.
func ParseValue(datatype, lexical string) (quad.Value, error) {
	switch datatype {
	case "", DatatypeString:
		return quad.String(lexical), nil
	case DatatypeInteger:
		n, err := strconv.ParseInt(lexical, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", lexical, err)
		}
		return quad.Int(n), nil
	case DatatypeDouble:
		f, err := strconv.ParseFloat(lexical, 64)
		if err != nil {
			return nil, fmt.Errorf("parse double %q: %w", lexical, err)
		}
		return quad.Float(f), nil
	case DatatypeBoolean:
		b, err := strconv.ParseBool(lexical)
		if err != nil {
			return nil, fmt.Errorf("parse boolean %q: %w", lexical, err)
		}
		return quad.Bool(b), nil
	case DatatypeDateTime:
		ts, err := time.Parse(time.RFC3339Nano, lexical)
		if err != nil {
			return nil, fmt.Errorf("parse dateTime %q: %w", lexical, err)
		}
		return quad.Time(ts.UTC()), nil
	default:
		return quad.TypedString{Value: quad.String(lexical), Type: quad.IRI(datatype)}, nil
	}
}

// formatFloat renders f in its shortest round-trippable form, always with a
// decimal point or exponent so it reads back as a double.
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "INF"
	}
	if math.IsInf(f, -1) {
		return "-INF"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}
