package term

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Object converts t into a JSON-ready tree of map[string]any, []any, string,
// int64 and bool. Literal values are carried as datatype plus lexical form
// so the result never contains floats.
func Object(t Term) map[string]any {
	obj := map[string]any{"kind": KindOf(t).String()}
	switch t := t.(type) {
	case Literal:
		obj["datatype"] = Datatype(t.Value)
		obj["lexical"] = StringOf(t.Value)
	case Resource:
		obj["uri"] = t.URI
	case ResourceType:
		types := make([]any, 0, len(t.Types))
		for _, uri := range sortedUnique(t.Types) {
			types = append(types, uri)
		}
		obj["types"] = types
	case Comparison:
		obj["property"] = t.Property
		obj["comparator"] = t.Comparator.String()
		obj["variable"] = t.Variable
		obj["aggregate"] = t.Aggregate.String()
		obj["sortWeight"] = int64(t.SortWeight)
		obj["sortOrder"] = t.SortOrder.String()
		obj["inverted"] = t.Inverted
		obj["sub"] = Object(t.Sub)
	case And:
		obj["terms"] = objects(t.Terms)
	case Or:
		obj["terms"] = objects(t.Terms)
	case Negation:
		obj["sub"] = Object(t.Sub)
	case Optional:
		obj["sub"] = Object(t.Sub)
	}
	return obj
}

func objects(terms []Term) []any {
	out := make([]any, len(terms))
	for i, t := range terms {
		out[i] = Object(t)
	}
	return out
}

// MarshalCanonical produces RFC 8785 canonical JSON of v, which must be
// built from the types Object returns.
//
// Object keys are sorted by UTF-16 code units, strings are NFC normalized,
// HTML characters are not escaped. Floats and null are rejected.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		writeCanonicalString(buf, val)
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareUTF16)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, k)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("object[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString escapes only quote, backslash and control
// characters. U+2028/U+2029 and <, >, & are written verbatim.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"
	buf.WriteByte('"')
	for _, r := range norm.NFC.String(s) {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hex[r>>4])
				buf.WriteByte(hex[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

// compareUTF16 orders strings by UTF-16 code units, which differs from Go's
// byte-wise order for characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
