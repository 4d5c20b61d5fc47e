package serial

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/cayleygraph/quad"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

// Element names.
const (
	elemQuery           = "query"
	elemFileQuery       = "fileQuery"
	elemRequestProperty = "requestProperty"
	elemIncludeFolder   = "includeFolder"
	elemExcludeFolder   = "excludeFolder"
	elemInvalid         = "invalid"
	elemLiteral         = "literal"
	elemResource        = "resource"
	elemResourceType    = "resourceType"
	elemClass           = "class"
	elemComparison      = "comparison"
	elemAnd             = "and"
	elemOr              = "or"
	elemNegation        = "negation"
	elemOptional        = "optional"
)

// encodingBase64 marks literal text that XML cannot carry verbatim.
const encodingBase64 = "base64"

// ErrUnsupportedValue is returned when a literal holds a value kind the
// XML form cannot read back, such as an IRI or blank node.
var ErrUnsupportedValue = errors.New("unsupported literal value")

// Encoder writes queries and terms to an output stream.
type Encoder struct {
	enc *xml.Encoder
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: xml.NewEncoder(w)}
}

// Indent makes the encoder emit one element per line, each prefixed by
// prefix and indented by indent per nesting level.
func (e *Encoder) Indent(prefix, indent string) {
	e.enc.Indent(prefix, indent)
}

// Encode writes q as a <query> or <fileQuery> document.
func (e *Encoder) Encode(q query.Query) error {
	if err := e.query(q); err != nil {
		return err
	}
	return e.enc.Flush()
}

// EncodeTerm writes a bare term document.
func (e *Encoder) EncodeTerm(t term.Term) error {
	if err := e.term(t); err != nil {
		return err
	}
	return e.enc.Flush()
}

// Marshal returns the compact encoding of q.
func Marshal(q query.Query) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(q); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent is like Marshal with two-space indentation.
func MarshalIndent(q query.Query) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(q); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTerm returns the compact encoding of t.
func MarshalTerm(t term.Term) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeTerm(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) query(q query.Query) error {
	name := elemQuery
	if q.IsFileQuery() {
		name = elemFileQuery
	}

	var attrs []xml.Attr
	if q.Limit != 0 {
		attrs = append(attrs, attr("limit", strconv.Itoa(q.Limit)))
	}
	if q.Offset != 0 {
		attrs = append(attrs, attr("offset", strconv.Itoa(q.Offset)))
	}
	if q.FullTextScoring {
		attrs = append(attrs, attr("fullTextScoring", "true"))
	}
	if q.FullTextSortOrder != term.Ascending {
		attrs = append(attrs, attr("fullTextSortOrder", q.FullTextSortOrder.String()))
	}
	if q.Flags != 0 {
		attrs = append(attrs, attr("flags", q.Flags.String()))
	}
	if q.IsFileQuery() || q.FileMode != query.FileModeBoth {
		attrs = append(attrs, attr("fileMode", q.FileMode.String()))
	}

	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := e.enc.EncodeToken(start); err != nil {
		return err
	}
	for _, rp := range q.RequestProperties {
		a := []xml.Attr{attr("property", rp.Property)}
		if rp.Optional {
			a = append(a, attr("optional", "true"))
		}
		if err := e.empty(elemRequestProperty, a...); err != nil {
			return err
		}
	}
	// Folders are written for plain queries too: they are part of the
	// query's value even while the compiler ignores them.
	for _, url := range q.IncludeFolders {
		if err := e.empty(elemIncludeFolder, attr("url", url)); err != nil {
			return err
		}
	}
	for _, url := range q.ExcludeFolders {
		if err := e.empty(elemExcludeFolder, attr("url", url)); err != nil {
			return err
		}
	}
	if err := e.term(q.Term); err != nil {
		return err
	}
	return e.enc.EncodeToken(start.End())
}

func (e *Encoder) term(t term.Term) error {
	switch t := t.(type) {
	case term.Literal:
		if t.Value == nil {
			return e.empty(elemInvalid)
		}
		attrs := []xml.Attr{attr("datatype", term.Datatype(t.Value))}
		switch v := t.Value.(type) {
		case quad.LangString:
			attrs = append(attrs, attr("lang", v.Lang))
		case quad.TypedString:
			// Kept typed on read even when the datatype names a scalar kind.
			attrs[0] = attr("datatype", string(v.Type))
			attrs = append(attrs, attr("typed", "true"))
		case quad.String, quad.Int, quad.Float, quad.Bool, quad.Time:
		default:
			return fmt.Errorf("%w: %T", ErrUnsupportedValue, t.Value)
		}
		text := term.StringOf(t.Value)
		if !isXMLText(text) {
			attrs = append(attrs, attr("encoding", encodingBase64))
			text = base64.StdEncoding.EncodeToString([]byte(text))
		}
		return e.text(elemLiteral, text, attrs...)

	case term.Resource:
		return e.empty(elemResource, attr("uri", t.URI))

	case term.ResourceType:
		return e.wrap(elemResourceType, nil, func() error {
			for _, uri := range t.Types {
				if err := e.empty(elemClass, attr("uri", uri)); err != nil {
					return err
				}
			}
			return nil
		})

	case term.Comparison:
		var attrs []xml.Attr
		if t.Property != "" {
			attrs = append(attrs, attr("property", t.Property))
		}
		attrs = append(attrs, attr("comparator", t.Comparator.String()))
		if t.Variable != "" {
			attrs = append(attrs, attr("variable", t.Variable))
		}
		if t.Aggregate != term.NoAggregate {
			attrs = append(attrs, attr("aggregate", t.Aggregate.String()))
		}
		if t.SortWeight != 0 {
			attrs = append(attrs, attr("sortWeight", strconv.Itoa(t.SortWeight)))
		}
		if t.SortOrder != term.Ascending {
			attrs = append(attrs, attr("sortOrder", t.SortOrder.String()))
		}
		if t.Inverted {
			attrs = append(attrs, attr("inverted", "true"))
		}
		return e.wrap(elemComparison, attrs, func() error {
			if t.Sub == nil {
				return nil
			}
			return e.term(t.Sub)
		})

	case term.And:
		return e.group(elemAnd, t.Terms)
	case term.Or:
		return e.group(elemOr, t.Terms)
	case term.Negation:
		return e.wrap(elemNegation, nil, func() error { return e.term(t.Sub) })
	case term.Optional:
		return e.wrap(elemOptional, nil, func() error { return e.term(t.Sub) })
	default:
		return e.empty(elemInvalid)
	}
}

func (e *Encoder) group(name string, terms []term.Term) error {
	return e.wrap(name, nil, func() error {
		for _, t := range terms {
			if err := e.term(t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Encoder) wrap(name string, attrs []xml.Attr, body func() error) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := e.enc.EncodeToken(start); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return e.enc.EncodeToken(start.End())
}

func (e *Encoder) empty(name string, attrs ...xml.Attr) error {
	return e.wrap(name, attrs, func() error { return nil })
}

func (e *Encoder) text(name, text string, attrs ...xml.Attr) error {
	return e.wrap(name, attrs, func() error {
		if text == "" {
			return nil
		}
		return e.enc.EncodeToken(xml.CharData(text))
	})
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// isXMLText reports whether s is valid UTF-8 made only of characters an
// XML 1.0 document can hold.
func isXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == 0x09 || r == 0x0A || r == 0x0D:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
