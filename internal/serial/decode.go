package serial

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

var (
	// ErrUnknownElement is returned for an element name the format does
	// not define at that position.
	ErrUnknownElement = errors.New("unknown element")

	// ErrMalformed is returned for structurally broken input: bad
	// attribute values, missing attributes, stray text, wrong child count.
	ErrMalformed = errors.New("malformed document")
)

// Decoder reads queries and terms from an input stream.
type Decoder struct {
	dec *xml.Decoder
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: xml.NewDecoder(r)}
}

// Decode reads one <query> or <fileQuery> document. On failure the
// returned query is Invalid.
func (d *Decoder) Decode() (query.Query, error) {
	start, err := d.root()
	if err != nil {
		return invalidQuery(), err
	}
	q, err := d.query(start)
	if err != nil {
		return invalidQuery(), err
	}
	return q, nil
}

// DecodeTerm reads one bare term document. On failure the returned term
// is Invalid.
func (d *Decoder) DecodeTerm() (term.Term, error) {
	start, err := d.root()
	if err != nil {
		return term.Invalid{}, err
	}
	t, err := d.term(start)
	if err != nil {
		return term.Invalid{}, err
	}
	return t, nil
}

// Unmarshal decodes a query document.
func Unmarshal(data []byte) (query.Query, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}

// UnmarshalTerm decodes a term document.
func UnmarshalTerm(data []byte) (term.Term, error) {
	return NewDecoder(bytes.NewReader(data)).DecodeTerm()
}

func invalidQuery() query.Query {
	return query.New(term.Invalid{})
}

// next returns the next significant token, skipping comments, processing
// instructions, directives and whitespace.
func (d *Decoder) next() (xml.Token, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch tok := tok.(type) {
		case xml.StartElement, xml.EndElement:
			return tok, nil
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) == 0 {
				continue
			}
			return nil, d.malformed("unexpected text %q", string(tok))
		}
	}
}

func (d *Decoder) root() (xml.StartElement, error) {
	tok, err := d.next()
	if err != nil {
		return xml.StartElement{}, err
	}
	start, ok := tok.(xml.StartElement)
	if !ok {
		return xml.StartElement{}, d.malformed("expected an element")
	}
	return start, nil
}

// children calls fn for each child element until the end tag of the
// current element.
func (d *Decoder) children(fn func(xml.StartElement) error) error {
	for {
		tok, err := d.next()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := fn(tok); err != nil {
				return err
			}
		}
	}
}

// childTerms decodes every child of the current element as a term.
func (d *Decoder) childTerms() ([]term.Term, error) {
	var terms []term.Term
	err := d.children(func(start xml.StartElement) error {
		t, err := d.term(start)
		if err != nil {
			return err
		}
		terms = append(terms, t)
		return nil
	})
	return terms, err
}

func (d *Decoder) query(start xml.StartElement) (query.Query, error) {
	var q query.Query
	switch start.Name.Local {
	case elemQuery:
	case elemFileQuery:
		q.AsFileQuery()
	default:
		return q, d.unknown(start)
	}

	var err error
	if q.Limit, err = intAttr(start, "limit"); err != nil {
		return q, d.wrap(err)
	}
	if q.Offset, err = intAttr(start, "offset"); err != nil {
		return q, d.wrap(err)
	}
	if q.FullTextScoring, err = boolAttr(start, "fullTextScoring"); err != nil {
		return q, d.wrap(err)
	}
	if q.FullTextSortOrder, err = term.ParseSortOrder(attrValue(start, "fullTextSortOrder")); err != nil {
		return q, d.wrap(err)
	}
	if q.Flags, err = query.ParseFlags(attrValue(start, "flags")); err != nil {
		return q, d.wrap(err)
	}
	if q.FileMode, err = query.ParseFileMode(attrValue(start, "fileMode")); err != nil {
		return q, d.wrap(err)
	}

	haveTerm := false
	err = d.children(func(child xml.StartElement) error {
		switch child.Name.Local {
		case elemRequestProperty:
			// An empty property is a wildcard request.
			property, ok := lookupAttr(child, "property")
			if !ok {
				return d.malformed("<%s> requires attribute %q", child.Name.Local, "property")
			}
			optional, err := boolAttr(child, "optional")
			if err != nil {
				return d.wrap(err)
			}
			q.AddRequestProperty(property, optional)
			return d.end()
		case elemIncludeFolder, elemExcludeFolder:
			url, err := requiredAttr(child, "url")
			if err != nil {
				return d.wrap(err)
			}
			if child.Name.Local == elemIncludeFolder {
				q.IncludeFolders = append(q.IncludeFolders, url)
			} else {
				q.ExcludeFolders = append(q.ExcludeFolders, url)
			}
			return d.end()
		}

		if haveTerm {
			return d.malformed("<%s> holds more than one term", start.Name.Local)
		}
		t, err := d.term(child)
		if err != nil {
			return err
		}
		q.Term = t
		haveTerm = true
		return nil
	})
	if err != nil {
		return q, err
	}
	if !haveTerm {
		q.Term = term.Invalid{}
	}
	return q, nil
}

func (d *Decoder) term(start xml.StartElement) (term.Term, error) {
	switch start.Name.Local {
	case elemInvalid:
		return term.Invalid{}, d.end()

	case elemLiteral:
		return d.literal(start)

	case elemResource:
		uri, err := requiredAttr(start, "uri")
		if err != nil {
			return nil, d.wrap(err)
		}
		return term.Resource{URI: uri}, d.end()

	case elemResourceType:
		var types []string
		err := d.children(func(child xml.StartElement) error {
			if child.Name.Local != elemClass {
				return d.unknown(child)
			}
			uri, err := requiredAttr(child, "uri")
			if err != nil {
				return d.wrap(err)
			}
			types = append(types, uri)
			return d.end()
		})
		if err != nil {
			return nil, err
		}
		return term.ResourceType{Types: types}, nil

	case elemComparison:
		return d.comparison(start)

	case elemAnd, elemOr:
		terms, err := d.childTerms()
		if err != nil {
			return nil, err
		}
		if start.Name.Local == elemAnd {
			return term.And{Terms: terms}, nil
		}
		return term.Or{Terms: terms}, nil

	case elemNegation, elemOptional:
		terms, err := d.childTerms()
		if err != nil {
			return nil, err
		}
		if len(terms) != 1 {
			return nil, d.malformed("<%s> needs exactly one child, got %d", start.Name.Local, len(terms))
		}
		if start.Name.Local == elemNegation {
			return term.Negation{Sub: terms[0]}, nil
		}
		return term.Optional{Sub: terms[0]}, nil

	default:
		return nil, d.unknown(start)
	}
}

func (d *Decoder) literal(start xml.StartElement) (term.Term, error) {
	var text strings.Builder
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch tok := tok.(type) {
		case xml.CharData:
			text.Write(tok)
		case xml.StartElement:
			return nil, d.malformed("<%s> inside <literal>", tok.Name.Local)
		case xml.EndElement:
			lexical := text.String()
			switch enc := attrValue(start, "encoding"); enc {
			case "":
			case encodingBase64:
				raw, err := base64.StdEncoding.DecodeString(lexical)
				if err != nil {
					return nil, d.wrap(err)
				}
				lexical = string(raw)
			default:
				return nil, d.malformed("unknown literal encoding %q", enc)
			}
			if lang := attrValue(start, "lang"); lang != "" {
				return term.Literal{Value: quad.LangString{Value: quad.String(lexical), Lang: lang}}, nil
			}
			typed, err := boolAttr(start, "typed")
			if err != nil {
				return nil, d.wrap(err)
			}
			if typed {
				return term.Literal{Value: quad.TypedString{
					Value: quad.String(lexical),
					Type:  quad.IRI(attrValue(start, "datatype")),
				}}, nil
			}
			v, err := term.ParseValue(attrValue(start, "datatype"), lexical)
			if err != nil {
				return nil, d.wrap(err)
			}
			return term.Literal{Value: v}, nil
		}
	}
}

func (d *Decoder) comparison(start xml.StartElement) (term.Term, error) {
	c := term.Comparison{Property: attrValue(start, "property")}

	var err error
	if v := attrValue(start, "comparator"); v != "" {
		if c.Comparator, err = term.ParseComparator(v); err != nil {
			return nil, d.wrap(err)
		}
	}
	c.Variable = attrValue(start, "variable")
	if c.Aggregate, err = term.ParseAggregate(attrValue(start, "aggregate")); err != nil {
		return nil, d.wrap(err)
	}
	if c.SortWeight, err = intAttr(start, "sortWeight"); err != nil {
		return nil, d.wrap(err)
	}
	if c.SortOrder, err = term.ParseSortOrder(attrValue(start, "sortOrder")); err != nil {
		return nil, d.wrap(err)
	}
	if c.Inverted, err = boolAttr(start, "inverted"); err != nil {
		return nil, d.wrap(err)
	}

	terms, err := d.childTerms()
	if err != nil {
		return nil, err
	}
	switch len(terms) {
	case 0:
	case 1:
		c.Sub = terms[0]
	default:
		return nil, d.malformed("<comparison> holds %d terms", len(terms))
	}
	return c, nil
}

// end consumes the end tag of an element that must be empty.
func (d *Decoder) end() error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	if start, ok := tok.(xml.StartElement); ok {
		return d.malformed("unexpected child <%s>", start.Name.Local)
	}
	return nil
}

func (d *Decoder) unknown(start xml.StartElement) error {
	return fmt.Errorf("%w: <%s> at offset %d", ErrUnknownElement, start.Name.Local, d.dec.InputOffset())
}

func (d *Decoder) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformed, fmt.Sprintf(format, args...), d.dec.InputOffset())
}

func (d *Decoder) wrap(err error) error {
	return fmt.Errorf("%w: %v at offset %d", ErrMalformed, err, d.dec.InputOffset())
}

func attrValue(start xml.StartElement, name string) string {
	v, _ := lookupAttr(start, name)
	return v
}

func lookupAttr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func requiredAttr(start xml.StartElement, name string) (string, error) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			if a.Value == "" {
				break
			}
			return a.Value, nil
		}
	}
	return "", fmt.Errorf("<%s> requires attribute %q", start.Name.Local, name)
}

func intAttr(start xml.StartElement, name string) (int, error) {
	v := attrValue(start, name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	return n, nil
}

func boolAttr(start xml.StartElement, name string) (bool, error) {
	v := attrValue(start, name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("attribute %s: %w", name, err)
	}
	return b, nil
}
