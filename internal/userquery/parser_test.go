package userquery

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/term"
	"github.com/roach88/semquery/internal/testutil"
)

const ns = "urn:test#"

var (
	titleProp   = ontology.Property{URI: ns + "title", Label: "title", Range: term.DatatypeString}
	nameProp    = ontology.Property{URI: ns + "name", Label: "name", Range: term.DatatypeString}
	sizeProp    = ontology.Property{URI: ns + "size", Label: "size", Range: term.DatatypeInteger}
	ratingProp  = ontology.Property{URI: ns + "rating", Label: "rating", Range: term.DatatypeDouble}
	favProp     = ontology.Property{URI: ns + "favourite", Label: "favourite", Range: term.DatatypeBoolean}
	createdProp = ontology.Property{URI: ns + "created", Label: "created", Range: term.DatatypeDateTime}
	authorProp  = ontology.Property{URI: ns + "author", Label: "author", RangeIsResource: true, Range: ns + "Person"}
	noteProp    = ontology.Property{URI: ns + "note", Label: "note"}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFields() *testutil.StubFields {
	return testutil.NewStubFields().
		Set("title", titleProp).
		Set("name", nameProp).
		Set("size", sizeProp).
		Set("rating", ratingProp).
		Set("favourite", favProp).
		Set("created", createdProp).
		Set("author", authorProp).
		Set("any", titleProp, nameProp).
		Set("many", titleProp, nameProp, noteProp)
}

func newTestParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	p, err := NewParser(testFields(), opts...)
	require.NoError(t, err)
	return p
}

func assertTerm(t *testing.T, want, got term.Term) {
	t.Helper()
	assert.True(t, term.Equal(want, got), "want %s\n got %s", term.String(want), term.String(got))
}

func cmp(p ontology.Property, sub term.Term, c term.Comparator) term.Comparison {
	return term.NewComparison(p.URI, sub).WithComparator(c)
}

func instant(y int, m time.Month, d int) term.Literal {
	return term.Literal{Value: quad.Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))}
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  term.Term
	}{
		{
			name:  "bare words",
			input: "Hello World",
			want:  term.And{Terms: []term.Term{term.Text("Hello"), term.Text("World")}},
		},
		{
			name:  "single quoted phrase",
			input: "'Hello World'",
			want:  term.Text("Hello World"),
		},
		{
			name:  "double quoted phrase",
			input: `"Hello World"`,
			want:  term.Text("Hello World"),
		},
		{
			name:  "mismatched quotes",
			input: `"it's"`,
			want:  term.Text("it's"),
		},
		{
			name:  "contains",
			input: "title:report",
			want:  cmp(titleProp, term.Text("report"), term.Contains),
		},
		{
			name:  "quoted value",
			input: `title:"annual report"`,
			want:  cmp(titleProp, term.Text("annual report"), term.Contains),
		},
		{
			name:  "negation with minus",
			input: "-title:draft",
			want:  term.Negation{Sub: cmp(titleProp, term.Text("draft"), term.Contains)},
		},
		{
			name:  "negation with bang",
			input: "!title:draft",
			want:  term.Negation{Sub: cmp(titleProp, term.Text("draft"), term.Contains)},
		},
		{
			name:  "negation with not",
			input: "NOT title:draft",
			want:  term.Negation{Sub: cmp(titleProp, term.Text("draft"), term.Contains)},
		},
		{
			name:  "plus is no-op",
			input: "+title:draft",
			want:  cmp(titleProp, term.Text("draft"), term.Contains),
		},
		{
			name:  "negated literal",
			input: "-draft",
			want:  term.Negation{Sub: term.Text("draft")},
		},
		{
			name:  "integer greater or equal",
			input: "size>=1000",
			want:  cmp(sizeProp, term.NewLiteral(1000), term.GreaterOrEqual),
		},
		{
			name:  "integer contains becomes equal",
			input: "size:1000",
			want:  cmp(sizeProp, term.NewLiteral(1000), term.Equal),
		},
		{
			name:  "double",
			input: "rating > 4.5",
			want:  cmp(ratingProp, term.NewLiteral(4.5), term.Greater),
		},
		{
			name:  "boolean",
			input: "favourite:TRUE",
			want:  cmp(favProp, term.NewLiteral(true), term.Equal),
		},
		{
			name:  "year",
			input: "created:2020",
			want: term.And{Terms: []term.Term{
				cmp(createdProp, instant(2020, time.January, 1), term.GreaterOrEqual),
				cmp(createdProp, instant(2021, time.January, 1), term.Smaller),
			}},
		},
		{
			name:  "after year",
			input: "created>2020",
			want:  cmp(createdProp, instant(2021, time.January, 1), term.GreaterOrEqual),
		},
		{
			name:  "before year",
			input: "created<2020",
			want:  cmp(createdProp, instant(2020, time.January, 1), term.Smaller),
		},
		{
			name:  "up to day",
			input: "created<=2020-03-05",
			want:  cmp(createdProp, instant(2020, time.March, 6), term.Smaller),
		},
		{
			name:  "instant",
			input: "created=2020-03-05T10:00:00Z",
			want: cmp(createdProp,
				term.Literal{Value: quad.Time(time.Date(2020, time.March, 5, 10, 0, 0, 0, time.UTC))},
				term.Equal),
		},
		{
			name:  "resource range keeps text",
			input: "author:anna",
			want:  cmp(authorProp, term.Text("anna"), term.Contains),
		},
		{
			name:  "nested comparison",
			input: "author:(name:anna)",
			want:  term.NewComparison(authorProp.URI, cmp(nameProp, term.Text("anna"), term.Contains)),
		},
		{
			name:  "resource comparison",
			input: "author:<urn:person:1>",
			want:  cmp(authorProp, term.Resource{URI: "urn:person:1"}, term.Equal),
		},
		{
			name:  "qualified property resource comparison",
			input: "<urn:test#author>=<urn:person:1>",
			want:  term.NewComparison(ns+"author", term.Resource{URI: "urn:person:1"}).WithComparator(term.Equal),
		},
		{
			name:  "qualified property contains",
			input: "<urn:test#title>:report",
			want:  term.NewComparison(ns+"title", term.Text("report")),
		},
		{
			name:  "qualified property guesses number",
			input: "<urn:test#size> > 10",
			want:  term.NewComparison(ns+"size", term.NewLiteral(10)).WithComparator(term.Greater),
		},
		{
			name:  "multiple candidates",
			input: "any:foo",
			want: term.Or{Terms: []term.Term{
				cmp(titleProp, term.Text("foo"), term.Contains),
				cmp(nameProp, term.Text("foo"), term.Contains),
			}},
		},
		{
			name:  "or keyword",
			input: "a OR b",
			want:  term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
		},
		{
			name:  "or keyword is case-insensitive",
			input: "a or b c",
			want: term.And{Terms: []term.Term{
				term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
				term.Text("c"),
			}},
		},
		{
			name:  "symbolic keywords",
			input: "a || b && c",
			want: term.And{Terms: []term.Term{
				term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
				term.Text("c"),
			}},
		},
		{
			name:  "quoted keyword is a literal",
			input: "a 'OR' b",
			want:  term.And{Terms: []term.Term{term.Text("a"), term.Text("OR"), term.Text("b")}},
		},
		{
			name:  "trailing or is dropped",
			input: "a OR",
			want:  term.Text("a"),
		},
		{
			name:  "parenthesized group",
			input: "(a OR b) c",
			want: term.And{Terms: []term.Term{
				term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
				term.Text("c"),
			}},
		},
		{
			name:  "negated group",
			input: "-(a b)",
			want:  term.Negation{Sub: term.And{Terms: []term.Term{term.Text("a"), term.Text("b")}}},
		},
		{
			name:  "stray parenthesis",
			input: "a ) b",
			want:  term.And{Terms: []term.Term{term.Text("a"), term.Text("b")}},
		},
		{
			name:  "unicode words",
			input: "Größe café",
			want:  term.And{Terms: []term.Term{term.Text("Größe"), term.Text("café")}},
		},
	}

	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTerm(t, tt.want, p.ParseTerm(tt.input, NoFlags))
		})
	}
}

func TestParseTerm_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   \t"},
		{"unknown field", "unknown:foo"},
		{"unknown field poisons the rest", "hello unknown:foo world"},
		{"unknown nested field", "author:(unknown:x)"},
		{"value not a number", "size:big"},
		{"value not a boolean", "favourite:maybe"},
		{"value not a date", "created:yesterday"},
	}

	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ParseTerm(tt.input, NoFlags)
			assert.False(t, term.IsValid(got), "got %s", term.String(got))
		})
	}
}

func TestParseTerm_Flags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		flags Flags
		want  term.Term
	}{
		{
			name:  "globbing long word",
			input: "report",
			flags: Globbing,
			want:  term.Text("report*"),
		},
		{
			name:  "globbing skips short word",
			input: "abc",
			flags: Globbing,
			want:  term.Text("abc"),
		},
		{
			name:  "globbing skips quoted",
			input: "'report'",
			flags: Globbing,
			want:  term.Text("report"),
		},
		{
			name:  "globbing skips existing wildcard",
			input: "repo*",
			flags: Globbing,
			want:  term.Text("repo*"),
		},
		{
			name:  "globbing field value",
			input: "title:report",
			flags: Globbing,
			want:  cmp(titleProp, term.Text("report*"), term.Contains),
		},
		{
			name:  "globbing leaves numbers alone",
			input: "size:1000",
			flags: Globbing,
			want:  cmp(sizeProp, term.NewLiteral(1000), term.Equal),
		},
		{
			name:  "filename pattern",
			input: "*.mp3",
			flags: DetectFilenamePattern,
			want:  term.NewComparison(ontology.NFOFileName, term.Text(`^.*\.mp3$`)).WithComparator(term.Regexp),
		},
		{
			name:  "filename pattern with single wildcard",
			input: "img?.png",
			flags: DetectFilenamePattern,
			want:  term.NewComparison(ontology.NFOFileName, term.Text(`^img.\.png$`)).WithComparator(term.Regexp),
		},
		{
			name:  "filename detection wins over globbing",
			input: "*.jpeg",
			flags: DetectFilenamePattern | Globbing,
			want:  term.NewComparison(ontology.NFOFileName, term.Text(`^.*\.jpeg$`)).WithComparator(term.Regexp),
		},
		{
			name:  "quoted pattern is a literal",
			input: "'*.mp3'",
			flags: DetectFilenamePattern,
			want:  term.Text("*.mp3"),
		},
		{
			name:  "literals stay separate without merge flag",
			input: "Hello World",
			flags: NoFlags,
			want:  term.And{Terms: []term.Term{term.Text("Hello"), term.Text("World")}},
		},
		{
			name:  "merge literals",
			input: "Hello World",
			flags: MergeLiterals,
			want:  term.Text("Hello World"),
		},
		{
			name:  "merge literals around comparison",
			input: "hello size:5 world",
			flags: MergeLiterals,
			want: term.And{Terms: []term.Term{
				term.Text("hello world"),
				cmp(sizeProp, term.NewLiteral(5), term.Equal),
			}},
		},
		{
			name:  "merge skips negated literals",
			input: "hello -world",
			flags: MergeLiterals,
			want:  term.And{Terms: []term.Term{term.Text("hello"), term.Negation{Sub: term.Text("world")}}},
		},
		{
			name:  "merge leaves or groups",
			input: "a OR b c d",
			flags: MergeLiterals,
			want: term.And{Terms: []term.Term{
				term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
				term.Text("c d"),
			}},
		},
	}

	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTerm(t, tt.want, p.ParseTerm(tt.input, tt.flags))
		})
	}
}

func TestParse_BuiltinCatalog(t *testing.T) {
	p, err := NewParser(ontology.MustBuiltin(), WithLogger(testLogger()))
	require.NoError(t, err)

	q := p.Parse("-label:nepomuk", NoFlags)
	require.True(t, q.IsValid())
	assertTerm(t,
		term.Negation{Sub: term.NewComparison(ontology.RDFSLabel, term.Text("nepomuk"))},
		q.Term)

	q = p.Parse("nosuchfield:x", NoFlags)
	assert.False(t, q.IsValid())
}

func TestParser_MaxFieldCandidates(t *testing.T) {
	p := newTestParser(t, WithMaxFieldCandidates(2))

	assertTerm(t,
		term.Or{Terms: []term.Term{
			cmp(titleProp, term.Text("x"), term.Contains),
			cmp(nameProp, term.Text("x"), term.Contains),
		}},
		p.ParseTerm("many:x", NoFlags))
}

func TestParser_DropsCandidatesRejectingValue(t *testing.T) {
	fields := testutil.NewStubFields().Set("mixed", titleProp, sizeProp)
	p, err := NewParser(fields, WithLogger(testLogger()))
	require.NoError(t, err)

	assertTerm(t, cmp(titleProp, term.Text("big"), term.Contains), p.ParseTerm("mixed:big", NoFlags))
	assertTerm(t,
		term.Or{Terms: []term.Term{
			cmp(titleProp, term.Text("10"), term.Contains),
			cmp(sizeProp, term.NewLiteral(10), term.Equal),
		}},
		p.ParseTerm("mixed:10", NoFlags))
}

func TestParser_CustomKeywords(t *testing.T) {
	p := newTestParser(t, WithKeywords([]string{"UND"}, []string{"ODER"}))

	assertTerm(t,
		term.Or{Terms: []term.Term{term.Text("a"), term.Text("b")}},
		p.ParseTerm("a oder b", NoFlags))
	assertTerm(t,
		term.And{Terms: []term.Term{term.Text("a"), term.Text("b")}},
		p.ParseTerm("a und b", NoFlags))
	assertTerm(t,
		term.And{Terms: []term.Term{term.Text("a"), term.Text("OR"), term.Text("b")}},
		p.ParseTerm("a OR b", NoFlags))
}

func TestNewParser_Errors(t *testing.T) {
	_, err := NewParser(nil)
	assert.Error(t, err)

	_, err = NewParser(testFields(), WithMaxFieldCandidates(0))
	assert.Error(t, err)
}

func TestFlags_StringAndParse(t *testing.T) {
	f := Globbing | MergeLiterals
	assert.Equal(t, "globbing|merge-literals", f.String())
	assert.Equal(t, "", NoFlags.String())

	parsed, err := ParseFlags("globbing|merge-literals")
	require.NoError(t, err)
	assert.Equal(t, f, parsed)

	parsed, err = ParseFlags("detect-filename-pattern, globbing")
	require.NoError(t, err)
	assert.Equal(t, DetectFilenamePattern|Globbing, parsed)

	parsed, err = ParseFlags("")
	require.NoError(t, err)
	assert.Equal(t, NoFlags, parsed)

	_, err = ParseFlags("fuzzy")
	assert.Error(t, err)
}
