package userquery

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

// Flags tune how free text is turned into terms.
type Flags int

const (
	// Globbing appends a '*' to unquoted string values of at least
	// MinGlobLength runes.
	Globbing Flags = 1 << iota

	// DetectFilenamePattern rewrites bare values such as "*.mp3" into a
	// regular-expression comparison on the file name.
	DetectFilenamePattern

	// MergeLiterals joins the top-level string literals of a conjunction
	// into one multi-word literal.
	MergeLiterals
)

// NoFlags is the zero value, spelled out for call sites.
const NoFlags Flags = 0

var flagNames = []struct {
	flag Flags
	name string
}{
	{Globbing, "globbing"},
	{DetectFilenamePattern, "detect-filename-pattern"},
	{MergeLiterals, "merge-literals"},
}

// Has reports whether every bit in f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String joins the set flag names with "|".
func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseFlags reads flag names as produced by String. Both "|" and ","
// separate names.
func ParseFlags(s string) (Flags, error) {
	var out Flags
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' })
	for _, name := range fields {
		name = strings.TrimSpace(name)
		found := false
		for _, fn := range flagNames {
			if fn.name == name {
				out |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown parser flag %q", name)
		}
	}
	return out, nil
}

const (
	// DefaultMaxFieldCandidates caps how many properties one field name
	// may expand to.
	DefaultMaxFieldCandidates = 4

	// MinGlobLength is the shortest value Globbing applies to.
	MinGlobLength = 4
)

// Default keyword sets. Matching is case-insensitive.
var (
	DefaultAndKeywords = []string{"AND", "&&"}
	DefaultOrKeywords  = []string{"OR", "||"}
)

// Parser turns search-box text into terms.
//
// Thread-safety: a Parser is safe for concurrent use when its FieldMatcher
// is. NewParser wraps plain matchers in a FieldCache, which is.
type Parser struct {
	fields        FieldMatcher
	andKeywords   []string
	orKeywords    []string
	maxCandidates int
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithKeywords replaces the AND and OR keyword sets. A nil slice keeps the
// corresponding default.
func WithKeywords(and, or []string) Option {
	return func(p *Parser) error {
		if and != nil {
			p.andKeywords = and
		}
		if or != nil {
			p.orKeywords = or
		}
		return nil
	}
}

// WithMaxFieldCandidates caps the properties a field name expands to.
func WithMaxFieldCandidates(n int) Option {
	return func(p *Parser) error {
		if n < 1 {
			return fmt.Errorf("max field candidates must be positive, got %d", n)
		}
		p.maxCandidates = n
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		p.logger = logger
		return nil
	}
}

// NewParser creates a parser resolving field names through matcher. A
// matcher that is not already a *FieldCache is wrapped in one.
func NewParser(matcher FieldMatcher, opts ...Option) (*Parser, error) {
	if matcher == nil {
		return nil, fmt.Errorf("field matcher is required")
	}
	p := &Parser{
		andKeywords:   DefaultAndKeywords,
		orKeywords:    DefaultOrKeywords,
		maxCandidates: DefaultMaxFieldCandidates,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	fold := cases.Fold()
	p.andKeywords = foldAll(fold, p.andKeywords)
	p.orKeywords = foldAll(fold, p.orKeywords)

	if cache, ok := matcher.(*FieldCache); ok {
		p.fields = cache
	} else {
		p.fields = NewFieldCache(matcher, p.logger)
	}
	return p, nil
}

func foldAll(fold cases.Caser, words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fold.String(w)
	}
	return out
}

// Parse parses text into a Query. An unresolvable field yields a query
// whose term is Invalid.
func (p *Parser) Parse(text string, flags Flags) query.Query {
	return query.New(p.ParseTerm(text, flags))
}

// ParseTerm parses text into a term. Empty input and any unresolvable
// field yield Invalid.
func (p *Parser) ParseTerm(text string, flags Flags) term.Term {
	s := &scan{parser: p, flags: flags, fold: cases.Fold()}
	terms := s.sequence([]rune(text))
	if s.failed {
		p.logger.Debug("query text rejected", "text", text, "reason", s.reason)
		return term.Invalid{}
	}
	result := term.AndTerms(terms...)
	if flags.Has(MergeLiterals) {
		result = mergeLiterals(result)
	}
	p.logger.Debug("query text parsed", "text", text, "term", term.String(result))
	return result
}

// Matchers, tried in order at each position. All are anchored at the
// current position.
const (
	signPattern  = `(?<sign>[+\-!]|(?i:not)\s+)?`
	fieldPattern = `(?<field>\w[\w.\-]*)`
	valuePattern = `(?:(?<q>["'])(?<quoted>.*?)\k<q>|(?<bare>[^\s()]+))`
	cmpPattern   = `(?<cmp><=|>=|:|=|<|>)`
)

var (
	resourceMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+`(?:<(?<puri>[^>\s]+)>|`+fieldPattern+`)\s*[:=]\s*<(?<uri>[^>\s]+)>`,
		regexp2.None)
	propertyMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+`<(?<puri>[^>\s]+)>\s*`+cmpPattern+`\s*`+valuePattern,
		regexp2.None)
	nestedMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+fieldPattern+`\s*[:=]\s*\(`,
		regexp2.None)
	groupMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+`\(`,
		regexp2.None)
	simpleMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+fieldPattern+`\s*`+cmpPattern+`\s*`+valuePattern,
		regexp2.None)
	literalMatcher = regexp2.MustCompile(
		`\A\s*`+signPattern+valuePattern,
		regexp2.None)
)

// scan is the state of one ParseTerm call.
type scan struct {
	parser *Parser
	flags  Flags
	fold   cases.Caser
	failed bool
	reason string
}

func (s *scan) fail(format string, args ...any) {
	if !s.failed {
		s.failed = true
		s.reason = fmt.Sprintf(format, args...)
	}
}

// sequence parses runes left to right and returns the top-level terms.
func (s *scan) sequence(runes []rune) []term.Term {
	var terms []term.Term
	pendingOr := false

	push := func(t term.Term) {
		if pendingOr && len(terms) > 0 {
			terms[len(terms)-1] = term.OrTerms(terms[len(terms)-1], t)
		} else {
			terms = append(terms, t)
		}
		pendingOr = false
	}

	pos := 0
	for pos < len(runes) && !s.failed {
		rest := runes[pos:]
		if isBlank(rest) {
			break
		}

		if m := match(resourceMatcher, rest); m != nil {
			push(s.signed(m, s.resourceComparison(m)))
			pos += m.Index + m.Length
			continue
		}
		if m := match(propertyMatcher, rest); m != nil {
			push(s.signed(m, s.propertyComparison(m)))
			pos += m.Index + m.Length
			continue
		}
		if m := match(nestedMatcher, rest); m != nil {
			start := pos + m.Index + m.Length
			end, next := closingParen(runes, start)
			inner := term.AndTerms(s.sequence(runes[start:end])...)
			field, _ := group(m, "field")
			push(s.signed(m, s.fieldTerm(field, func(p ontology.Property) term.Term {
				return term.NewComparison(p.URI, inner)
			})))
			pos = next
			continue
		}
		if m := match(groupMatcher, rest); m != nil {
			start := pos + m.Index + m.Length
			end, next := closingParen(runes, start)
			push(s.signed(m, term.AndTerms(s.sequence(runes[start:end])...)))
			pos = next
			continue
		}
		if m := match(simpleMatcher, rest); m != nil {
			push(s.signed(m, s.simpleComparison(m)))
			pos += m.Index + m.Length
			continue
		}
		if m := match(literalMatcher, rest); m != nil {
			pos += m.Index + m.Length
			if kw := s.keyword(m); kw != "" {
				if kw == "or" {
					pendingOr = true
				}
				continue
			}
			push(s.signed(m, s.literal(m)))
			continue
		}
		// Stray ')' or similar.
		pos++
	}
	return terms
}

func (s *scan) signed(m *regexp2.Match, t term.Term) term.Term {
	sign, ok := group(m, "sign")
	if !ok || sign == "+" || !term.IsValid(t) {
		return t
	}
	return term.Negation{Sub: t}
}

// keyword reports "and" or "or" when the literal is a bare keyword.
func (s *scan) keyword(m *regexp2.Match) string {
	if _, signed := group(m, "sign"); signed {
		return ""
	}
	bare, ok := group(m, "bare")
	if !ok {
		return ""
	}
	folded := s.fold.String(bare)
	switch {
	case slices.Contains(s.parser.orKeywords, folded):
		return "or"
	case slices.Contains(s.parser.andKeywords, folded):
		return "and"
	}
	return ""
}

func (s *scan) literal(m *regexp2.Match) term.Term {
	v, quoted := rawValue(m)
	if !quoted && s.flags.Has(DetectFilenamePattern) && isFilenamePattern(v) {
		return term.NewComparison(ontology.NFOFileName, term.Text(globToRegexp(v))).
			WithComparator(term.Regexp)
	}
	return term.Text(s.glob(v, quoted))
}

func (s *scan) glob(v string, quoted bool) string {
	if quoted || !s.flags.Has(Globbing) {
		return v
	}
	if len([]rune(v)) < MinGlobLength || strings.HasSuffix(v, "*") {
		return v
	}
	return v + "*"
}

func (s *scan) resourceComparison(m *regexp2.Match) term.Term {
	uri, _ := group(m, "uri")
	res := term.Resource{URI: ontology.Expand(uri)}
	build := func(p ontology.Property) term.Term {
		return term.NewComparison(p.URI, res).WithComparator(term.Equal)
	}
	if puri, ok := group(m, "puri"); ok {
		return build(ontology.Property{URI: ontology.Expand(puri), RangeIsResource: true})
	}
	field, _ := group(m, "field")
	return s.fieldTerm(field, build)
}

func (s *scan) propertyComparison(m *regexp2.Match) term.Term {
	puri, _ := group(m, "puri")
	cmp := comparator(m)
	v, quoted := rawValue(m)
	c := term.NewComparison(ontology.Expand(puri), term.Text(s.glob(v, quoted))).WithComparator(cmp)
	if cmp != term.Contains && !quoted {
		if val, ok := parseNumber(v); ok {
			c.Sub = term.Literal{Value: val}
		}
	}
	return c
}

func (s *scan) simpleComparison(m *regexp2.Match) term.Term {
	field, _ := group(m, "field")
	cmp := comparator(m)
	v, quoted := rawValue(m)
	return s.fieldTerm(field, func(p ontology.Property) term.Term {
		return s.coerce(p, cmp, v, quoted)
	})
}

// fieldTerm resolves field and builds one term per candidate property.
// Candidates whose build result is invalid are dropped.
func (s *scan) fieldTerm(field string, build func(ontology.Property) term.Term) term.Term {
	candidates := s.parser.fields.MatchField(field)
	if len(candidates) == 0 {
		s.fail("unknown field %q", field)
		return term.Invalid{}
	}
	if len(candidates) > s.parser.maxCandidates {
		s.parser.logger.Debug("field candidates capped",
			"field", field,
			"candidates", len(candidates),
			"max", s.parser.maxCandidates)
		candidates = candidates[:s.parser.maxCandidates]
	}

	alternatives := make([]term.Term, 0, len(candidates))
	for _, p := range candidates {
		t := build(p)
		if !term.IsValid(t) {
			s.parser.logger.Debug("field candidate dropped", "field", field, "property", p.URI)
			continue
		}
		alternatives = append(alternatives, t)
	}
	if len(alternatives) == 0 {
		s.fail("no property of field %q accepts the value", field)
		return term.Invalid{}
	}
	return term.OrTerms(alternatives...)
}

func match(re *regexp2.Regexp, runes []rune) *regexp2.Match {
	m, err := re.FindRunesMatch(runes)
	if err != nil {
		return nil
	}
	return m
}

// group returns the named group's text and whether it took part in the
// match.
func group(m *regexp2.Match, name string) (string, bool) {
	g := m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}

func rawValue(m *regexp2.Match) (string, bool) {
	if v, ok := group(m, "quoted"); ok {
		return v, true
	}
	v, _ := group(m, "bare")
	return v, false
}

func comparator(m *regexp2.Match) term.Comparator {
	switch cmp, _ := group(m, "cmp"); cmp {
	case "=":
		return term.Equal
	case ">":
		return term.Greater
	case "<":
		return term.Smaller
	case ">=":
		return term.GreaterOrEqual
	case "<=":
		return term.SmallerOrEqual
	default:
		return term.Contains
	}
}

// closingParen finds the ')' matching an already consumed '(' whose
// content starts at start. It returns the content end and the position
// after the parenthesis. Unbalanced input runs to the end.
func closingParen(runes []rune, start int) (end, next int) {
	depth := 1
	var quote rune
	for i := start; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth == 0 {
				return i, i + 1
			}
		}
	}
	return len(runes), len(runes)
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
