package sparql

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/optimize"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

// Form selects the top-level query shape.
type Form int

const (
	Select Form = iota
	Ask
	Count
)

func (f Form) String() string {
	switch f {
	case Ask:
		return "ask"
	case Count:
		return "count"
	default:
		return "select"
	}
}

// ParseForm is the inverse of Form.String. The empty string parses as
// Select.
func ParseForm(s string) (Form, error) {
	switch s {
	case "", "select":
		return Select, nil
	case "ask":
		return Ask, nil
	case "count":
		return Count, nil
	default:
		return Select, fmt.Errorf("unknown query form %q", s)
	}
}

// Result variable names.
const (
	SubjectVar = "?r"
	CountVar   = "?cnt"
	ScoreVar   = "?_score"
	ExcerptVar = "?_excerpt"
)

// Schema is the ontology metadata the compiler consults. ontology.Catalog
// implements it.
type Schema interface {
	Property(uri string) (ontology.Property, bool)
	IsSubClassOf(sub, super string) bool
}

// Compiler turns queries into SPARQL text.
type Compiler struct {
	schema Schema
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithSchema sets the ontology used for property ranges and class pruning.
// Without a schema every property is treated as literal-valued and class
// sets are emitted as given.
func WithSchema(schema Schema) Option {
	return func(c *Compiler) error {
		c.schema = schema
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCompiler creates a compiler.
func NewCompiler(opts ...Option) (*Compiler, error) {
	c := &Compiler{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Compile renders q in the given form. It returns "" when q is invalid,
// which includes a term holding an IRI that SPARQL cannot express.
// q is not modified.
func (c *Compiler) Compile(q query.Query, form Form) string {
	if !q.IsValid() {
		c.logger.Debug("skipping invalid query", "query", q.String())
		return ""
	}

	root := c.rootTerm(q, form)
	root = optimize.EvenMore(optimize.Term(root))

	b := newBuilder(c.schema)
	pattern := b.compile(root, SubjectVar, false)
	if !q.Flags.Has(query.NoResultRestrictions) {
		pattern += b.visibility(SubjectVar)
	}
	if b.invalid {
		c.logger.Debug("skipping query with an unwritable IRI", "query", q.String())
		return ""
	}

	var out string
	switch form {
	case Ask:
		out = "ask where { " + pattern + "}"
	case Count:
		out = countQuery(b, pattern)
	default:
		out = selectQuery(b, q, pattern)
	}

	c.logger.Debug("compiled query", "form", form.String(), "vars", b.varCount, "sparql", out)
	return out
}

// Select is shorthand for Compile(q, Select).
func (c *Compiler) Select(q query.Query) string { return c.Compile(q, Select) }

// Ask is shorthand for Compile(q, Ask).
func (c *Compiler) Ask(q query.Query) string { return c.Compile(q, Ask) }

// Count is shorthand for Compile(q, Count).
func (c *Compiler) Count(q query.Query) string { return c.Compile(q, Count) }

// rootTerm intersects the query term with the file restriction and the
// request property comparisons.
func (c *Compiler) rootTerm(q query.Query, form Form) term.Term {
	parts := []term.Term{q.Term}
	if q.IsFileQuery() {
		parts = append(parts, fileRestriction(q))
	}
	for i, rp := range q.RequestProperties {
		if rp.Optional && form != Select {
			continue
		}
		cmp := term.Comparison{
			Property: rp.Property,
			Variable: fmt.Sprintf("reqProp%d", i+1),
		}
		if rp.Optional {
			parts = append(parts, term.Optional{Sub: cmp})
		} else {
			parts = append(parts, cmp)
		}
	}
	return term.AndTerms(parts...)
}

// fileRestriction builds the type and folder constraints of a file query.
func fileRestriction(q query.Query) term.Term {
	var parts []term.Term
	switch q.FileMode {
	case query.FileModeFiles:
		parts = append(parts,
			term.NewResourceType(ontology.NFOFileDataObject),
			term.Negation{Sub: term.NewResourceType(ontology.NFOFolder)},
		)
	case query.FileModeFolders:
		parts = append(parts, term.NewResourceType(ontology.NFOFolder))
	default:
		parts = append(parts, term.Or{Terms: []term.Term{
			term.NewResourceType(ontology.NFOFileDataObject),
			term.NewResourceType(ontology.NFOFolder),
		}})
	}

	var includes []term.Term
	for _, url := range q.IncludeFolders {
		includes = append(includes, urlPrefix(url))
	}
	if len(includes) > 0 {
		parts = append(parts, term.OrTerms(includes...))
	}
	for _, url := range q.ExcludeFolders {
		parts = append(parts, term.Negation{Sub: urlPrefix(url)})
	}
	return term.AndTerms(parts...)
}

// urlPrefix matches entries whose url lies below folder.
func urlPrefix(folder string) term.Comparison {
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	return term.Comparison{
		Property:   ontology.NIEUrl,
		Sub:        term.Text("^" + regexp.QuoteMeta(folder)),
		Comparator: term.Regexp,
	}
}

func selectQuery(b *builder, q query.Query, pattern string) string {
	var sb strings.Builder
	sb.WriteString("select distinct " + SubjectVar)
	sb.WriteString(b.projection())

	scoring := q.FullTextScoring && len(b.scoreVars) > 0
	if scoring {
		sb.WriteString(" (" + b.scoreExpr() + " as " + ScoreVar + ")")
	}
	if !q.Flags.Has(query.WithoutFullTextExcerpt) {
		if ex := b.excerptExpr(); ex != "" {
			sb.WriteString(" (" + ex + " as " + ExcerptVar + ")")
		}
	}

	sb.WriteString(" where { " + pattern + "}")

	order := b.orderBy()
	if scoring {
		order = append(order, sortExpr(q.FullTextSortOrder, ScoreVar))
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(order, " "))
	}
	if q.Offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", q.Offset)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	return sb.String()
}

func countQuery(b *builder, pattern string) string {
	extra := b.projection()
	if extra == "" {
		return "select count(distinct " + SubjectVar + ") as " + CountVar + " where { " + pattern + "}"
	}
	return "select count(*) as " + CountVar + " where { { select distinct " + SubjectVar + extra +
		" where { " + pattern + "} } }"
}
