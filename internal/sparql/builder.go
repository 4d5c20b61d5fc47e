package sparql

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/term"
)

// edgeKey identifies one graph edge hanging off a subject variable.
type edgeKey struct {
	subject  string
	property string
	inverted bool
}

type orderEntry struct {
	weight int
	order  term.SortOrder
	expr   string
}

// builder holds the state of exactly one compilation.
type builder struct {
	schema Schema

	varCount int

	// firstUse maps an edge to the object variable already allocated for
	// it so later comparisons on the same edge reuse it.
	firstUse map[edgeKey]string

	projections []string
	projected   map[string]bool

	scoreVars    []string
	textVars     []string
	excerptWords []string

	order []orderEntry

	// inNegation counts enclosing negations. Nothing inside a negation
	// contributes projections, scores or sort keys.
	inNegation int

	// invalid is set when a term carries an IRI that cannot be written.
	invalid bool
}

func newBuilder(schema Schema) *builder {
	return &builder{
		schema:    schema,
		firstUse:  make(map[edgeKey]string),
		projected: make(map[string]bool),
	}
}

func (b *builder) newVar() string {
	b.varCount++
	return "?v" + strconv.Itoa(b.varCount)
}

func (b *builder) addProjection(p string) {
	if b.inNegation > 0 || b.projected[p] {
		return
	}
	b.projected[p] = true
	b.projections = append(b.projections, p)
}

func (b *builder) addScore(v string) {
	if b.inNegation > 0 {
		return
	}
	b.scoreVars = append(b.scoreVars, v)
}

func (b *builder) addText(v, text string) {
	if b.inNegation > 0 {
		return
	}
	if !slices.Contains(b.textVars, v) {
		b.textVars = append(b.textVars, v)
	}
	for _, word := range strings.Fields(text) {
		if !slices.Contains(b.excerptWords, word) {
			b.excerptWords = append(b.excerptWords, word)
		}
	}
}

func (b *builder) addOrder(weight int, order term.SortOrder, expr string) {
	if b.inNegation > 0 || weight == 0 {
		return
	}
	b.order = append(b.order, orderEntry{weight: weight, order: order, expr: expr})
}

// iri renders uri as an IRI reference, marking the compilation invalid
// when uri cannot be written.
func (b *builder) iri(uri string) string {
	ref, ok := iriRef(uri)
	if !ok {
		b.invalid = true
	}
	return ref
}

func (b *builder) value(v quad.Value) string {
	s, ok := formatValue(v)
	if !ok {
		b.invalid = true
	}
	return s
}

// scope runs fn with a copy of the first-use map and restores the original
// afterwards, so edges allocated inside fn are not reused outside it.
func (b *builder) scope(fresh bool, fn func()) {
	saved := b.firstUse
	if fresh {
		b.firstUse = make(map[edgeKey]string)
	} else {
		b.firstUse = maps.Clone(saved)
	}
	fn()
	b.firstUse = saved
}

// anchors reports whether the pattern compiled for t binds its subject.
// Or always does because every branch is anchored on its own.
func anchors(t term.Term) bool {
	switch t := t.(type) {
	case term.Literal, term.ResourceType, term.Comparison, term.Or:
		return true
	case term.And:
		return slices.ContainsFunc(t.Terms, anchors)
	case term.Negation:
		return cheapNegation(t)
	default:
		return false
	}
}

// compile emits the pattern for t with subject as its subject variable.
// bound tells whether an enclosing pattern already binds subject.
func (b *builder) compile(t term.Term, subject string, bound bool) string {
	var sb strings.Builder
	if !bound && !anchors(t) {
		sb.WriteString(subject + " <" + ontology.RDFType + "> " + b.newVar() + " . ")
	}

	switch t := t.(type) {
	case term.Literal:
		sb.WriteString(b.compileFullText(t, subject))
	case term.Resource:
		sb.WriteString("FILTER(" + subject + " = " + b.iri(t.URI) + ") . ")
	case term.ResourceType:
		sb.WriteString(b.compileResourceType(t, subject))
	case term.Comparison:
		sb.WriteString(b.compileComparison(t, subject, false))
	case term.And:
		for _, c := range t.Terms {
			sb.WriteString(b.compile(c, subject, true))
		}
	case term.Or:
		branches := make([]string, len(t.Terms))
		for i, c := range t.Terms {
			b.scope(false, func() {
				branches[i] = "{ " + b.compile(c, subject, false) + "}"
			})
		}
		sb.WriteString(strings.Join(branches, " UNION ") + " . ")
	case term.Negation:
		sb.WriteString(b.compileNegation(t, subject))
	case term.Optional:
		var inner string
		b.scope(false, func() {
			inner = b.compile(t.Sub, subject, true)
		})
		sb.WriteString("OPTIONAL { " + inner + "} . ")
	}
	return sb.String()
}

// cheapNegation reports whether n negates a regexp comparison, which
// compiles to an inverted filter on an ordinary edge.
func cheapNegation(n term.Negation) bool {
	cmp, ok := n.Sub.(term.Comparison)
	if !ok || cmp.Comparator != term.Regexp {
		return false
	}
	_, isLit := cmp.Sub.(term.Literal)
	return isLit
}

func (b *builder) compileNegation(n term.Negation, subject string) string {
	if cheapNegation(n) {
		b.inNegation++
		defer func() { b.inNegation-- }()
		return b.compileComparison(n.Sub.(term.Comparison), subject, true)
	}

	var inner string
	b.inNegation++
	b.scope(true, func() {
		inner = b.compile(n.Sub, subject, true)
	})
	b.inNegation--
	return "FILTER NOT EXISTS { " + inner + "} . "
}

// compileFullText matches lit against any property of subject, either
// directly or through the label of a related resource.
func (b *builder) compileFullText(lit term.Literal, subject string) string {
	text := term.StringOf(lit.Value)
	expr := fullTextExpr(text)

	p := b.newVar()
	o := b.newVar()
	scoreA := b.newVar()
	related := b.newVar()
	labelProp := b.newVar()
	scoreB := b.newVar()

	b.addScore(scoreA)
	b.addScore(scoreB)
	b.addText(o, text)

	return "{ " + subject + " " + p + " " + o + " . " +
		o + " bif:contains " + expr + " OPTION (score " + scoreA + ") . } UNION { " +
		subject + " " + p + " " + related + " . " +
		related + " " + labelProp + " " + o + " . " +
		labelProp + " <" + ontology.RDFSSubPropertyOf + "> <" + ontology.RDFSLabel + "> . " +
		o + " bif:contains " + expr + " OPTION (score " + scoreB + ") . } . "
}

// compileResourceType matches subject against a class or any subclass.
func (b *builder) compileResourceType(rt term.ResourceType, subject string) string {
	classes := b.pruneClasses(rt.Types)
	path := " <" + ontology.RDFType + ">/<" + ontology.RDFSSubClassOf + ">* "
	if len(classes) == 1 {
		return subject + path + b.iri(classes[0]) + " . "
	}

	v := b.newVar()
	iris := make([]string, len(classes))
	for i, c := range classes {
		iris[i] = b.iri(c)
	}
	return subject + path + v + " . FILTER(" + v + " IN (" + strings.Join(iris, ", ") + ")) . "
}

// pruneClasses drops duplicates and classes whose superclass is also in
// the set. Classes that are subclasses of each other form a cycle; only
// the first of them to appear is kept. Order of first appearance is kept.
func (b *builder) pruneClasses(types []string) []string {
	var uniq []string
	for _, t := range types {
		if !slices.Contains(uniq, t) {
			uniq = append(uniq, t)
		}
	}
	if b.schema == nil {
		return uniq
	}
	out := make([]string, 0, len(uniq))
	for i, t := range uniq {
		redundant := false
		for j, other := range uniq {
			if !b.schema.IsSubClassOf(t, other) {
				continue
			}
			if j < i || !b.schema.IsSubClassOf(other, t) {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, t)
		}
	}
	return out
}

// compileComparison emits the edge for c and the constraint on its value.
// negateRegex turns a regexp filter into its negation.
func (b *builder) compileComparison(c term.Comparison, subject string, negateRegex bool) string {
	var sb strings.Builder

	wildcard := c.Property == ""
	var prop string
	if wildcard {
		prop = b.newVar()
	} else {
		prop = b.iri(c.Property)
	}

	edge := func(obj string) string {
		if c.Inverted {
			return obj + " " + prop + " " + subject + " . "
		}
		return subject + " " + prop + " " + obj + " . "
	}

	binding := c.Variable != "" || c.Aggregate != term.NoAggregate || c.SortWeight != 0
	sub := c.Sub
	if !term.IsValid(sub) {
		sub = nil
	}

	comparator := c.Comparator
	lit, isLit := sub.(term.Literal)
	if isLit && comparator == term.Contains && !term.IsString(lit.Value) {
		comparator = term.Equal
	}

	// Direct triples need no object variable.
	if !binding {
		switch s := sub.(type) {
		case term.Resource:
			return edge(b.iri(s.URI))
		case term.Literal:
			if comparator == term.Equal && !b.rangeIsResource(c.Property) {
				return edge(b.value(s.Value))
			}
		}
	}

	obj, reused := b.objectVar(c, subject, wildcard)
	if !reused {
		sb.WriteString(edge(obj))
		if !wildcard {
			key := edgeKey{subject: subject, property: c.Property, inverted: c.Inverted}
			if _, ok := b.firstUse[key]; !ok {
				b.firstUse[key] = obj
			}
		}
	}
	b.bindResult(c, obj)

	switch s := sub.(type) {
	case nil:
	case term.Resource:
		sb.WriteString("FILTER(" + obj + " = " + b.iri(s.URI) + ") . ")
	case term.Literal:
		sb.WriteString(b.compileLiteralConstraint(c.Property, comparator, s, obj, negateRegex))
	default:
		sb.WriteString(b.compile(s, obj, true))
	}
	return sb.String()
}

// objectVar picks the variable holding the comparison's value.
func (b *builder) objectVar(c term.Comparison, subject string, wildcard bool) (string, bool) {
	if c.Variable != "" && c.Aggregate == term.NoAggregate && b.inNegation == 0 {
		return "?" + c.Variable, false
	}
	if !wildcard && c.Variable == "" {
		key := edgeKey{subject: subject, property: c.Property, inverted: c.Inverted}
		if v, ok := b.firstUse[key]; ok {
			return v, true
		}
	}
	return b.newVar(), false
}

// bindResult registers projection and ordering for the comparison value.
func (b *builder) bindResult(c term.Comparison, obj string) {
	if b.inNegation > 0 {
		return
	}
	key := obj
	if c.Aggregate != term.NoAggregate {
		alias := "?" + c.Variable
		if c.Variable == "" {
			alias = b.newVar()
		}
		b.addProjection("(" + aggregateExpr(c.Aggregate, obj) + " as " + alias + ")")
		key = alias
	} else if c.Variable != "" {
		b.addProjection(obj)
	}
	b.addOrder(c.SortWeight, c.SortOrder, key)
}

func (b *builder) compileLiteralConstraint(property string, cmp term.Comparator, lit term.Literal, obj string, negateRegex bool) string {
	if b.rangeIsResource(property) && (cmp == term.Contains || cmp == term.Equal) {
		return b.compileFullText(lit, obj)
	}

	switch cmp {
	case term.Contains:
		text := term.StringOf(lit.Value)
		score := b.newVar()
		b.addScore(score)
		b.addText(obj, text)
		return obj + " bif:contains " + fullTextExpr(text) + " OPTION (score " + score + ") . "
	case term.Regexp:
		not := ""
		if negateRegex {
			not = "!"
		}
		return "FILTER(" + not + "REGEX(STR(" + obj + "), " + quoteString(term.StringOf(lit.Value)) + ")) . "
	default:
		return "FILTER(" + obj + " " + cmp.Symbol() + " " + b.value(lit.Value) + ") . "
	}
}

func (b *builder) rangeIsResource(property string) bool {
	if b.schema == nil || property == "" {
		return false
	}
	p, ok := b.schema.Property(property)
	return ok && p.RangeIsResource
}

// visibility restricts results to entities flagged as user visible.
func (b *builder) visibility(subject string) string {
	v := b.newVar()
	return subject + " <" + ontology.NAOUserVisible + "> " + v + " . FILTER(" + v + " > 0) . "
}

func (b *builder) projection() string {
	if len(b.projections) == 0 {
		return ""
	}
	return " " + strings.Join(b.projections, " ")
}

func (b *builder) scoreExpr() string {
	parts := make([]string, len(b.scoreVars))
	for i, v := range b.scoreVars {
		parts[i] = "COALESCE(" + v + ", 0)"
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func (b *builder) excerptExpr() string {
	if len(b.textVars) == 0 {
		return ""
	}
	words := make([]string, len(b.excerptWords))
	for i, w := range b.excerptWords {
		words[i] = quoteString(w)
	}
	text := b.textVars[0]
	if len(b.textVars) > 1 {
		text = "bif:concat(" + strings.Join(b.textVars, ", ") + ")"
	}
	return "bif:search_excerpt(bif:vector(" + strings.Join(words, ", ") + "), " + text + ")"
}

// orderBy returns ORDER BY entries, heaviest first.
func (b *builder) orderBy() []string {
	entries := slices.Clone(b.order)
	slices.SortStableFunc(entries, func(x, y orderEntry) int {
		return y.weight - x.weight
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = sortExpr(e.order, e.expr)
	}
	return out
}

func sortExpr(order term.SortOrder, expr string) string {
	if order == term.Descending {
		return "DESC(" + expr + ")"
	}
	return "ASC(" + expr + ")"
}

func aggregateExpr(a term.Aggregate, v string) string {
	switch a {
	case term.Count:
		return "count(" + v + ")"
	case term.DistinctCount:
		return "count(distinct " + v + ")"
	case term.Max:
		return "max(" + v + ")"
	case term.Min:
		return "min(" + v + ")"
	case term.Sum:
		return "sum(" + v + ")"
	case term.DistinctSum:
		return "sum(distinct " + v + ")"
	case term.Average:
		return "avg(" + v + ")"
	case term.DistinctAverage:
		return "avg(distinct " + v + ")"
	default:
		return v
	}
}
