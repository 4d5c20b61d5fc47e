package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/term"
	"github.com/roach88/semquery/internal/userquery"
)

// Harness runs scenarios against one ontology catalog.
type Harness struct {
	catalog *ontology.Catalog
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithCatalog sets the catalog used by scenarios that do not name their
// own. Default is the built-in catalog.
func WithCatalog(c *ontology.Catalog) Option {
	return func(h *Harness) {
		h.catalog = c
	}
}

// WithLogger sets the logger handed to the parser and the compiler.
// Default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a harness.
func New(opts ...Option) (*Harness, error) {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.catalog == nil {
		c, err := ontology.Builtin()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		h.catalog = c
	}
	return h, nil
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New()
	if err != nil {
		return nil, err
	}
	return h.Run(context.Background(), scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Resolve the catalog (scenario catalog or harness default)
// 2. Parse the input with the scenario's parser flags
// 3. Apply limit, offset, request properties, flags and file options
// 4. Compile in the requested form
// 5. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed at all;
// failed assertions are reported in the result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	catalog := h.catalog
	if scenario.Catalog != "" {
		c, err := ontology.LoadCatalog(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		catalog = c
	}

	q, form, err := h.buildQuery(catalog, scenario)
	if err != nil {
		return nil, err
	}

	compiler, err := sparql.NewCompiler(
		sparql.WithSchema(catalog),
		sparql.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler: %w", err)
	}

	result := NewResult()
	result.Query = q
	result.Form = form.String()
	result.Term = term.String(q.Term)
	result.SPARQL = compiler.Compile(q, form)

	actx := &AssertionContext{
		Ctx:    ctx,
		Logger: h.logger,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// buildQuery parses the scenario input and applies its metadata.
func (h *Harness) buildQuery(catalog *ontology.Catalog, s *Scenario) (query.Query, sparql.Form, error) {
	parserFlags, err := userquery.ParseFlags(s.ParserFlags)
	if err != nil {
		return query.Query{}, 0, err
	}
	form, err := sparql.ParseForm(s.Form)
	if err != nil {
		return query.Query{}, 0, err
	}
	flags, err := query.ParseFlags(s.Flags)
	if err != nil {
		return query.Query{}, 0, err
	}
	mode, err := query.ParseFileMode(s.FileMode)
	if err != nil {
		return query.Query{}, 0, err
	}

	parser, err := userquery.NewParser(catalog, userquery.WithLogger(h.logger))
	if err != nil {
		return query.Query{}, 0, fmt.Errorf("failed to create parser: %w", err)
	}

	q := parser.Parse(s.Input, parserFlags)
	q.Limit = s.Limit
	q.Offset = s.Offset
	q.Flags = flags
	q.FullTextScoring = s.FullTextScoring
	for _, rp := range s.RequestProperties {
		q.AddRequestProperty(ontology.Expand(rp.Property), rp.Optional)
	}
	if s.IsFileQuery() {
		fq := q.AsFileQuery()
		fq.FileMode = mode
		for _, url := range s.IncludeFolders {
			fq.AddIncludeFolder(url)
		}
		for _, url := range s.ExcludeFolders {
			fq.AddExcludeFolder(url)
		}
	}
	return q, form, nil
}
