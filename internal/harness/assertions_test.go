package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

func validResult() *Result {
	q := query.New(term.NewComparison("urn:size", term.Text("big")))
	r := NewResult()
	r.Query = q
	r.Term = term.String(q.Term)
	r.SPARQL = `select distinct ?r where { ?r <urn:size> ?v1 . ?v1 bif:contains "'big'" OPTION (score ?v2) . }`
	return r
}

func invalidResult() *Result {
	r := NewResult()
	r.Query = query.New(term.Invalid{})
	r.Term = term.String(r.Query.Term)
	return r
}

func TestAssertValid(t *testing.T) {
	assert.NoError(t, assertValid(validResult()))

	err := assertValid(invalidResult())
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertValid, ae.Type)
}

func TestAssertInvalid(t *testing.T) {
	assert.NoError(t, assertInvalid(invalidResult()))
	assert.Error(t, assertInvalid(validResult()))
}

func TestAssertTermEquals(t *testing.T) {
	r := validResult()
	assert.NoError(t, assertTermEquals(r, Assertion{Type: AssertTermEquals, Value: `(<urn:size> contains "big")`}))

	err := assertTermEquals(r, Assertion{Type: AssertTermEquals, Value: `(<urn:size> equal "big")`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Actual: (<urn:size> contains "big")`)
}

func TestAssertSPARQLContains(t *testing.T) {
	r := validResult()
	assert.NoError(t, assertSPARQLContains(r, Assertion{Value: "<urn:size> ?v1"}))
	assert.Error(t, assertSPARQLContains(r, Assertion{Value: "LIMIT"}))
}

func TestAssertSPARQLNotContains(t *testing.T) {
	r := validResult()
	assert.NoError(t, assertSPARQLNotContains(r, Assertion{Value: "LIMIT"}))
	assert.Error(t, assertSPARQLNotContains(r, Assertion{Value: "bif:contains"}))
}

func TestAssertRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("valid query", func(t *testing.T) {
		r := validResult()
		r.Query.Limit = 5
		r.Query.AddRequestProperty("urn:title", true)
		assert.NoError(t, assertRoundTrip(ctx, discardLogger(), r))
	})

	t.Run("file query", func(t *testing.T) {
		r := validResult()
		fq := r.Query.AsFileQuery()
		fq.FileMode = query.FileModeFolders
		fq.AddIncludeFolder("file:///home/user")
		assert.NoError(t, assertRoundTrip(ctx, discardLogger(), r))
	})

	t.Run("invalid query", func(t *testing.T) {
		err := assertRoundTrip(ctx, discardLogger(), invalidResult())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storable query")
	})
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	r := validResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertValid},
		{Type: AssertSPARQLContains, Value: "urn:size"},
		{Type: AssertRoundTrip},
	}, &AssertionContext{Ctx: context.Background()})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	r := validResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertValid},
		{Type: AssertInvalid},
		{Type: AssertSPARQLContains, Value: "ORDER BY"},
	}, nil)
	assert.Len(t, errs, 2)
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(validResult(), []Assertion{{Type: "final_state"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "final_state"`)
}

func TestEvaluateAssertions_RoundTripWithoutContext(t *testing.T) {
	errs := EvaluateAssertions(validResult(), []Assertion{{Type: AssertRoundTrip}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "round_trip requires a context")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertSPARQLContains,
		Expected: `text containing "LIMIT"`,
		Actual:   "not found",
		Term:     `"foo"`,
		SPARQL:   "select distinct ?r where { }",
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: sparql_contains")
	assert.Contains(t, msg, `Expected: text containing "LIMIT"`)
	assert.Contains(t, msg, "Actual: not found")
	assert.Contains(t, msg, "Term:\n  \"foo\"")
	assert.Contains(t, msg, "SPARQL:\n  select distinct ?r where { }")
}

func TestAssertionError_OmitsEmptySPARQL(t *testing.T) {
	err := &AssertionError{Type: AssertValid, Expected: "valid query", Actual: "invalid query", Term: "<invalid>"}
	assert.NotContains(t, err.Error(), "SPARQL:")
}
