package harness

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "one resource comparison",
		Input:       "tag:<urn:tag:work>",
		Flags:       "no-result-restrictions",
		Assertions:  []Assertion{{Type: AssertValid}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "select", result.Form)
	assert.Equal(t, "(<"+ontology.NAO+"hasTag> equal <urn:tag:work>)", result.Term)
	assert.Contains(t, result.SPARQL, "<"+ontology.NAO+"hasTag> <urn:tag:work>")
}

func TestRun_AppliesMetadata(t *testing.T) {
	scenario := &Scenario{
		Name:            "metadata",
		Description:     "metadata reaches the query",
		Input:           "<urn:size> > 1000",
		Form:            "ask",
		Limit:           3,
		Offset:          1,
		Flags:           "no-result-restrictions|without-full-text-excerpt",
		FullTextScoring: true,
		RequestProperties: []RequestProperty{
			{Property: "nfo:fileName"},
			{Property: "urn:extra", Optional: true},
		},
		Assertions: []Assertion{{Type: AssertValid}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	q := result.Query
	assert.Equal(t, 3, q.Limit)
	assert.Equal(t, 1, q.Offset)
	assert.True(t, q.FullTextScoring)
	assert.True(t, q.Flags.Has(query.NoResultRestrictions|query.WithoutFullTextExcerpt))
	assert.Equal(t, []query.RequestProperty{
		{Property: ontology.NFOFileName},
		{Property: "urn:extra", Optional: true},
	}, q.RequestProperties)
	assert.False(t, q.IsFileQuery())

	assert.Equal(t, "ask", result.Form)
	assert.Contains(t, result.SPARQL, "ask where {")
	// Optional request properties only matter for select.
	assert.NotContains(t, result.SPARQL, "urn:extra")
}

func TestRun_FileQuery(t *testing.T) {
	scenario := &Scenario{
		Name:           "files",
		Description:    "file restriction",
		Input:          "tag:<urn:tag:work>",
		FileMode:       "folders",
		IncludeFolders: []string{"file:///home/user"},
		ExcludeFolders: []string{"file:///home/user/tmp"},
		Assertions:     []Assertion{{Type: AssertValid}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	q := result.Query
	assert.True(t, q.IsFileQuery())
	assert.Equal(t, query.FileModeFolders, q.FileMode)
	assert.Equal(t, []string{"file:///home/user"}, q.IncludeFolders)
	assert.Equal(t, []string{"file:///home/user/tmp"}, q.ExcludeFolders)
	assert.Contains(t, result.SPARQL, ontology.NFOFolder)
	assert.Contains(t, result.SPARQL, ontology.NIEUrl)
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "expects the wrong thing",
		Input:       "nosuchfield:foo",
		Assertions: []Assertion{
			{Type: AssertValid},
			{Type: AssertSPARQLContains, Value: "select"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, "<invalid>", result.Term)
	assert.Empty(t, result.SPARQL)
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{
		Name:        "deterministic",
		Description: "same input, same output",
		Input:       `hello "big world" -tag:<urn:tag:old>`,
		Assertions:  []Assertion{{Type: AssertValid}, {Type: AssertRoundTrip}},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, first.Pass, "errors: %v", first.Errors)
	assert.Equal(t, first.Term, second.Term)
	assert.Equal(t, first.SPARQL, second.SPARQL)
	assert.Equal(t, Snapshot(scenario, first), Snapshot(scenario, second))
}

func TestHarness_WithCatalog(t *testing.T) {
	catalog := ontology.NewCatalog([]ontology.Property{
		{URI: "urn:test#pages", Label: "pages", Range: "http://www.w3.org/2001/XMLSchema#integer"},
	}, nil)

	h, err := New(WithCatalog(catalog), WithLogger(discardLogger()))
	require.NoError(t, err)

	result, err := h.Run(context.Background(), &Scenario{
		Name:        "pages",
		Description: "custom catalog",
		Input:       "pages<100",
		Flags:       "no-result-restrictions",
		Assertions: []Assertion{
			{Type: AssertTermEquals, Value: "(<urn:test#pages> smaller 100)"},
			{Type: AssertSPARQLContains, Value: "FILTER(?v1 < 100)"},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestHarness_ScenarioCatalogOverrides(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/custom_catalog.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestHarness_BrokenCatalog(t *testing.T) {
	_, err := Run(&Scenario{
		Name:        "broken",
		Description: "catalog without properties",
		Catalog:     t.TempDir(),
		Input:       "foo",
		Assertions:  []Assertion{{Type: AssertValid}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestRun_Testdata(t *testing.T) {
	scenarios := []string{
		"tag_resource",
		"tag_resource_count",
		"filename_pattern",
		"property_limit",
		"visibility",
		"custom_catalog",
		"unknown_field",
		"file_query",
	}

	for _, name := range scenarios {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
