package ontology

import (
	"errors"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabExpanded(t *testing.T) {
	assert.Equal(t, "http://www.w3.org/1999/02/22-rdf-syntax-ns#type", RDFType)
	assert.Equal(t, "http://www.w3.org/2000/01/rdf-schema#subClassOf", RDFSSubClassOf)
	assert.Equal(t, NFO+"fileName", Expand("nfo:fileName"))
	assert.Equal(t, "urn:x", Expand("urn:x"))
}

func testCatalog() *Catalog {
	return NewCatalog(
		[]Property{
			{URI: "urn:p#title", Label: "Title"},
			{URI: "urn:p#fileName", Label: "file name"},
			{URI: "urn:p#name", Label: "display"},
			{URI: "urn:p#creator", Label: "creator", RangeIsResource: true, Range: "urn:c#Contact"},
		},
		[]Class{
			{URI: "urn:c#A"},
			{URI: "urn:c#B", SuperClasses: []string{"urn:c#A"}},
			{URI: "urn:c#C", SuperClasses: []string{"urn:c#B"}},
			{URI: "urn:c#X", SuperClasses: []string{"urn:c#Y"}},
			{URI: "urn:c#Y", SuperClasses: []string{"urn:c#X"}},
		},
	)
}

func TestCatalog_MatchField(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name  string
		field string
		want  []string
	}{
		{"exact label case-insensitive", "TITLE", []string{"urn:p#title"}},
		{"exact local name wins over substring", "name", []string{"urn:p#name"}},
		{"substring of label", "file", []string{"urn:p#fileName"}},
		{"substring of uri", "urn:p#cre", []string{"urn:p#creator"}},
		{"several substring matches ordered by uri", "e", []string{"urn:p#creator", "urn:p#fileName", "urn:p#name", "urn:p#title"}},
		{"no match", "zzz", nil},
		{"blank", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range c.MatchField(tt.field) {
				got = append(got, p.URI)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Property(t *testing.T) {
	c := testCatalog()

	p, ok := c.Property("urn:p#creator")
	require.True(t, ok)
	assert.True(t, p.RangeIsResource)

	_, ok = c.Property("urn:p#missing")
	assert.False(t, ok)
}

func TestCatalog_IsSubClassOf(t *testing.T) {
	c := testCatalog()

	assert.True(t, c.IsSubClassOf("urn:c#B", "urn:c#A"))
	assert.True(t, c.IsSubClassOf("urn:c#C", "urn:c#A"), "transitive")
	assert.False(t, c.IsSubClassOf("urn:c#A", "urn:c#B"))
	assert.False(t, c.IsSubClassOf("urn:c#A", "urn:c#A"), "strict")
	assert.False(t, c.IsSubClassOf("urn:c#unknown", "urn:c#A"))
	assert.True(t, c.IsSubClassOf("urn:c#X", "urn:c#Y"))
	assert.False(t, c.IsSubClassOf("urn:c#X", "urn:c#A"), "cycle terminates")
}

func TestNewCatalog_DuplicateReplaces(t *testing.T) {
	c := NewCatalog([]Property{
		{URI: "urn:p", Label: "first"},
		{URI: "urn:p", Label: "second"},
	}, nil)

	require.Len(t, c.Properties(), 1)
	p, _ := c.Property("urn:p")
	assert.Equal(t, "second", p.Label)
}

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)

	label := c.MatchField("label")
	require.Len(t, label, 1)
	assert.Equal(t, RDFSLabel, label[0].URI)

	size, ok := c.Property(NFO + "fileSize")
	require.True(t, ok)
	assert.False(t, size.RangeIsResource)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", size.Range)

	tag, ok := c.Property(NAO + "hasTag")
	require.True(t, ok)
	assert.True(t, tag.RangeIsResource)

	assert.True(t, c.IsSubClassOf(NFOFolder, NIE+"InformationElement"))
	assert.True(t, c.IsSubClassOf(NFO+"PaginatedTextDocument", NFO+"Document"))
	assert.False(t, c.IsSubClassOf(NFOFileDataObject, NFOFolder))
}

func TestCompileCatalog_Inline(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		property: size: {
			uri:   "nfo:fileSize"
			range: "xsd:integer"
		}
	`)

	c, err := CompileCatalog(v)
	require.NoError(t, err)
	p, ok := c.Property(NFO + "fileSize")
	require.True(t, ok)
	assert.Equal(t, "size", p.Label, "label defaults to struct name")
}

func TestCompileCatalog_Empty(t *testing.T) {
	ctx := cuecontext.New()
	_, err := CompileCatalog(ctx.CompileString(`other: 1`))
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestCompileCatalog_SyntaxError(t *testing.T) {
	ctx := cuecontext.New()
	_, err := CompileCatalog(ctx.CompileString(`property: {`))
	require.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("testdata/custom")
	require.NoError(t, err)

	rating, ok := c.Property("http://example.org/onto#rating")
	require.True(t, ok)
	assert.False(t, rating.RangeIsResource)

	author, ok := c.Property("http://example.org/onto#author")
	require.True(t, ok)
	assert.True(t, author.RangeIsResource)

	assert.True(t, c.IsSubClassOf("http://example.org/onto#Author", "http://example.org/onto#Person"))
}

func TestLoadCatalog_MissingURI(t *testing.T) {
	_, err := LoadCatalog("testdata/broken")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "property.nouri.uri", loadErr.Field)
	assert.True(t, loadErr.Pos.IsValid())
}

func TestLoadCatalog_NoFiles(t *testing.T) {
	_, err := LoadCatalog(t.TempDir())
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestLoadCatalog_NotFound(t *testing.T) {
	_, err := LoadCatalog("testdata/does-not-exist")
	assert.Error(t, err)
}
