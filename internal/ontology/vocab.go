package ontology

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/rdfs"
)

// Desktop ontology namespaces.
const (
	NIE = "http://www.semanticdesktop.org/ontologies/2007/01/19/nie#"
	NFO = "http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#"
	NAO = "http://www.semanticdesktop.org/ontologies/2007/08/15/nao#"
	NCO = "http://www.semanticdesktop.org/ontologies/2007/03/22/nco#"
)

func init() {
	voc.RegisterPrefix("nie:", NIE)
	voc.RegisterPrefix("nfo:", NFO)
	voc.RegisterPrefix("nao:", NAO)
	voc.RegisterPrefix("nco:", NCO)
}

// Well-known IRIs, fully expanded.
var (
	RDFType           = full(rdf.Type)
	RDFSResource      = full(rdfs.Resource)
	RDFSLabel         = full(rdfs.Label)
	RDFSSubClassOf    = full(rdfs.SubClassOf)
	RDFSSubPropertyOf = full(rdfs.SubPropertyOf)

	NIEUrl            = NIE + "url"
	NFOFileName       = NFO + "fileName"
	NFOFileDataObject = NFO + "FileDataObject"
	NFOFolder         = NFO + "Folder"
	NAOUserVisible    = NAO + "userVisible"
	NAOPrefLabel      = NAO + "prefLabel"
)

func full(iri string) string {
	return string(quad.IRI(iri).Full())
}

// Expand resolves a prefixed name such as "nfo:fileName" against the
// registered namespaces. Full IRIs are returned unchanged.
func Expand(iri string) string {
	return full(iri)
}

// Shorten is the inverse of Expand where a registered prefix applies.
func Shorten(iri string) string {
	return string(quad.IRI(iri).Short())
}
