// Package harness provides a scenario runner for the query pipeline.
//
// A scenario is a YAML file naming one user query plus the metadata needed
// to compile it. The harness parses the input against an ontology catalog,
// applies the metadata, compiles the query and evaluates the scenario's
// assertions. Snapshots of the parsed term and compiled text can be pinned
// in golden files.
//
// # Scenario Format
//
//	name: tag_resource
//	description: "Tag comparison against a resource compiles to a direct triple"
//	input: "tag:<urn:tag:work>"
//	parser_flags: detect-filename-pattern
//	form: select
//	limit: 10
//	offset: 5
//	flags: no-result-restrictions|without-full-text-excerpt
//	request_properties:
//	  - property: nfo:fileName
//	    optional: true
//	file_mode: files
//	include_folders: [file:///home/user/music]
//	catalog: ../catalog
//	assertions:
//	  - type: valid
//	  - type: sparql_contains
//	    value: "nao#hasTag"
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - valid: The parsed query is valid and compiles to non-empty text
//   - invalid: The parsed query is invalid and compiles to nothing
//   - term_equals: The parsed term renders exactly as value
//   - sparql_contains: The compiled text contains value
//   - sparql_not_contains: The compiled text does not contain value
//   - round_trip: The query survives the XML form, the search URL and a
//     saved-search store unchanged
//
// # Golden Files
//
// Snapshot renders the input, form, term and compiled text. RunWithGolden
// compares it with testdata/golden/{name}.golden through goldie; the CLI
// uses WriteGolden and CompareGolden against a directory of its choice.
package harness
