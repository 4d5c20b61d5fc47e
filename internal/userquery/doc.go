// Package userquery parses the compact search syntax users type into a
// search box.
//
// SYNTAX:
//
//	hello world            two full-text literals, ANDed
//	'hello world'          one literal (single or double quotes)
//	title:report           field comparison, ':' means contains
//	size>=1000             field comparison with =, <, >, <=, >=
//	creator:(name:anna)    nested comparison on a related resource
//	tag:<urn:tag:work>     comparison against a resource
//	<urn:p#title>:report   comparison on a fully qualified property
//	-title:draft           negation; also !, and "not "
//	a OR b, a AND b        keyword operators (configurable, case-insensitive)
//
// Field names resolve through a FieldMatcher, normally an ontology.Catalog
// behind a FieldCache. A field that resolves to nothing invalidates the
// whole parse. Several candidates become an Or of comparisons, capped at a
// configurable maximum.
//
// Parse behaviour is tuned with Flags. All of them are opt-in and a Parse
// call with NoFlags applies none: in particular MergeLiterals is off by
// default in this package, so "hello world" stays two literals unless the
// caller asks for merging. The semquery config turns it on for the CLI.
package userquery
