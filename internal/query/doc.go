// Package query wraps a root term.Term with the execution metadata the
// SPARQL compiler and the serializer need.
//
// A Query is built by a surface encoding (userquery, serial) or by hand,
// refined through its fields and setter methods, and then handed to the
// compiler or serializer. Neither consumer mutates it.
//
// FILE QUERIES:
//
// A FileQuery is not a separate type of data. It is the same Query with a
// tag that activates the file extensions (FileMode, IncludeFolders,
// ExcludeFolders). AsFileQuery sets the tag in place; no copy is made.
//
//	q := query.New(term.Text("report"))
//	fq := q.AsFileQuery()
//	fq.FileMode = query.FileModeFiles // writes through to q
//
// Without the tag the compiler ignores the file extensions entirely.
package query
