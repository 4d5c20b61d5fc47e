// Package sparql compiles queries into SPARQL text for a Virtuoso-style
// triple store.
//
// Compilation is a pure function of the query: the same query always
// produces byte-identical text, including variable numbering. Each call
// allocates its own builder state, so one Compiler can serve concurrent
// callers.
//
// The root term is first optimized (optimize.Term, then optimize.EvenMore)
// and then walked with the primary result bound to ?r. Every term kind
// produces a graph-pattern fragment whose statements end in " . ".
//
// OUTPUT FORMS:
//
//	select distinct ?r <extra> where { <pattern>} [ORDER BY ...] [OFFSET n] [LIMIT n]
//	ask where { <pattern>}
//	select count(distinct ?r) as ?cnt where { <pattern>}
//	select count(*) as ?cnt where { { select distinct ?r <extra> where { <pattern>} } }
//
// The nested count form is used whenever extra variables are projected so
// that rows, not subjects, are counted.
//
// An invalid root term compiles to the empty string.
package sparql
