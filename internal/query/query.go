package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/semquery/internal/term"
)

// RequestProperty asks for an extra binding alongside the primary result.
// Optional properties do not restrict the result set.
type RequestProperty struct {
	Property string
	Optional bool
}

// Flags toggles parts of the generated query.
type Flags uint8

const (
	// NoResultRestrictions drops the user-visibility filter.
	NoResultRestrictions Flags = 1 << iota
	// WithoutFullTextExcerpt drops the excerpt projection.
	WithoutFullTextExcerpt
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{NoResultRestrictions, "no-result-restrictions"},
	{WithoutFullTextExcerpt, "without-full-text-excerpt"},
}

// Has reports whether every bit in f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String joins the set flag names with "|". No flags yields "".
func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// Names returns the set flag names in declaration order.
func (f Flags) Names() []string {
	if f == 0 {
		return nil
	}
	return strings.Split(f.String(), "|")
}

// ParseFlags is the inverse of Flags.String.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	if s == "" {
		return f, nil
	}
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		flag, ok := lookupFlag(part)
		if !ok {
			return 0, fmt.Errorf("unknown query flag %q", part)
		}
		f |= flag
	}
	return f, nil
}

func lookupFlag(name string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// FileMode restricts a file query to files, folders or both.
type FileMode int

const (
	FileModeBoth FileMode = iota
	FileModeFiles
	FileModeFolders
)

func (m FileMode) String() string {
	switch m {
	case FileModeFiles:
		return "files"
	case FileModeFolders:
		return "folders"
	default:
		return "both"
	}
}

// ParseFileMode is the inverse of FileMode.String. The empty string parses
// as FileModeBoth.
func ParseFileMode(s string) (FileMode, error) {
	switch s {
	case "", "both":
		return FileModeBoth, nil
	case "files":
		return FileModeFiles, nil
	case "folders":
		return FileModeFolders, nil
	default:
		return FileModeBoth, fmt.Errorf("unknown file mode %q", s)
	}
}

// Query is a root term plus execution metadata.
type Query struct {
	Term term.Term

	// Limit caps the number of results; 0 means unbounded.
	Limit  int
	Offset int

	RequestProperties []RequestProperty

	FullTextScoring   bool
	FullTextSortOrder term.SortOrder

	Flags Flags

	// File extensions. Only honored when the query is tagged as a file
	// query.
	IncludeFolders []string
	ExcludeFolders []string
	FileMode       FileMode

	fileQuery bool
}

// New returns a query over t with default metadata.
func New(t term.Term) Query {
	return Query{Term: t}
}

// IsValid reports whether the root term is valid.
func (q *Query) IsValid() bool {
	return term.IsValid(q.Term)
}

// IsFileQuery reports whether the file extensions are active.
func (q *Query) IsFileQuery() bool {
	return q.fileQuery
}

// AddRequestProperty appends an extra binding request.
func (q *Query) AddRequestProperty(property string, optional bool) {
	q.RequestProperties = append(q.RequestProperties, RequestProperty{Property: property, Optional: optional})
}

// SetFlag turns f on or off.
func (q *Query) SetFlag(f Flags, on bool) {
	if on {
		q.Flags |= f
	} else {
		q.Flags &^= f
	}
}

// AsFileQuery tags q as a file query and returns a view sharing its storage.
func (q *Query) AsFileQuery() FileQuery {
	q.fileQuery = true
	return FileQuery{Query: q}
}

// Equal reports whether q and o describe the same query.
func (q *Query) Equal(o *Query) bool {
	return term.Equal(q.Term, o.Term) &&
		q.Limit == o.Limit &&
		q.Offset == o.Offset &&
		slices.Equal(q.RequestProperties, o.RequestProperties) &&
		q.FullTextScoring == o.FullTextScoring &&
		q.FullTextSortOrder == o.FullTextSortOrder &&
		q.Flags == o.Flags &&
		q.fileQuery == o.fileQuery &&
		equalStrings(q.IncludeFolders, o.IncludeFolders) &&
		equalStrings(q.ExcludeFolders, o.ExcludeFolders) &&
		q.FileMode == o.FileMode
}

// equalStrings treats nil and empty as equal.
func equalStrings(a, b []string) bool {
	return len(a) == len(b) && slices.Equal(a, b)
}

// String renders q for logs.
func (q *Query) String() string {
	var b strings.Builder
	if q.fileQuery {
		b.WriteString("FileQuery(")
	} else {
		b.WriteString("Query(")
	}
	b.WriteString(term.String(q.Term))
	if q.Limit > 0 {
		fmt.Fprintf(&b, " limit=%d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " offset=%d", q.Offset)
	}
	for _, rp := range q.RequestProperties {
		if rp.Optional {
			fmt.Fprintf(&b, " request=<%s>?", rp.Property)
		} else {
			fmt.Fprintf(&b, " request=<%s>", rp.Property)
		}
	}
	if q.FullTextScoring {
		fmt.Fprintf(&b, " scoring=%s", q.FullTextSortOrder)
	}
	if q.Flags != 0 {
		fmt.Fprintf(&b, " flags=%s", q.Flags)
	}
	if q.fileQuery {
		fmt.Fprintf(&b, " mode=%s", q.FileMode)
		for _, f := range q.IncludeFolders {
			fmt.Fprintf(&b, " include=<%s>", f)
		}
		for _, f := range q.ExcludeFolders {
			fmt.Fprintf(&b, " exclude=<%s>", f)
		}
	}
	b.WriteString(")")
	return b.String()
}

// FileQuery is a Query tagged with active file extensions.
type FileQuery struct {
	*Query
}

// NewFileQuery returns a file query over t matching files and folders.
func NewFileQuery(t term.Term) FileQuery {
	q := New(t)
	return q.AsFileQuery()
}

// AddIncludeFolder restricts results to entries below url.
func (f FileQuery) AddIncludeFolder(url string) {
	f.IncludeFolders = append(f.IncludeFolders, url)
}

// AddExcludeFolder removes entries below url from the results.
func (f FileQuery) AddExcludeFolder(url string) {
	f.ExcludeFolders = append(f.ExcludeFolders, url)
}
