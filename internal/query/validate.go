package query

import (
	"fmt"

	"github.com/roach88/semquery/internal/term"
)

// ValidationResult explains why a query is or is not usable.
type ValidationResult struct {
	// Valid matches Query.IsValid: the root term can match something.
	Valid bool

	// Errors lists the reasons the root term is invalid, each prefixed with
	// the path of the offending node. Empty when Valid is true.
	Errors []string

	// Warnings lists metadata the compiler will ignore or clamp. They do
	// not affect Valid.
	Warnings []string
}

// Validate inspects q and reports every problem it finds.
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{
		errors:   []string{},
		warnings: []string{},
	}
	v.validateTerm("term", q.Term)
	v.validateMetadata(q)

	return ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

// validator accumulates findings during traversal.
type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, path+": "+fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validateTerm records one error per invalid leaf so the caller can see
// every culprit, not only the first.
func (v *validator) validateTerm(path string, t term.Term) {
	switch t := t.(type) {
	case nil:
		v.addError(path, "missing term")
	case term.Invalid:
		v.addError(path, "invalid term")
	case term.Literal:
		if t.Value == nil {
			v.addError(path, "literal without value")
		}
	case term.Resource:
		if t.URI == "" {
			v.addError(path, "resource without uri")
		}
	case term.ResourceType:
		if len(t.Types) == 0 {
			v.addError(path, "resource type without classes")
		}
	case term.Comparison:
		// Comparisons are valid with any sub-term; an invalid sub-term is a
		// wildcard.
	case term.And:
		v.validateGroup(path+".and", t.Terms)
	case term.Or:
		v.validateGroup(path+".or", t.Terms)
	case term.Negation:
		v.validateTerm(path+".not", t.Sub)
	case term.Optional:
		v.validateTerm(path+".optional", t.Sub)
	}
}

func (v *validator) validateGroup(path string, terms []term.Term) {
	if len(terms) == 0 {
		v.addError(path, "empty group")
		return
	}
	for i, t := range terms {
		v.validateTerm(fmt.Sprintf("%s[%d]", path, i), t)
	}
}

func (v *validator) validateMetadata(q Query) {
	if q.Limit < 0 {
		v.addWarning("negative limit %d is treated as unbounded", q.Limit)
	}
	if q.Offset < 0 {
		v.addWarning("negative offset %d is ignored", q.Offset)
	}

	seen := make(map[string]bool, len(q.RequestProperties))
	for i, rp := range q.RequestProperties {
		if rp.Property == "" {
			v.addWarning("request property %d has no property uri and matches any property", i+1)
		}
		if seen[rp.Property] {
			v.addWarning("request property <%s> is requested more than once", rp.Property)
		}
		seen[rp.Property] = true
	}

	if !q.fileQuery {
		if len(q.IncludeFolders) > 0 || len(q.ExcludeFolders) > 0 || q.FileMode != FileModeBoth {
			v.addWarning("file extensions are set on a plain query and will be ignored")
		}
		return
	}
	for _, f := range q.IncludeFolders {
		if f == "" {
			v.addWarning("empty include folder matches every url")
		}
	}
	for _, f := range q.ExcludeFolders {
		if f == "" {
			v.addWarning("empty exclude folder excludes every url")
		}
	}
}
