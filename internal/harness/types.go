package harness

import (
	"github.com/roach88/semquery/internal/query"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Form is the compiled query form.
	Form string `json:"form"`

	// Term is the parsed term rendered with term.String.
	Term string `json:"term"`

	// SPARQL is the compiled text. Empty when the query is invalid.
	SPARQL string `json:"sparql"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Query is the query that was compiled.
	Query query.Query `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
