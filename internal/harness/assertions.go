package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/serial"
	"github.com/roach88/semquery/internal/store"
	"github.com/roach88/semquery/internal/testutil"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Term     string // Parsed term for debugging context
	SPARQL   string // Compiled text for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nTerm:\n  %s\n", e.Term)
	if e.SPARQL != "" {
		fmt.Fprintf(&buf, "SPARQL:\n  %s\n", e.SPARQL)
	}

	return buf.String()
}

func newAssertionError(result *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Term:     result.Term,
		SPARQL:   result.SPARQL,
	}
}

// assertValid checks that the parsed query is valid and compiled to
// something.
func assertValid(result *Result) error {
	if !result.Query.IsValid() || result.SPARQL == "" {
		return newAssertionError(result, AssertValid, "valid query", "invalid query")
	}
	return nil
}

// assertInvalid checks that the parsed query is invalid and compiled to
// nothing.
func assertInvalid(result *Result) error {
	if result.Query.IsValid() || result.SPARQL != "" {
		return newAssertionError(result, AssertInvalid, "invalid query", "valid query")
	}
	return nil
}

func assertTermEquals(result *Result, assertion Assertion) error {
	if result.Term != assertion.Value {
		return newAssertionError(result, AssertTermEquals, assertion.Value, result.Term)
	}
	return nil
}

func assertSPARQLContains(result *Result, assertion Assertion) error {
	if !strings.Contains(result.SPARQL, assertion.Value) {
		return newAssertionError(result, AssertSPARQLContains,
			fmt.Sprintf("text containing %q", assertion.Value), "not found")
	}
	return nil
}

func assertSPARQLNotContains(result *Result, assertion Assertion) error {
	if strings.Contains(result.SPARQL, assertion.Value) {
		return newAssertionError(result, AssertSPARQLNotContains,
			fmt.Sprintf("text without %q", assertion.Value), "found")
	}
	return nil
}

// assertRoundTrip pushes the query through the XML form, the search URL
// and a fresh in-memory saved-search store, and checks that each copy
// equals the original.
func assertRoundTrip(ctx context.Context, logger *slog.Logger, result *Result) error {
	q := result.Query
	if !q.IsValid() {
		return newAssertionError(result, AssertRoundTrip, "storable query", "invalid query")
	}

	data, err := serial.Marshal(q)
	if err != nil {
		return fmt.Errorf("round_trip: encode: %w", err)
	}
	decoded, err := serial.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("round_trip: decode: %w", err)
	}
	if !q.Equal(&decoded) {
		return newAssertionError(result, AssertRoundTrip, q.String(), "serialized as "+decoded.String())
	}

	url, err := serial.SearchURL(q, "round trip")
	if err != nil {
		return fmt.Errorf("round_trip: search url: %w", err)
	}
	fromURL, _, err := serial.ParseSearchURL(url)
	if err != nil {
		return fmt.Errorf("round_trip: parse search url: %w", err)
	}
	if !q.Equal(&fromURL) {
		return newAssertionError(result, AssertRoundTrip, q.String(), "search url gave "+fromURL.String())
	}

	// Each round trip gets a fresh database for isolation.
	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequentialIDs("scenario")),
		store.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("round_trip: failed to create in-memory store: %w", err)
	}
	defer st.Close()

	saved, _, err := st.Save(ctx, "round trip", q)
	if err != nil {
		return fmt.Errorf("round_trip: save: %w", err)
	}
	loaded, err := st.Get(ctx, saved.ID)
	if err != nil {
		return fmt.Errorf("round_trip: load: %w", err)
	}
	if !q.Equal(&loaded.Query) {
		return newAssertionError(result, AssertRoundTrip, q.String(), "stored as "+loaded.Query.String())
	}
	if want := query.MustFingerprint(q); loaded.Fingerprint != want {
		return newAssertionError(result, AssertRoundTrip, "fingerprint "+want, "fingerprint "+loaded.Fingerprint)
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx    context.Context
	Logger *slog.Logger
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter is required by round_trip assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertValid:
			err = assertValid(result)
		case AssertInvalid:
			err = assertInvalid(result)
		case AssertTermEquals:
			err = assertTermEquals(result, assertion)
		case AssertSPARQLContains:
			err = assertSPARQLContains(result, assertion)
		case AssertSPARQLNotContains:
			err = assertSPARQLNotContains(result, assertion)
		case AssertRoundTrip:
			if actx == nil || actx.Ctx == nil {
				err = fmt.Errorf("assertion[%d]: round_trip requires a context", i)
			} else {
				logger := actx.Logger
				if logger == nil {
					logger = slog.Default()
				}
				err = assertRoundTrip(actx.Ctx, logger, result)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
