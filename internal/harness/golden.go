package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSuffix is the file extension of golden snapshots.
const GoldenSuffix = ".golden"

// Snapshot renders the part of a result that golden files pin down: the
// input, the form, the parsed term and the compiled text. The output is
// deterministic for a given scenario and catalog.
func Snapshot(scenario *Scenario, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenario.Name)
	fmt.Fprintf(&buf, "input: %s\n", scenario.Input)
	fmt.Fprintf(&buf, "form: %s\n", result.Form)
	fmt.Fprintf(&buf, "term: %s\n", result.Term)
	buf.WriteString("\n")
	buf.WriteString(result.SPARQL)
	buf.WriteString("\n")
	return buf.Bytes()
}

// GoldenPath returns the golden file of a scenario inside dir.
func GoldenPath(dir string, scenario *Scenario) string {
	return filepath.Join(dir, scenario.Name+GoldenSuffix)
}

// WriteGolden stores the snapshot of result as the scenario's golden file,
// creating dir if needed.
func WriteGolden(dir string, scenario *Scenario, result *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, scenario), Snapshot(scenario, result), 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the scenario's golden file in dir matches
// result. A missing golden file is reported through os.ErrNotExist.
func CompareGolden(dir string, scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(dir, scenario))
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(want, Snapshot(scenario, result)), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario, result))
}
