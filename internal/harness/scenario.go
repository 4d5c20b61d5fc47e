package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/userquery"
)

// Scenario defines one query compilation case.
// A scenario parses Input, applies the query metadata, compiles the result
// and checks the outcome against its assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional directory of CUE ontology files. Relative
	// paths are resolved against the scenario file. Empty means the
	// harness catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Input is the user query text.
	Input string `yaml:"input"`

	// ParserFlags uses the userquery.Flags string form, e.g.
	// "globbing|detect-filename-pattern".
	ParserFlags string `yaml:"parser_flags,omitempty"`

	// Form is select, ask or count. Empty means select.
	Form string `yaml:"form,omitempty"`

	Limit  int `yaml:"limit,omitempty"`
	Offset int `yaml:"offset,omitempty"`

	RequestProperties []RequestProperty `yaml:"request_properties,omitempty"`

	// Flags uses the query.Flags string form, e.g. "no-result-restrictions".
	Flags string `yaml:"flags,omitempty"`

	FullTextScoring bool `yaml:"full_text_scoring,omitempty"`

	// FileMode, IncludeFolders and ExcludeFolders turn the query into a
	// file query when any of them is set.
	FileMode       string   `yaml:"file_mode,omitempty"`
	IncludeFolders []string `yaml:"include_folders,omitempty"`
	ExcludeFolders []string `yaml:"exclude_folders,omitempty"`

	// Assertions validate the parsed term and the compiled text.
	Assertions []Assertion `yaml:"assertions"`
}

// RequestProperty mirrors query.RequestProperty in YAML.
type RequestProperty struct {
	Property string `yaml:"property"`
	Optional bool   `yaml:"optional,omitempty"`
}

// IsFileQuery reports whether the scenario sets any file query option.
func (s *Scenario) IsFileQuery() bool {
	return s.FileMode != "" || len(s.IncludeFolders) > 0 || len(s.ExcludeFolders) > 0
}

// Assertion validates one aspect of a scenario result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "valid": the parsed query is valid
	// - "invalid": the parsed query is invalid and compiles to nothing
	// - "term_equals": the rendered term equals Value
	// - "sparql_contains": the compiled text contains Value
	// - "sparql_not_contains": the compiled text does not contain Value
	// - "round_trip": the query survives serialization and a saved-search
	//   store round trip unchanged
	Type string `yaml:"type"`

	// Value is the expected text (used by term_equals and the sparql
	// assertions).
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertValid             = "valid"
	AssertInvalid           = "invalid"
	AssertTermEquals        = "term_equals"
	AssertSPARQLContains    = "sparql_contains"
	AssertSPARQLNotContains = "sparql_not_contains"
	AssertRoundTrip         = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if scenario.Catalog != "" {
		if _, err := os.Stat(scenario.Catalog); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: catalog directory not found: %s", scenario.Catalog)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML held in memory. Relative catalog
// paths are left as given.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == "" {
		return fmt.Errorf("input is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := userquery.ParseFlags(s.ParserFlags); err != nil {
		return fmt.Errorf("parser_flags: %w", err)
	}
	if _, err := sparql.ParseForm(s.Form); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	if _, err := query.ParseFlags(s.Flags); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	if _, err := query.ParseFileMode(s.FileMode); err != nil {
		return fmt.Errorf("file_mode: %w", err)
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if s.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}

	for i, rp := range s.RequestProperties {
		if rp.Property == "" {
			return fmt.Errorf("request_properties[%d]: property is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTermEquals, AssertSPARQLContains, AssertSPARQLNotContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertValid, AssertInvalid, AssertRoundTrip:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
