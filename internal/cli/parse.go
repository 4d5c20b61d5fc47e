package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	ParserFlags string
}

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Input       string          `json:"input"`
	Valid       bool            `json:"valid"`
	Term        string          `json:"term"`
	Query       json.RawMessage `json:"query"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <query text>...",
		Short: "Parse user query text into a term",
		Long: `Parse desktop search query text into a query term.

All arguments are joined with spaces. Field names resolve against the
configured ontology catalog.

Exit codes:
  0 - Query is valid
  1 - Query is invalid
  2 - Command error

Examples:
  semquery parse 'hello -world'
  semquery parse 'filename:*.mp3 OR tag:<urn:tag:music>'
  semquery parse --format json 'size>1000'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args, cmd)
		},
	}

	addParserFlags(cmd, &opts.ParserFlags)

	return cmd
}

func runParse(opts *ParseOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, text, err := opts.parseQuery(formatter, args, opts.ParserFlags)
	if err != nil {
		return err
	}

	result, err := newParseResult(text, q)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	if !result.Valid {
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, result.Term)
		}
		return formatter.Failure(ErrCodeInvalidQuery, "query is invalid", result)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Term)
	return nil
}

func newParseResult(text string, q query.Query) (ParseResult, error) {
	canonical, err := term.MarshalCanonical(query.Object(q))
	if err != nil {
		return ParseResult{}, err
	}
	result := ParseResult{
		Input: text,
		Valid: q.IsValid(),
		Term:  term.String(q.Term),
		Query: canonical,
	}
	if result.Valid {
		fp, err := query.Fingerprint(q)
		if err != nil {
			return ParseResult{}, err
		}
		result.Fingerprint = fp
	}
	return result, nil
}
