package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/term"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ParserFlags string
}

// ValidationOutput is the JSON payload of the validate command.
type ValidationOutput struct {
	Input    string   `json:"input"`
	Valid    bool     `json:"valid"`
	Term     string   `json:"term"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query text>...",
		Short: "Check that query text parses into a usable query",
		Long: `Parse query text and report every invalid part of the result.

Exit codes:
  0 - Query is valid (warnings may be present)
  1 - Query is invalid
  2 - Command error

Examples:
  semquery validate 'hello world'
  semquery validate --format json 'nosuchfield:foo'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	addParserFlags(cmd, &opts.ParserFlags)

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, text, err := opts.parseQuery(formatter, args, opts.ParserFlags)
	if err != nil {
		return err
	}

	v := query.Validate(q)
	output := ValidationOutput{
		Input:    text,
		Valid:    v.Valid,
		Term:     term.String(q.Term),
		Errors:   v.Errors,
		Warnings: v.Warnings,
	}

	if !v.Valid {
		if formatter.Format != "json" {
			fmt.Fprintf(formatter.Writer, "✗ Query invalid: %s\n", output.Term)
			for _, e := range output.Errors {
				fmt.Fprintf(formatter.Writer, "  - %s\n", e)
			}
		}
		return formatter.Failure(ErrCodeInvalidQuery,
			fmt.Sprintf("query has %d error(s)", len(output.Errors)), output)
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}
	fmt.Fprintf(formatter.Writer, "✓ Query valid: %s\n", output.Term)
	for _, w := range output.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
	}
	return nil
}
