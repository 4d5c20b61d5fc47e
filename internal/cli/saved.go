package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/store"
	"github.com/roach88/semquery/internal/term"
)

// SavedOptions holds flags shared by the saved subcommands.
type SavedOptions struct {
	*RootOptions
	DBPath      string
	ParserFlags string
	Form        string
}

// SavedOutput describes one saved search.
type SavedOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Fingerprint string `json:"fingerprint"`
	Seq         int64  `json:"seq"`
	Term        string `json:"term"`
	Query       string `json:"query"`
	Inserted    *bool  `json:"inserted,omitempty"`
	SPARQL      string `json:"sparql,omitempty"`
}

// NewSavedCommand creates the saved command and its subcommands.
func NewSavedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SavedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved searches",
		Long: `Store, list, show and delete saved searches.

The database path comes from --db, or the store setting in the config
file.

Examples:
  semquery saved save 'Work mail' 'tag:<urn:tag:work>'
  semquery saved list
  semquery saved show --form count <id>
  semquery saved delete <id>`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "saved-search database (overrides config)")

	save := &cobra.Command{
		Use:           "save <title> <query text>...",
		Short:         "Parse query text and store it under a title",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedSave(opts, args[0], args[1:], cmd)
		},
	}
	addParserFlags(save, &opts.ParserFlags)

	list := &cobra.Command{
		Use:           "list",
		Short:         "List saved searches in the order they were stored",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedList(opts, cmd)
		},
	}

	show := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one saved search",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedShow(opts, args[0], cmd)
		},
	}
	show.Flags().StringVar(&opts.Form, "form", "", "also compile the query (select|ask|count)")

	del := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved search",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSavedDelete(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(save, list, show, del)
	return cmd
}

func (opts *SavedOptions) openStore() (*store.Store, error) {
	path := opts.DBPath
	if path == "" {
		path = opts.settings().Store
	}
	return store.Open(path, store.WithLogger(opts.logger()))
}

// storeFailure maps a store error onto the CLI error codes.
func storeFailure(f *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, err.Error(), nil)
	}
	if errors.Is(err, store.ErrInvalidQuery) {
		return f.Fail(ExitFailure, ErrCodeInvalidQuery, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
}

func newSavedOutput(saved store.SavedQuery) SavedOutput {
	return SavedOutput{
		ID:          saved.ID,
		Title:       saved.Title,
		Fingerprint: saved.Fingerprint,
		Seq:         saved.Seq,
		Term:        term.String(saved.Query.Term),
		Query:       saved.Query.String(),
	}
}

func runSavedSave(opts *SavedOptions, title string, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, _, err := opts.parseQuery(formatter, args, opts.ParserFlags)
	if err != nil {
		return err
	}

	s, err := opts.openStore()
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer s.Close()

	saved, inserted, err := s.Save(cmd.Context(), title, q)
	if err != nil {
		return storeFailure(formatter, err)
	}

	output := newSavedOutput(saved)
	output.Inserted = &inserted
	if formatter.Format == "json" {
		return formatter.Success(output)
	}
	if inserted {
		fmt.Fprintf(formatter.Writer, "Saved %s (%s)\n", output.ID, output.Title)
	} else {
		fmt.Fprintf(formatter.Writer, "Already saved as %s (%s)\n", output.ID, output.Title)
	}
	return nil
}

func runSavedList(opts *SavedOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := opts.openStore()
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer s.Close()

	all, err := s.List(cmd.Context())
	if err != nil {
		return storeFailure(formatter, err)
	}

	outputs := make([]SavedOutput, 0, len(all))
	for _, saved := range all {
		outputs = append(outputs, newSavedOutput(saved))
	}
	if formatter.Format == "json" {
		return formatter.Success(outputs)
	}
	if len(outputs) == 0 {
		fmt.Fprintln(formatter.Writer, "No saved searches")
		return nil
	}
	for _, o := range outputs {
		fmt.Fprintf(formatter.Writer, "%s\t%s\t%s\n", o.ID, o.Title, o.Term)
	}
	return nil
}

func runSavedShow(opts *SavedOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var form sparql.Form
	if opts.Form != "" {
		f, err := sparql.ParseForm(opts.Form)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
		}
		form = f
	}

	s, err := opts.openStore()
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer s.Close()

	saved, err := s.Get(cmd.Context(), id)
	if err != nil {
		return storeFailure(formatter, err)
	}

	output := newSavedOutput(saved)
	if opts.Form != "" {
		compiler, err := opts.newCompiler()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		output.SPARQL = compiler.Compile(saved.Query, form)
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}
	fmt.Fprintf(formatter.Writer, "ID:          %s\n", output.ID)
	fmt.Fprintf(formatter.Writer, "Title:       %s\n", output.Title)
	fmt.Fprintf(formatter.Writer, "Fingerprint: %s\n", output.Fingerprint)
	fmt.Fprintf(formatter.Writer, "Query:       %s\n", output.Query)
	if output.SPARQL != "" {
		fmt.Fprintf(formatter.Writer, "SPARQL:      %s\n", output.SPARQL)
	}
	return nil
}

func runSavedDelete(opts *SavedOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := opts.openStore()
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer s.Close()

	if err := s.Delete(cmd.Context(), id); err != nil {
		return storeFailure(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "Deleted %s\n", id)
	return nil
}
