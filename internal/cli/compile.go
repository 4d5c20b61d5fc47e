package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/term"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ParserFlags       string
	Form              string
	Limit             int
	Offset            int
	RequestProperties []string // "uri" or "uri?" for optional
	FileMode          string
	IncludeFolders    []string
	ExcludeFolders    []string
	Scoring           bool
	Descending        bool
	NoRestrictions    bool
	WithoutExcerpt    bool
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	Input  string `json:"input"`
	Form   string `json:"form"`
	Term   string `json:"term"`
	Query  string `json:"query"`
	SPARQL string `json:"sparql"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query text>...",
		Short: "Compile user query text to SPARQL",
		Long: `Parse desktop search query text and compile it to SPARQL.

Query metadata (limit, offset, request properties, file restrictions)
is taken from flags; flags left unset fall back to the config file.

Examples:
  semquery compile 'hello world'
  semquery compile --form count 'tag:<urn:tag:work>'
  semquery compile --file-mode files --include-folder file:///home/me/music '*.mp3'
  semquery compile --request-property nfo:fileName --request-property 'nie:url?' report`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	addParserFlags(cmd, &opts.ParserFlags)
	cmd.Flags().StringVar(&opts.Form, "form", "select", "query form (select|ask|count)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (0 = unbounded)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of results to skip")
	cmd.Flags().StringArrayVar(&opts.RequestProperties, "request-property", nil,
		"extra property to bind; suffix with ? to make it optional (repeatable)")
	cmd.Flags().StringVar(&opts.FileMode, "file-mode", "", "restrict to files, folders or both (makes a file query)")
	cmd.Flags().StringArrayVar(&opts.IncludeFolders, "include-folder", nil, "only match entries below this folder URL (repeatable)")
	cmd.Flags().StringArrayVar(&opts.ExcludeFolders, "exclude-folder", nil, "skip entries below this folder URL (repeatable)")
	cmd.Flags().BoolVar(&opts.Scoring, "scoring", false, "order by full text score")
	cmd.Flags().BoolVar(&opts.Descending, "descending", false, "with --scoring, best matches first")
	cmd.Flags().BoolVar(&opts.NoRestrictions, "no-result-restrictions", false, "drop the user visibility filter")
	cmd.Flags().BoolVar(&opts.WithoutExcerpt, "without-excerpt", false, "drop the full text excerpt projection")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	form, err := sparql.ParseForm(opts.Form)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
	}
	mode, err := query.ParseFileMode(opts.FileMode)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, "limit and offset must not be negative", nil)
	}

	q, text, err := opts.parseQuery(formatter, args, opts.ParserFlags)
	if err != nil {
		return err
	}
	opts.applyMetadata(cmd, &q, mode)

	compiler, err := opts.newCompiler()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	result := CompilationResult{
		Input:  text,
		Form:   form.String(),
		Term:   term.String(q.Term),
		Query:  q.String(),
		SPARQL: compiler.Compile(q, form),
	}

	if !q.IsValid() {
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, result.Term)
		}
		return formatter.Failure(ErrCodeInvalidQuery, "query is invalid", result)
	}

	formatter.VerboseLog("Compiled %s", result.Query)
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.SPARQL)
	return nil
}

// applyMetadata copies the metadata flags onto q. Flags the user did not
// set leave the config values in place.
func (opts *CompileOptions) applyMetadata(cmd *cobra.Command, q *query.Query, mode query.FileMode) {
	q.Limit = opts.Limit
	q.Offset = opts.Offset
	for _, rp := range opts.RequestProperties {
		uri, optional := strings.CutSuffix(rp, "?")
		q.AddRequestProperty(ontology.Expand(uri), optional)
	}

	if cmd.Flags().Changed("scoring") {
		q.FullTextScoring = opts.Scoring
	}
	if opts.Descending {
		q.FullTextSortOrder = term.Descending
	}
	if cmd.Flags().Changed("no-result-restrictions") {
		q.SetFlag(query.NoResultRestrictions, opts.NoRestrictions)
	}
	if cmd.Flags().Changed("without-excerpt") {
		q.SetFlag(query.WithoutFullTextExcerpt, opts.WithoutExcerpt)
	}

	if opts.FileMode != "" || len(opts.IncludeFolders) > 0 || len(opts.ExcludeFolders) > 0 {
		fq := q.AsFileQuery()
		fq.FileMode = mode
		for _, url := range opts.IncludeFolders {
			fq.AddIncludeFolder(url)
		}
		for _, url := range opts.ExcludeFolders {
			fq.AddExcludeFolder(url)
		}
	}
}
