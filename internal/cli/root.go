package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/config"
	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/userquery"
)

// RootOptions holds global flags for all commands, plus the settings
// loaded from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are filled in before any subcommand runs. Commands
	// built directly (tests) fall back to the defaults.
	Config *config.Config
	Logger *slog.Logger

	catalog *ontology.Catalog
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the semquery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "semquery",
		Short: "semquery - desktop search query compiler",
		Long: `Parse desktop search queries, compile them to SPARQL and
manage saved searches.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load(cmd.ErrOrStderr())
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (YAML)")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSavedCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// load reads the config file and builds the logger. Verbose raises the
// log level to debug.
func (o *RootOptions) load(stderr io.Writer) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load config", err)
	}
	if o.Verbose {
		cfg.Logger.Level = "debug"
	}
	logger, err := cfg.Logger.NewLogger(stderr)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot create logger", err)
	}
	o.Config = &cfg
	o.Logger = logger
	return nil
}

func (o *RootOptions) settings() config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return *o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadCatalog returns the configured catalog, loading it once.
func (o *RootOptions) loadCatalog() (*ontology.Catalog, error) {
	if o.catalog != nil {
		return o.catalog, nil
	}
	c, err := o.settings().OpenCatalog()
	if err != nil {
		return nil, err
	}
	o.catalog = c
	return c, nil
}

// newParser builds a parser from the config's parser section.
func (o *RootOptions) newParser() (*userquery.Parser, error) {
	c, err := o.loadCatalog()
	if err != nil {
		return nil, err
	}
	return userquery.NewParser(c, o.settings().Parser.Options(o.logger())...)
}

// newCompiler builds a compiler over the configured catalog.
func (o *RootOptions) newCompiler() (*sparql.Compiler, error) {
	c, err := o.loadCatalog()
	if err != nil {
		return nil, err
	}
	return sparql.NewCompiler(sparql.WithSchema(c), sparql.WithLogger(o.logger()))
}

// parseArgs joins args into one query text and parses it with the
// compiler settings from the config. A non-empty parserFlags replaces the
// configured parser flags.
func (o *RootOptions) parseArgs(args []string, parserFlags string) (query.Query, string, error) {
	text := strings.Join(args, " ")
	cfg := o.settings()

	flags := cfg.Parser.ParserFlags()
	if parserFlags != "" {
		f, err := userquery.ParseFlags(parserFlags)
		if err != nil {
			return query.Query{}, text, err
		}
		flags = f
	}

	p, err := o.newParser()
	if err != nil {
		return query.Query{}, text, err
	}
	q := p.Parse(text, flags)
	cfg.Compiler.Apply(&q)
	return q, text, nil
}

// parseQuery is parseArgs with failures reported through f.
func (o *RootOptions) parseQuery(f *OutputFormatter, args []string, parserFlags string) (query.Query, string, error) {
	if _, err := userquery.ParseFlags(parserFlags); err != nil {
		return query.Query{}, "", f.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
	}
	q, text, err := o.parseArgs(args, parserFlags)
	if err != nil {
		return query.Query{}, text, f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	f.VerboseLog("Parsed %q as %s", text, q.String())
	return q, text, nil
}

// addParserFlags registers --parser-flags on cmd.
func addParserFlags(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "parser-flags", "",
		"parser flags joined by | (globbing|detect-filename-pattern|merge-literals); overrides config")
}
