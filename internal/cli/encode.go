package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/serial"
	"github.com/roach88/semquery/internal/sparql"
	"github.com/roach88/semquery/internal/term"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	ParserFlags string
	URL         bool
	Title       string
	Compact     bool
}

// EncodeResult is the JSON payload of the encode command.
type EncodeResult struct {
	XML string `json:"xml"`
	URL string `json:"url,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <query text>...",
		Short: "Serialize a parsed query to XML or a search URL",
		Long: `Parse query text and write the query in its XML form.

With --url the output is a semsearch: URL embedding the XML and an
optional title.

Examples:
  semquery encode 'hello world'
  semquery encode --url --title 'Work mail' 'tag:<urn:tag:work>'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args, cmd)
		},
	}

	addParserFlags(cmd, &opts.ParserFlags)
	cmd.Flags().BoolVar(&opts.URL, "url", false, "print a search URL instead of XML")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title embedded in the search URL")
	cmd.Flags().BoolVar(&opts.Compact, "compact", false, "write XML without indentation")

	return cmd
}

func runEncode(opts *EncodeOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, _, err := opts.parseQuery(formatter, args, opts.ParserFlags)
	if err != nil {
		return err
	}
	if !q.IsValid() {
		if formatter.Format != "json" {
			fmt.Fprintln(formatter.Writer, term.String(q.Term))
		}
		return formatter.Failure(ErrCodeInvalidQuery, "query is invalid", nil)
	}

	var data []byte
	if opts.Compact {
		data, err = serial.Marshal(q)
	} else {
		data, err = serial.MarshalIndent(q)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	result := EncodeResult{XML: string(data)}

	if opts.URL {
		url, err := serial.SearchURL(q, opts.Title)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		result.URL = url
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if opts.URL {
		fmt.Fprintln(formatter.Writer, result.URL)
	} else {
		fmt.Fprintln(formatter.Writer, result.XML)
	}
	return nil
}

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Form string
}

// DecodeResult is the JSON payload of the decode command.
type DecodeResult struct {
	Valid  bool   `json:"valid"`
	Title  string `json:"title,omitempty"`
	Term   string `json:"term"`
	Query  string `json:"query"`
	SPARQL string `json:"sparql,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Read a serialized query or search URL",
		Long: `Read a query in XML form, or a semsearch: URL, from a file or
standard input ("-") and print it.

With --form the decoded query is also compiled.

Examples:
  semquery decode saved.xml
  semquery encode --url foo | semquery decode --form select -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Form, "form", "", "also compile the query (select|ask|count)")

	return cmd
}

func runDecode(opts *DecodeOptions, source string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var form sparql.Form
	if opts.Form != "" {
		f, err := sparql.ParseForm(opts.Form)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, err.Error(), nil)
		}
		form = f
	}

	data, err := readSource(cmd, source)
	if err != nil {
		if os.IsNotExist(err) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}

	q, title, err := decodeQuery(data)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDecodeFailed, err.Error(), nil)
	}

	result := DecodeResult{
		Valid: q.IsValid(),
		Title: title,
		Term:  term.String(q.Term),
		Query: q.String(),
	}
	if opts.Form != "" {
		compiler, err := opts.newCompiler()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		result.SPARQL = compiler.Compile(q, form)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if title != "" {
		fmt.Fprintf(formatter.Writer, "Title: %s\n", title)
	}
	fmt.Fprintln(formatter.Writer, result.Query)
	if result.SPARQL != "" {
		fmt.Fprintln(formatter.Writer, result.SPARQL)
	}
	return nil
}

// readSource reads a file, or standard input for "-".
func readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(source)
}

// decodeQuery accepts either a search URL or the XML form.
func decodeQuery(data []byte) (query.Query, string, error) {
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, serial.SearchScheme+":") {
		return serial.ParseSearchURL(text)
	}
	q, err := serial.Unmarshal([]byte(text))
	return q, "", err
}
