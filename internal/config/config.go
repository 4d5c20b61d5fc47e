// Package config loads the semquery YAML configuration and turns it into
// parser, compiler and logger settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/roach88/semquery/internal/ontology"
	"github.com/roach88/semquery/internal/query"
	"github.com/roach88/semquery/internal/userquery"
)

type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Catalog  string         `yaml:"catalog"`
	Store    string         `yaml:"store"`
	Parser   ParserConfig   `yaml:"parser"`
	Compiler CompilerConfig `yaml:"compiler"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Type   string `yaml:"type"`
	Output string `yaml:"output"`
}

type ParserConfig struct {
	Globbing              bool     `yaml:"globbing"`
	DetectFilenamePattern bool     `yaml:"detect_filename_pattern"`
	MergeLiterals         bool     `yaml:"merge_literals"`
	MaxFieldCandidates    int      `yaml:"max_field_candidates"`
	AndKeywords           []string `yaml:"and_keywords"`
	OrKeywords            []string `yaml:"or_keywords"`
}

type CompilerConfig struct {
	FullTextScoring      bool `yaml:"full_text_scoring"`
	NoResultRestrictions bool `yaml:"no_result_restrictions"`
	WithoutExcerpt       bool `yaml:"without_excerpt"`
}

// Default returns the configuration used when no file is given. Every key
// missing from a file keeps its default.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:  "info",
			Type:   "text",
			Output: "stderr",
		},
		Store: "semquery.db",
		Parser: ParserConfig{
			DetectFilenamePattern: true,
			MergeLiterals:         true,
			MaxFieldCandidates:    userquery.DefaultMaxFieldCandidates,
			AndKeywords:           []string{"AND", "and", "&&"},
			OrKeywords:            []string{"OR", "or", "||"},
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns
// Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("cannot parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the YAML types cannot express.
func (cfg Config) Validate() error {
	if _, err := parseLevel(cfg.Logger.Level); err != nil {
		return err
	}
	switch cfg.Logger.Type {
	case "json", "text", "colored-text":
	default:
		return fmt.Errorf("invalid log type: %s", cfg.Logger.Type)
	}
	switch cfg.Logger.Output {
	case "", "stderr", "stdout", "discard":
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Logger.Output)
	}
	if cfg.Parser.MaxFieldCandidates < 1 {
		return fmt.Errorf("parser.max_field_candidates must be positive, got %d", cfg.Parser.MaxFieldCandidates)
	}
	return nil
}

// NewLogger builds the logger described by cfg. stderr receives output
// when Output is empty or "stderr".
func (cfg LoggerConfig) NewLogger(stderr io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var w io.Writer
	switch cfg.Output {
	case "", "stderr":
		w = stderr
	case "stdout":
		w = os.Stdout
	case "discard":
		w = io.Discard
	default:
		return nil, fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	var handler slog.Handler
	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// OpenCatalog loads the configured catalog directory, or the built-in
// catalog when none is set.
func (cfg Config) OpenCatalog() (*ontology.Catalog, error) {
	if cfg.Catalog == "" {
		return ontology.Builtin()
	}
	return ontology.LoadCatalog(cfg.Catalog)
}

// ParserFlags translates the parser section into userquery flags.
func (cfg ParserConfig) ParserFlags() userquery.Flags {
	var f userquery.Flags
	if cfg.Globbing {
		f |= userquery.Globbing
	}
	if cfg.DetectFilenamePattern {
		f |= userquery.DetectFilenamePattern
	}
	if cfg.MergeLiterals {
		f |= userquery.MergeLiterals
	}
	return f
}

// Options returns the parser options for the keyword and candidate
// settings.
func (cfg ParserConfig) Options(logger *slog.Logger) []userquery.Option {
	return []userquery.Option{
		userquery.WithKeywords(cfg.AndKeywords, cfg.OrKeywords),
		userquery.WithMaxFieldCandidates(cfg.MaxFieldCandidates),
		userquery.WithLogger(logger),
	}
}

// Apply sets the compiler section on q.
func (cfg CompilerConfig) Apply(q *query.Query) {
	q.FullTextScoring = cfg.FullTextScoring
	q.SetFlag(query.NoResultRestrictions, cfg.NoResultRestrictions)
	q.SetFlag(query.WithoutFullTextExcerpt, cfg.WithoutExcerpt)
}
