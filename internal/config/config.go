// Package config loads the ddlport TOML configuration file. Every value has
// a default, so running without a file behaves like the AdventureWorks
// layout: the dump at AdventureWorks/instawdbdw.sql, raw data beside it and
// SQL written to AdventureWorks/sql.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"ddlport/internal/apply"
	"ddlport/internal/dialect"
	"ddlport/internal/dialect/portable"
	_ "ddlport/internal/dialect/tsql" // registers the tsql dialect
	"ddlport/internal/dump"
	"ddlport/internal/output"
)

// Config is the top-level TOML document.
type Config struct {
	Source   Source   `toml:"source"`
	Output   Output   `toml:"output"`
	Parser   Parser   `toml:"parser"`
	Dialect  Dialect  `toml:"dialect"`
	Database Database `toml:"database"`
	Data     Data     `toml:"data"`
}

// Source maps [source].
type Source struct {
	Path     string   `toml:"path"`
	// Include lists further schema files (dumps or TOML definitions) whose
	// tables are appended after the dump's.
	Include  []string `toml:"include"`
	Encoding string   `toml:"encoding"`
}

// Paths returns the dump path followed by the included files.
func (s Source) Paths() []string {
	return append([]string{s.Path}, s.Include...)
}

// Output maps [output].
type Output struct {
	Dir     string `toml:"dir"`
	Dialect string `toml:"dialect"`
	Format  string `toml:"format"`
}

// Parser maps [parser].
type Parser struct {
	Strict bool `toml:"strict"`
}

// Dialect maps [dialect]. Rules are applied before the built-in portable
// rules.
type Dialect struct {
	Rules []Rule `toml:"rules"`
}

// Rule maps one [[dialect.rules]] entry.
type Rule struct {
	Old string `toml:"old"`
	New string `toml:"new"`
}

// Database maps [database].
type Database struct {
	Driver      string   `toml:"driver"`
	DSN         string   `toml:"dsn"`
	Transaction bool     `toml:"transaction"`
	Skip        []string `toml:"skip"`
}

// Data maps [data].
type Data struct {
	Dir           string   `toml:"dir"`
	Encoding      string   `toml:"encoding"`
	Delimiter     string   `toml:"delimiter"`
	BinaryColumns []string `toml:"binary_columns"`
	EmptyColumns  []string `toml:"empty_columns"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: Source{
			Path:     filepath.Join("AdventureWorks", "instawdbdw.sql"),
			Encoding: string(dump.UTF16),
		},
		Output: Output{
			Dir:     filepath.Join("AdventureWorks", "sql"),
			Dialect: string(dialect.Portable),
			Format:  string(output.FormatSQL),
		},
		Database: Database{
			Driver:      string(apply.DriverMySQL),
			Transaction: true,
			Skip:        append([]string(nil), apply.DefaultSkip...),
		},
		Data: Data{
			Dir:           filepath.Join("AdventureWorks", "raw"),
			Encoding:      string(dump.UTF16),
			Delimiter:     "|",
			BinaryColumns: append([]string(nil), dump.DefaultBinaryColumns...),
			EmptyColumns:  append([]string(nil), dump.DefaultEmptyColumns...),
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value. Unknown keys are an error so typos do not pass silently.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: %w", err)
		}
		return nil, fmt.Errorf("config: decode %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown keys in %q: %v", path, undecoded)
	}

	base := filepath.Dir(path)
	cfg.Source.Path = resolve(base, cfg.Source.Path)
	for i, p := range cfg.Source.Include {
		cfg.Source.Include[i] = resolve(base, p)
	}
	cfg.Output.Dir = resolve(base, cfg.Output.Dir)
	cfg.Data.Dir = resolve(base, cfg.Data.Dir)
	return cfg, nil
}

// resolve makes relative paths from a config file relative to that file.
func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Validate checks every enumerated value and collects all problems.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.Path == "" {
		errs = append(errs, errors.New("source.path is required"))
	}
	if _, err := dump.ParseEncoding(c.Source.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("source.encoding: %w", err))
	}
	if _, err := dump.ParseEncoding(c.Data.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("data.encoding: %w", err))
	}
	if _, err := dialect.ParseType(c.Output.Dialect); err != nil {
		errs = append(errs, fmt.Errorf("output.dialect: %w", err))
	}
	if _, err := output.NewFormatter(c.Output.Format, nil); err != nil {
		errs = append(errs, fmt.Errorf("output.format: %w", err))
	}
	if _, err := apply.ParseDriver(c.Database.Driver); err != nil {
		errs = append(errs, fmt.Errorf("database.driver: %w", err))
	}
	if c.Data.Delimiter == "" {
		errs = append(errs, errors.New("data.delimiter must not be empty"))
	}
	for i, r := range c.Dialect.Rules {
		if r.Old == "" {
			errs = append(errs, fmt.Errorf("dialect.rules[%d]: old must not be empty", i))
		}
	}
	return errors.Join(errs...)
}

// RecordOptions returns the dump.RecordReader options described by [data].
func (d Data) RecordOptions() []dump.RecordOption {
	return []dump.RecordOption{
		dump.WithDelimiter(d.Delimiter),
		dump.WithBinaryColumns(d.BinaryColumns...),
		dump.WithEmptyColumns(d.EmptyColumns...),
	}
}

// DataFile is the raw data file for a table.
func (d Data) DataFile(table string) string {
	return filepath.Join(d.Dir, table+".csv")
}

// Generator returns the SQL generator for [output] dialect. Custom
// [[dialect.rules]] extend the portable rule table.
func (c *Config) Generator() (dialect.Generator, error) {
	t, err := dialect.ParseType(c.Output.Dialect)
	if err != nil {
		return nil, err
	}
	if t == dialect.Portable && len(c.Dialect.Rules) > 0 {
		rules := make([]portable.Rule, 0, len(c.Dialect.Rules)+len(portable.Rules))
		for _, r := range c.Dialect.Rules {
			rules = append(rules, portable.Rule{Old: r.Old, New: r.New})
		}
		return portable.NewPortableGeneratorWithRules(append(rules, portable.Rules...)), nil
	}
	d := dialect.GetDialect(t)
	if d == nil {
		return nil, fmt.Errorf("dialect %s is not registered", t)
	}
	return d.Generator(), nil
}
