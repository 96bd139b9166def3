// Package parser reads schema files in the supported source formats and
// converts them to the canonical core.Database representation: T-SQL dumps
// (.sql, any encoding dump.NewReader understands) and TOML table
// definitions (.toml).
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"ddlport/internal/core"
	"ddlport/internal/dump"
	"ddlport/internal/parser/toml"
	"ddlport/internal/parser/tsql"
)

// Options configure ParseFile.
type Options struct {
	Encoding dump.Encoding
	Strict   bool
}

// ParseFile picks a parser by extension. Files without an extension are
// treated as dumps.
func ParseFile(path string, opts Options) (*core.Database, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.NewParser().ParseFile(path)
	case ".sql", "":
		return parseDump(path, opts)
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

// ParseFiles parses every path and concatenates the tables in order. In
// strict mode the combined schema must also pass core validation.
func ParseFiles(paths []string, opts Options) (*core.Database, error) {
	var tables []core.Table
	for _, path := range paths {
		db, err := ParseFile(path, opts)
		if err != nil {
			return nil, err
		}
		tables = append(tables, db.Tables()...)
	}
	db := core.NewDatabase(tables)
	if opts.Strict {
		if err := db.Validate(); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func parseDump(path string, opts Options) (*core.Database, error) {
	enc := opts.Encoding
	if enc == "" {
		enc = dump.Auto
	}
	r, err := dump.Open(path, enc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	db, err := tsql.NewParser(tsql.WithStrict(opts.Strict)).ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
