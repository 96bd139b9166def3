// Package output provides a set of formatters for parsed tables.
// It is extendable and for now provides three formats: SQL, JSON and a
// compact summary.
package output

import (
	"fmt"
	"strings"

	"ddlport/internal/core"
	"ddlport/internal/dialect"
	"ddlport/internal/dialect/tsql"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter is an interface for formatting parsed tables.
type Formatter interface {
	FormatTables(tables []core.Table) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format. The SQL format renders
// tables with generator; a nil generator uses the canonical T-SQL rendering.
func NewFormatter(name string, generator dialect.Generator) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		if generator == nil {
			generator = tsql.NewTSQLGenerator()
		}
		return sqlFormatter{generator: generator}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, &UnsupportedFormatError{Name: name}
	}
}

// UnsupportedFormatError is returned by NewFormatter for unknown names.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s; use 'sql', 'json', or 'summary'", e.Name)
}

func terminate(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}
