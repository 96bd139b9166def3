package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ddlport/internal/core"
	"ddlport/internal/dialect"
)

type sqlFormatter struct {
	generator dialect.Generator
}

// FormatTables renders every table as a terminated CREATE TABLE statement,
// separated by blank lines.
func (f sqlFormatter) FormatTables(tables []core.Table) (string, error) {
	if len(tables) == 0 {
		return "-- No tables found.\n", nil
	}

	var sb strings.Builder
	for i, t := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "-- %s\n", t.QualifiedName())
		sb.WriteString(terminate(f.generator.GenerateCreateTable(t)))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// SQLFileName is the file WriteSQLFiles writes a table to.
func SQLFileName(dir string, table core.Table) string {
	return filepath.Join(dir, table.TableName()+".sql")
}

// WriteSQLFiles writes one <dir>/<table>.sql file per table containing the
// generator's statement as is, creating dir when needed. It returns the
// paths written, in table order.
func WriteSQLFiles(dir string, tables []core.Table, generator dialect.Generator) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := SQLFileName(dir, t)
		if err := os.WriteFile(path, []byte(generator.GenerateCreateTable(t)), 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
