package output

import (
	"fmt"
	"strings"

	"ddlport/internal/core"
)

type summaryFormatter struct{}

// FormatTables formats the parsed tables as a compact summary.
// Example output:
//
//	Schema Summary
//	==============
//
//	Tables:   2
//	Columns:  7
//	Identity: 2
//
//	Details:
//	  dbo.DimAccount (4 cols, identity AccountKey)
//	  dbo.FactFinance (3 cols)
func (summaryFormatter) FormatTables(tables []core.Table) (string, error) {
	if len(tables) == 0 {
		return "No tables found.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Schema Summary\n")
	sb.WriteString("==============\n\n")

	fmt.Fprintf(&sb, "Tables:   %d\n", len(tables))
	fmt.Fprintf(&sb, "Columns:  %d\n", countColumns(tables))
	fmt.Fprintf(&sb, "Identity: %d\n", countIdentity(tables))

	sb.WriteString("\nDetails:\n")
	for _, t := range tables {
		fmt.Fprintf(&sb, "  %s (%s)\n", t.QualifiedName(), describeTable(t))
	}
	return sb.String(), nil
}

func countColumns(tables []core.Table) (n int) {
	for _, t := range tables {
		n += len(t.Columns())
	}
	return
}

func countIdentity(tables []core.Table) (n int) {
	for _, t := range tables {
		for _, c := range t.Columns() {
			if c.HasIdentity() {
				n++
			}
		}
	}
	return
}

func describeTable(t core.Table) string {
	columns := t.Columns()
	parts := []string{fmt.Sprintf("%d cols", len(columns))}
	for _, c := range columns {
		if c.HasIdentity() {
			parts = append(parts, "identity "+c.Name)
		}
	}
	return strings.Join(parts, ", ")
}
