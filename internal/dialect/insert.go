package dialect

import (
	"strconv"
	"strings"
)

// BindStyle selects how InsertStatement spells its parameters.
type BindStyle int

const (
	// BindNamed renders ":column", the form written to generated scripts.
	BindNamed BindStyle = iota
	// BindQuestion renders "?" (mysql, sqlite).
	BindQuestion
	// BindDollar renders "$1", "$2", ... (postgres).
	BindDollar
	// BindAtP renders "@p1", "@p2", ... (sqlserver).
	BindAtP
)

// InsertStatement builds a positional insert for table with one parameter
// per column, in column order:
//
//	insert into DimAccount values (:AccountKey, :ParentAccountKey)
func InsertStatement(table string, columns []string, bind BindStyle) string {
	var sb strings.Builder
	sb.WriteString("insert into ")
	sb.WriteString(table)
	sb.WriteString(" values (")
	for i, column := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch bind {
		case BindQuestion:
			sb.WriteString("?")
		case BindDollar:
			sb.WriteString("$" + strconv.Itoa(i+1))
		case BindAtP:
			sb.WriteString("@p" + strconv.Itoa(i+1))
		default:
			sb.WriteString(":" + column)
		}
	}
	sb.WriteString(")")
	return sb.String()
}
