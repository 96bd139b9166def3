// Package tsql provides the Transact-SQL dialect: the dump parser and a
// generator that re-emits parsed tables as canonical CREATE TABLE statements.
package tsql

import (
	"strings"

	"ddlport/internal/core"
	"ddlport/internal/dialect"
	parser "ddlport/internal/parser/tsql"
)

const indent = "    "

func init() {
	dialect.RegisterDialect(dialect.TSQL, func() dialect.Dialect {
		return NewTSQLDialect()
	})
}

// Dialect represents the T-SQL dialect struct, with its generator and parser.
type Dialect struct {
	generator *Generator
	parser    *parser.Parser
}

// NewTSQLDialect initializes a new T-SQL dialect instance.
func NewTSQLDialect(opts ...parser.Option) *Dialect {
	return &Dialect{
		generator: NewTSQLGenerator(),
		parser:    parser.NewParser(opts...),
	}
}

// Name returns the name of the T-SQL dialect.
func (d *Dialect) Name() dialect.Type {
	return dialect.TSQL
}

// Generator returns the SQL generator for the T-SQL dialect.
func (d *Dialect) Generator() dialect.Generator {
	return d.generator
}

// Parser returns the dump parser for the T-SQL dialect.
func (d *Dialect) Parser() dialect.Parser {
	return d.parser
}

// Generator is a stateless struct for emitting T-SQL.
type Generator struct{}

// NewTSQLGenerator initializes a new T-SQL generator instance.
func NewTSQLGenerator() *Generator {
	return &Generator{}
}

// GenerateCreateTable renders the table under its bare name:
//
//	create table DimAccount (
//	    AccountKey int Primary Key,
//	    AccountDescription varchar(50)
//	);
func (g *Generator) GenerateCreateTable(table core.Table) string {
	return CreateTableSQL(table)
}

// GenerateInsert renders a parameterized insert covering every column.
func (g *Generator) GenerateInsert(table core.Table, bind dialect.BindStyle) string {
	return dialect.InsertStatement(table.TableName(), table.ColumnNames(), bind)
}

// NormalizeSQL returns sql unchanged; T-SQL output keeps the dump's spelling.
func (g *Generator) NormalizeSQL(sql string) string {
	return sql
}

// CreateTableSQL is the canonical CREATE TABLE rendering shared by every
// dialect before normalization.
func CreateTableSQL(table core.Table) string {
	var sb strings.Builder
	sb.WriteString("create table ")
	sb.WriteString(table.TableName())
	sb.WriteString(" (\n")
	for i, c := range table.Columns() {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString(indent)
		sb.WriteString(ColumnDefinition(c))
	}
	sb.WriteString("\n);")
	return sb.String()
}

// ColumnDefinition renders one column. An IDENTITY column becomes the
// primary key and loses its identity and nullability text; a bare NULL is
// dropped since it is the default.
func ColumnDefinition(c core.Column) string {
	parts := []string{c.Name, c.NormalizedType()}
	switch {
	case c.HasIdentity():
		parts = append(parts, "Primary Key")
	case c.Nullable == "" || c.Nullable == "NULL":
	default:
		parts = append(parts, c.Nullable)
	}
	return strings.Join(parts, " ")
}
