// Package portable provides the portable dialect: tables are emitted the way
// the T-SQL generator renders them, then normalized toward types, literals
// and terminators that most databases accept.
package portable

import (
	"ddlport/internal/core"
	"ddlport/internal/dialect"
	"ddlport/internal/dialect/tsql"
	parser "ddlport/internal/parser/tsql"
)

func init() {
	dialect.RegisterDialect(dialect.Portable, func() dialect.Dialect {
		return NewPortableDialect()
	})
}

// Dialect is the portable target. Its input is still a T-SQL dump.
type Dialect struct {
	generator *Generator
	parser    *parser.Parser
}

// NewPortableDialect initializes a new portable dialect instance.
func NewPortableDialect(opts ...parser.Option) *Dialect {
	return &Dialect{
		generator: NewPortableGenerator(),
		parser:    parser.NewParser(opts...),
	}
}

// Name returns the name of the portable dialect.
func (d *Dialect) Name() dialect.Type {
	return dialect.Portable
}

// Generator returns the SQL generator for the portable dialect.
func (d *Dialect) Generator() dialect.Generator {
	return d.generator
}

// Parser returns the T-SQL dump parser.
func (d *Dialect) Parser() dialect.Parser {
	return d.parser
}

// Generator emits normalized SQL.
type Generator struct {
	rules []Rule
}

// NewPortableGenerator initializes a generator using the default Rules.
func NewPortableGenerator() *Generator {
	return &Generator{rules: Rules}
}

// NewPortableGeneratorWithRules initializes a generator with a custom rule
// table, e.g. Rules extended from configuration.
func NewPortableGeneratorWithRules(rules []Rule) *Generator {
	return &Generator{rules: rules}
}

// GenerateCreateTable renders the table and normalizes it. The result has no
// trailing semicolon so it can be executed directly by database/sql.
func (g *Generator) GenerateCreateTable(table core.Table) string {
	return g.NormalizeSQL(tsql.CreateTableSQL(table))
}

// GenerateInsert renders a parameterized insert covering every column.
func (g *Generator) GenerateInsert(table core.Table, bind dialect.BindStyle) string {
	return dialect.InsertStatement(table.TableName(), table.ColumnNames(), bind)
}

// NormalizeSQL applies the generator's rule table.
func (g *Generator) NormalizeSQL(sql string) string {
	return NormalizeWith(g.rules, sql)
}
