// Package core contains the single source of truth for a parsed schema dump.
// It provides a structured representation of the tables and columns recovered
// from CREATE TABLE statements, and the derived accessors the emitters and
// loaders need (bare table name, column name list, normalized column type).
package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrTableNotFound is matched by TableNotFoundError through errors.Is.
var ErrTableNotFound = errors.New("table not found")

// TableNotFoundError is returned when a table was explicitly requested by
// name and the parsed schema does not contain it.
type TableNotFoundError struct {
	Name string
}

func (e *TableNotFoundError) Error() string {
	return "table " + e.Name + " not found"
}

func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}

// Column represents a single column definition inside a table.
type Column struct {
	Name string `json:"name"`
	// Type holds the raw type with its parenthesized suffix, e.g. "decimal(18,2)".
	Type string `json:"type"`
	// Identity is the raw IDENTITY(...) clause, empty when absent.
	Identity string `json:"identity"`
	// Nullable is whatever trailed the type and identity, e.g. "NOT NULL".
	Nullable string `json:"nullable"`
}

// typeAliases are applied as prefix substitutions on the lowercased type.
var typeAliases = []struct {
	prefix  string
	replace string
}{
	{"nvarchar", "varchar"},
	{"tinyint", "int"},
	{"smallint", "int"},
}

// NormalizedType returns the lowercased type with vendor width aliases
// folded into their portable counterparts.
func (c Column) NormalizedType() string {
	typ := strings.ToLower(c.Type)
	for _, alias := range typeAliases {
		if strings.HasPrefix(typ, alias.prefix) {
			typ = alias.replace + strings.TrimPrefix(typ, alias.prefix)
		}
	}
	return typ
}

// HasIdentity reports whether the column carries an IDENTITY clause. The
// keyword must be upper case, as dumps write it; a lowercase identity(...)
// is ordinary trailing text.
func (c Column) HasIdentity() bool {
	return strings.HasPrefix(c.Identity, "IDENTITY")
}

// MarshalJSON renders an absent identity as null.
func (c Column) MarshalJSON() ([]byte, error) {
	var identity *string
	if c.Identity != "" {
		identity = &c.Identity
	}
	return json.Marshal(struct {
		Name     string  `json:"name"`
		Type     string  `json:"type"`
		Identity *string `json:"identity"`
		Nullable string  `json:"nullable"`
	}{c.Name, c.Type, identity, c.Nullable})
}

// Table represents one parsed CREATE TABLE statement. It is a value: the
// column list is copied in and out, so a Table never changes once built.
type Table struct {
	name    string
	columns []Column
}

// NewTable builds a Table from its qualified name and its columns in
// declaration order.
func NewTable(qualifiedName string, columns []Column) Table {
	return Table{
		name:    qualifiedName,
		columns: append([]Column(nil), columns...),
	}
}

// QualifiedName returns the name as it appeared, e.g. "dbo.Customer".
func (t Table) QualifiedName() string { return t.name }

// TableName returns the last dot-separated segment of the qualified name.
func (t Table) TableName() string {
	if i := strings.LastIndex(t.name, "."); i >= 0 {
		return t.name[i+1:]
	}
	return t.name
}

// Columns returns a copy of the columns in declaration order.
func (t Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// ColumnNames projects the columns to their names, preserving order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		names = append(names, c.Name)
	}
	return names
}

func (t Table) String() string { return t.name }

// MarshalJSON renders the table as {"table": ..., "columns": [...]}.
func (t Table) MarshalJSON() ([]byte, error) {
	columns := t.columns
	if columns == nil {
		columns = []Column{}
	}
	return json.Marshal(struct {
		Table   string   `json:"table"`
		Columns []Column `json:"columns"`
	}{t.name, columns})
}

// Database is the ordered collection of tables recovered from one dump.
// It is parsed once and then queried in memory.
type Database struct {
	tables []Table
}

// NewDatabase wraps tables in source order.
func NewDatabase(tables []Table) *Database {
	return &Database{tables: append([]Table(nil), tables...)}
}

// Tables returns the tables in the order their statements closed.
func (db *Database) Tables() []Table {
	return append([]Table(nil), db.tables...)
}

// Len returns the number of parsed tables.
func (db *Database) Len() int { return len(db.tables) }

// TableNames returns the bare name of every table, in order.
func (db *Database) TableNames() []string {
	names := make([]string, 0, len(db.tables))
	for _, t := range db.tables {
		names = append(names, t.TableName())
	}
	return names
}

// FindTable looks up a table by its bare name, case-insensitively. The first
// match wins. A missing table is reported through ok, never as an error.
func (db *Database) FindTable(name string) (Table, bool) {
	for _, t := range db.tables {
		if strings.EqualFold(t.TableName(), name) {
			return t, true
		}
	}
	return Table{}, false
}

// Table is FindTable for callers that asked for a specific table and treat
// its absence as fatal.
func (db *Database) Table(name string) (Table, error) {
	t, ok := db.FindTable(name)
	if !ok {
		return Table{}, &TableNotFoundError{Name: name}
	}
	return t, nil
}
