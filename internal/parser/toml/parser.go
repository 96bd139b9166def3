// Package toml provides a parser for hand-maintained table definitions in
// TOML. It covers tables a dump does not carry (or carries in a shape the
// T-SQL parser cannot recover) and produces the same core.Database the dump
// parser does.
//
//	[[tables]]
//	name = "dbo.DimAccount"
//
//	  [[tables.columns]]
//	  name = "AccountKey"
//	  type = "int"
//	  identity = "IDENTITY(1,1)"
//	  nullable = "NOT NULL"
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"ddlport/internal/core"
)

// schemaFile is the top-level TOML document.
type schemaFile struct {
	Tables []tomlTable `toml:"tables"`
}

// tomlTable maps [[tables]].
type tomlTable struct {
	Name    string       `toml:"name"`
	Columns []tomlColumn `toml:"columns"`
}

// tomlColumn maps [[tables.columns]].
type tomlColumn struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Identity string `toml:"identity"`
	Nullable string `toml:"nullable"`
}

// Parser reads TOML table definition files.
type Parser struct{}

// NewParser creates a new TOML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) (*core.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from reader and returns the corresponding core.Database.
func (p *Parser) Parse(r io.Reader) (*core.Database, error) {
	var sf schemaFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("toml: unknown keys %v", undecoded)
	}

	seen := make(map[string]bool, len(sf.Tables))
	tables := make([]core.Table, 0, len(sf.Tables))
	for i := range sf.Tables {
		t, err := convertTable(&sf.Tables[i])
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", sf.Tables[i].Name, err)
		}
		key := strings.ToLower(t.TableName())
		if seen[key] {
			return nil, fmt.Errorf("toml: duplicate table name %q", t.TableName())
		}
		seen[key] = true
		tables = append(tables, t)
	}

	return core.NewDatabase(tables), nil
}

func convertTable(tt *tomlTable) (core.Table, error) {
	name := strings.TrimSpace(tt.Name)
	if name == "" {
		return core.Table{}, fmt.Errorf("name is required")
	}

	seen := make(map[string]bool, len(tt.Columns))
	columns := make([]core.Column, 0, len(tt.Columns))
	for i, tc := range tt.Columns {
		col, err := convertColumn(tc)
		if err != nil {
			return core.Table{}, fmt.Errorf("column #%d: %w", i+1, err)
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return core.Table{}, fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[key] = true
		columns = append(columns, col)
	}
	return core.NewTable(name, columns), nil
}

func convertColumn(tc tomlColumn) (core.Column, error) {
	col := core.Column{
		Name:     strings.TrimSpace(tc.Name),
		Type:     strings.TrimSpace(tc.Type),
		Identity: strings.TrimSpace(tc.Identity),
		Nullable: strings.TrimSpace(tc.Nullable),
	}
	if col.Name == "" {
		return core.Column{}, fmt.Errorf("name is required")
	}
	if col.Type == "" {
		return core.Column{}, fmt.Errorf("column %q: type is required", col.Name)
	}
	if col.Identity != "" && !col.HasIdentity() {
		return core.Column{}, fmt.Errorf("column %q: identity must start with IDENTITY, got %q", col.Name, col.Identity)
	}
	return col, nil
}
