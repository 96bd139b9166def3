package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		name      string
		qualified string
		expected  string
	}{
		{name: "schema qualified", qualified: "dbo.Customer", expected: "Customer"},
		{name: "bare", qualified: "Customer", expected: "Customer"},
		{name: "database and schema", qualified: "AdventureWorks.dbo.DimDate", expected: "DimDate"},
		{name: "empty", qualified: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable(tt.qualified, nil)
			assert.Equal(t, tt.qualified, table.QualifiedName())
			assert.Equal(t, tt.expected, table.TableName())
		})
	}
}

func TestTableColumnNamesPreserveOrder(t *testing.T) {
	table := NewTable("dbo.DimCustomer", []Column{
		{Name: "CustomerKey", Type: "int"},
		{Name: "FirstName", Type: "nvarchar(50)"},
		{Name: "Order, Detail", Type: "int"},
	})

	assert.Equal(t, []string{"CustomerKey", "FirstName", "Order, Detail"}, table.ColumnNames())
}

func TestTableIsImmutable(t *testing.T) {
	columns := []Column{{Name: "id", Type: "int"}}
	table := NewTable("t", columns)

	columns[0].Name = "changed"
	assert.Equal(t, "id", table.Columns()[0].Name)

	out := table.Columns()
	out[0].Name = "changed"
	assert.Equal(t, "id", table.Columns()[0].Name)
}

func TestColumnNormalizedType(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "nvarchar(50)", expected: "varchar(50)"},
		{raw: "NVARCHAR(MAX)", expected: "varchar(max)"},
		{raw: "tinyint", expected: "int"},
		{raw: "smallint", expected: "int"},
		{raw: "int", expected: "int"},
		{raw: "decimal(18,2)", expected: "decimal(18,2)"},
		{raw: "nchar(3)", expected: "nchar(3)"},
		{raw: "bigint", expected: "bigint"},
		{raw: "varbinary(max)", expected: "varbinary(max)"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, Column{Type: tt.raw}.NormalizedType())
		})
	}
}

func TestColumnNormalizedTypeOnlyRewritesPrefix(t *testing.T) {
	// "smallint" appears inside the name, not at the start.
	c := Column{Type: "mysmallint"}
	assert.Equal(t, "mysmallint", c.NormalizedType())
}

func TestColumnHasIdentity(t *testing.T) {
	assert.True(t, Column{Identity: "IDENTITY(1,1)"}.HasIdentity())
	assert.False(t, Column{Identity: "identity(1,1)"}.HasIdentity())
	assert.False(t, Column{Identity: "Identity(1,1)"}.HasIdentity())
	assert.False(t, Column{}.HasIdentity())
	assert.False(t, Column{Identity: "IDENT"}.HasIdentity())
}

func TestTableMarshalJSON(t *testing.T) {
	table := NewTable("dbo.DimAccount", []Column{
		{Name: "AccountKey", Type: "int", Identity: "IDENTITY(1,1)", Nullable: "NOT NULL"},
		{Name: "AccountDescription", Type: "nvarchar(50)", Nullable: "NULL"},
	})

	b, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"table": "dbo.DimAccount",
		"columns": [
			{"name": "AccountKey", "type": "int", "identity": "IDENTITY(1,1)", "nullable": "NOT NULL"},
			{"name": "AccountDescription", "type": "nvarchar(50)", "identity": null, "nullable": "NULL"}
		]
	}`, string(b))
}

func TestTableMarshalJSONWithoutColumns(t *testing.T) {
	b, err := json.Marshal(NewTable("t", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"table": "t", "columns": []}`, string(b))
}

func TestDatabaseFindTable(t *testing.T) {
	db := NewDatabase([]Table{
		NewTable("dbo.users", nil),
		NewTable("dbo.orders", nil),
		NewTable("sales.Products", nil),
		NewTable("archive.users", nil),
	})

	t.Run("find existing table", func(t *testing.T) {
		table, ok := db.FindTable("users")
		require.True(t, ok)
		assert.Equal(t, "dbo.users", table.QualifiedName())
	})

	t.Run("find existing table case insensitive", func(t *testing.T) {
		table, ok := db.FindTable("PRODUCTS")
		require.True(t, ok)
		assert.Equal(t, "sales.Products", table.QualifiedName())
	})

	t.Run("qualified name is not a bare name", func(t *testing.T) {
		_, ok := db.FindTable("dbo.users")
		assert.False(t, ok)
	})

	t.Run("table not found", func(t *testing.T) {
		_, ok := db.FindTable("nonexistent")
		assert.False(t, ok)
	})
}

func TestDatabaseTableNotFound(t *testing.T) {
	db := NewDatabase(nil)

	_, err := db.Table("DimCustomer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.Equal(t, "table DimCustomer not found", err.Error())

	var notFound *TableNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "DimCustomer", notFound.Name)
}

func TestDatabaseTableNames(t *testing.T) {
	db := NewDatabase([]Table{NewTable("dbo.A", nil), NewTable("B", nil)})
	assert.Equal(t, []string{"A", "B"}, db.TableNames())
	assert.Equal(t, 2, db.Len())
	assert.Len(t, db.Tables(), 2)
}
