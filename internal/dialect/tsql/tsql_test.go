package tsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddlport/internal/core"
	"ddlport/internal/dialect"
)

func dimAccount() core.Table {
	return core.NewTable("dbo.DimAccount", []core.Column{
		{Name: "AccountKey", Type: "int", Identity: "IDENTITY(1,1)", Nullable: "NOT NULL"},
		{Name: "ParentAccountKey", Type: "int", Nullable: "NULL"},
		{Name: "AccountDescription", Type: "nvarchar(50)", Nullable: "NULL"},
		{Name: "Operator", Type: "nvarchar(50)", Nullable: "NOT NULL"},
		{Name: "Flags", Type: "TinyInt"},
	})
}

func TestCreateTableSQL(t *testing.T) {
	expected := "create table DimAccount (\n" +
		"    AccountKey int Primary Key,\n" +
		"    ParentAccountKey int,\n" +
		"    AccountDescription varchar(50),\n" +
		"    Operator varchar(50) NOT NULL,\n" +
		"    Flags int\n" +
		");"

	assert.Equal(t, expected, CreateTableSQL(dimAccount()))
}

func TestCreateTableSQLNoColumns(t *testing.T) {
	assert.Equal(t, "create table Empty (\n\n);", CreateTableSQL(core.NewTable("Empty", nil)))
}

func TestColumnDefinition(t *testing.T) {
	tests := []struct {
		name     string
		column   core.Column
		expected string
	}{
		{
			name:     "identity becomes primary key",
			column:   core.Column{Name: "id", Type: "int", Identity: "IDENTITY(1,1)", Nullable: "NOT NULL"},
			expected: "id int Primary Key",
		},
		{
			name:     "lowercase identity is not an identity",
			column:   core.Column{Name: "id", Type: "int", Nullable: "identity(1,1) not null"},
			expected: "id int identity(1,1) not null",
		},
		{
			name:     "null is dropped",
			column:   core.Column{Name: "c", Type: "int", Nullable: "NULL"},
			expected: "c int",
		},
		{
			name:     "lowercase null is kept verbatim",
			column:   core.Column{Name: "c", Type: "int", Nullable: "null"},
			expected: "c int null",
		},
		{
			name:     "trailing clause kept",
			column:   core.Column{Name: "d", Type: "datetime", Nullable: "NOT NULL DEFAULT (getdate())"},
			expected: "d datetime NOT NULL DEFAULT (getdate())",
		},
		{
			name:     "type is normalized",
			column:   core.Column{Name: "s", Type: "SMALLINT"},
			expected: "s int",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnDefinition(tt.column))
		})
	}
}

func TestGeneratorInsert(t *testing.T) {
	g := NewTSQLGenerator()
	assert.Equal(t,
		"insert into DimAccount values (@p1, @p2, @p3, @p4, @p5)",
		g.GenerateInsert(dimAccount(), dialect.BindAtP))
}

func TestGeneratorNormalizeIsIdentity(t *testing.T) {
	sql := "create table t (\n    c nvarchar(max)\n);"
	assert.Equal(t, sql, NewTSQLGenerator().NormalizeSQL(sql))
}

func TestDialectRegistered(t *testing.T) {
	d := dialect.GetDialect(dialect.TSQL)
	require.NotNil(t, d)
	assert.Equal(t, dialect.TSQL, d.Name())

	db, err := d.Parser().Parse("CREATE TABLE [dbo].[T]( [id] [int] IDENTITY(1,1) NOT NULL )")
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())
	assert.Equal(t, "create table T (\n    id int Primary Key\n);", d.Generator().GenerateCreateTable(db.Tables()[0]))
}
