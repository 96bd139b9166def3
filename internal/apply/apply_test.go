package apply

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddlport/internal/core"
	"ddlport/internal/dialect/portable"
	"ddlport/internal/dump"
)

func accountTable() core.Table {
	return core.NewTable("dbo.DimAccount", []core.Column{
		{Name: "AccountKey", Type: "int", Identity: "IDENTITY(1,1)", Nullable: "NOT NULL"},
		{Name: "AccountDescription", Type: "nvarchar(50)", Nullable: "NULL"},
		{Name: "Photo", Type: "varbinary(max)", Nullable: "NULL"},
	})
}

func newSQLiteApplier(t *testing.T, opts Options) (*Applier, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts.Driver = "sqlite"
	if opts.DSN == "" {
		opts.DSN = filepath.Join(t.TempDir(), "aw.db")
	}
	opts.Out = &out

	applier, err := NewApplier(opts)
	require.NoError(t, err)
	require.NoError(t, applier.Connect(context.Background()))
	t.Cleanup(func() { _ = applier.Close() })
	return applier, &out
}

func countRows(t *testing.T, dsn, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("select count(*) from "+table).Scan(&n))
	return n
}

func readRecords(t *testing.T, table core.Table, data string) *dump.RecordReader {
	t.Helper()
	return dump.NewRecordReader(strings.NewReader(data), table.ColumnNames(), dump.WithBinaryColumns(slices.Concat(dump.DefaultBinaryColumns, []string{"Photo"})...))
}

func TestNewApplierRejectsUnknownDriver(t *testing.T) {
	_, err := NewApplier(Options{Driver: "oracle"})
	var unsupported *UnsupportedDriverError
	assert.ErrorAs(t, err, &unsupported)
}

func TestApplierSkipped(t *testing.T) {
	applier, err := NewApplier(Options{Driver: "sqlite"})
	require.NoError(t, err)
	assert.True(t, applier.Skipped("sysdiagrams"))
	assert.True(t, applier.Skipped("databaselog"))
	assert.False(t, applier.Skipped("DimAccount"))

	applier, err = NewApplier(Options{Driver: "sqlite", Skip: []string{"DimAccount"}})
	require.NoError(t, err)
	assert.True(t, applier.Skipped("SysDiagrams"))
	assert.False(t, applier.Skipped("DatabaseLog"))
	assert.True(t, applier.Skipped("DimAccount"))
}

func TestApplierCloseWithoutConnect(t *testing.T) {
	applier, err := NewApplier(Options{Driver: "sqlite"})
	require.NoError(t, err)
	assert.NoError(t, applier.Close())
	assert.NoError(t, applier.Close())
}

func TestApplierConnectInvalidDSN(t *testing.T) {
	applier, err := NewApplier(Options{Driver: "mysql", DSN: "missing separator"})
	require.NoError(t, err)
	err = applier.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mysql dsn")
}

func TestCreateTables(t *testing.T) {
	ctx := context.Background()
	applier, out := newSQLiteApplier(t, Options{})

	tables := []core.Table{
		accountTable(),
		core.NewTable("dbo.sysdiagrams", []core.Column{{Name: "name", Type: "sysname"}}),
		core.NewTable("dbo.DatabaseLog", []core.Column{{Name: "id", Type: "int"}}),
	}

	created, err := applier.CreateTables(ctx, tables, portable.NewPortableGenerator())
	require.NoError(t, err)
	assert.Equal(t, []string{"DimAccount"}, created)
	assert.Contains(t, out.String(), "Creating DimAccount...")

	exists, err := applier.TableExists(ctx, accountTable())
	require.NoError(t, err)
	assert.True(t, exists)

	created, err = applier.CreateTables(ctx, tables, portable.NewPortableGenerator())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Contains(t, out.String(), "Table DimAccount exists, skipping create")
}

func TestTableExistsIgnoresCase(t *testing.T) {
	ctx := context.Background()
	applier, _ := newSQLiteApplier(t, Options{})

	_, err := applier.CreateTables(ctx, []core.Table{accountTable()}, portable.NewPortableGenerator())
	require.NoError(t, err)

	exists, err := applier.TableExists(ctx, core.NewTable("DIMACCOUNT", nil))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = applier.TableExists(ctx, core.NewTable("FactFinance", nil))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadInTransaction(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "aw.db")
	applier, _ := newSQLiteApplier(t, Options{DSN: dsn, Transaction: true})
	table := accountTable()

	_, err := applier.CreateTables(ctx, []core.Table{table}, portable.NewPortableGenerator())
	require.NoError(t, err)

	n, err := applier.Load(ctx, table, readRecords(t, table, "1|Balance Sheet|0a0b\n2||\n3|Assets\n").All())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, countRows(t, dsn, "DimAccount"))

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	var photo []byte
	var description sql.NullString
	require.NoError(t, db.QueryRow("select Photo from DimAccount where AccountKey = 1").Scan(&photo))
	assert.Equal(t, []byte{0x0a, 0x0b}, photo)
	require.NoError(t, db.QueryRow("select AccountDescription from DimAccount where AccountKey = 2").Scan(&description))
	assert.False(t, description.Valid)
}

func TestLoadRollsBackOnBadRecord(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "aw.db")
	applier, _ := newSQLiteApplier(t, Options{DSN: dsn, Transaction: true})
	table := accountTable()

	_, err := applier.CreateTables(ctx, []core.Table{table}, portable.NewPortableGenerator())
	require.NoError(t, err)

	n, err := applier.Load(ctx, table, readRecords(t, table, "1|a|\n2|b||extra\n").All())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, dump.ErrTooManyFields)
	assert.Contains(t, err.Error(), "rolled back")
	assert.Equal(t, 0, countRows(t, dsn, "DimAccount"))
}

func TestLoadWithoutTransactionKeepsEarlierRows(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "aw.db")
	applier, _ := newSQLiteApplier(t, Options{DSN: dsn})
	table := accountTable()

	_, err := applier.CreateTables(ctx, []core.Table{table}, portable.NewPortableGenerator())
	require.NoError(t, err)

	n, err := applier.Load(ctx, table, readRecords(t, table, "1|a|\n2|b||extra\n").All())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, countRows(t, dsn, "DimAccount"))
}

func TestDryRun(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	applier, err := NewApplier(Options{Driver: "pgx", DryRun: true, Out: &out})
	require.NoError(t, err)
	require.NoError(t, applier.Connect(ctx))

	table := accountTable()
	created, err := applier.CreateTables(ctx, []core.Table{table}, portable.NewPortableGenerator())
	require.NoError(t, err)
	assert.Equal(t, []string{"DimAccount"}, created)

	n, err := applier.Load(ctx, table, readRecords(t, table, "1|a|\n2|b|\n").All())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Contains(t, out.String(), "create table DimAccount (\n    AccountKey int Primary Key,")
	assert.Contains(t, out.String(), "insert into DimAccount values ($1, $2, $3) -- 2 rows")
}

func TestLoadNotConnected(t *testing.T) {
	applier, err := NewApplier(Options{Driver: "sqlite"})
	require.NoError(t, err)
	_, err = applier.Load(context.Background(), accountTable(), readRecords(t, accountTable(), "").All())
	assert.ErrorContains(t, err, "not connected")
}

func TestPreflightChecksAndReport(t *testing.T) {
	mysqlApplier, err := NewApplier(Options{Driver: "mysql"})
	require.NoError(t, err)
	sqliteApplier, err := NewApplier(Options{Driver: "sqlite"})
	require.NoError(t, err)

	statements := []string{
		portable.NewPortableGenerator().GenerateCreateTable(accountTable()),
		"create table [T] ([id] [int])",
	}

	result := mysqlApplier.PreflightChecks(statements)
	assert.False(t, result.IsTransactional)
	assert.Len(t, result.NonTxReasons, 2)

	result = sqliteApplier.PreflightChecks(statements)
	assert.True(t, result.IsTransactional)
	assert.Empty(t, result.NonTxReasons)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnCaution, result.Warnings[0].Level)

	var out bytes.Buffer
	reporter, err := NewApplier(Options{Driver: "sqlite", Out: &out})
	require.NoError(t, err)
	reporter.ReportPreflight(result)
	assert.Contains(t, out.String(), "[CAUTION] Statement may not be portable")
	assert.Contains(t, out.String(), "    SQL: create table [T] ([id] [int])")

	out.Reset()
	reporter.ReportPreflight(&PreflightResult{IsTransactional: true})
	assert.Equal(t, "--- Preflight Checks ---\nNo warnings\n", out.String())
}
