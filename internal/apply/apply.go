// Package apply connects to a target database, creates the tables recovered
// from a dump that do not exist there yet and bulk loads their data. Work is
// reported line by line to an injected writer so callers decide where
// progress goes.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"iter"
	"strings"

	"ddlport/internal/core"
	"ddlport/internal/dialect"
	"ddlport/internal/dump"
)

// AlwaysSkipped names SQL Server internal tables that are never created or
// loaded.
var AlwaysSkipped = []string{"sysdiagrams"}

// DefaultSkip names tables skipped unless Options.Skip says otherwise.
var DefaultSkip = []string{"DatabaseLog"}

// PreflightResult contains a list of warnings and transactionality info about a load.
type PreflightResult struct {
	Warnings        []Warning
	IsTransactional bool
	NonTxReasons    []string
}

// Warning contains a Level of a warning, message, and actual SQL.
type Warning struct {
	Level   WarningLevel
	Message string
	SQL     string
}

// WarningLevel is a const that is expandable for later and contains different levels of danger.
type WarningLevel string

const WarnCaution WarningLevel = "CAUTION"

// Options struct contains all settings available during the load command.
type Options struct {
	Driver string
	DSN    string
	DryRun bool
	// Transaction wraps each table's rows in a single transaction.
	Transaction bool
	// Skip replaces DefaultSkip when non-nil.
	Skip []string
	Out  io.Writer
}

// Applier creates and loads tables in one target database.
type Applier struct {
	db       *sql.DB
	driver   Driver
	options  Options
	analyzer *StatementAnalyzer
	skip     map[string]struct{}
	out      io.Writer
}

// NewApplier returns a pointer to Applier with provided options. The driver
// name is validated here so a bad configuration fails before any I/O.
func NewApplier(options Options) (*Applier, error) {
	driver, err := ParseDriver(options.Driver)
	if err != nil {
		return nil, err
	}

	out := options.Out
	if out == nil {
		out = io.Discard
	}

	skipped := options.Skip
	if skipped == nil {
		skipped = DefaultSkip
	}
	skip := make(map[string]struct{}, len(skipped)+len(AlwaysSkipped))
	for _, name := range append(append([]string{}, AlwaysSkipped...), skipped...) {
		skip[strings.ToLower(name)] = struct{}{}
	}

	return &Applier{
		driver:   driver,
		options:  options,
		analyzer: NewStatementAnalyzer(),
		skip:     skip,
		out:      out,
	}, nil
}

// We use custom printf to format and print messages to the output writer.
func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Driver returns the resolved driver.
func (a *Applier) Driver() Driver {
	return a.driver
}

// Connect establishes a connection with the target database and pings it.
// In dry-run mode nothing is opened.
func (a *Applier) Connect(ctx context.Context) error {
	if a.options.DryRun {
		return nil
	}
	if err := a.driver.ValidateDSN(a.options.DSN); err != nil {
		return err
	}

	db, err := sql.Open(string(a.driver), a.options.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to ping database: %v; additionally failed to close connection: %w", pingErr, closeErr)
		}
		return fmt.Errorf("failed to ping database: %w", pingErr)
	}

	a.db = db
	return nil
}

// Close closes the connection, if any.
func (a *Applier) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Skipped reports whether the table is excluded from creation and loading.
func (a *Applier) Skipped(name string) bool {
	_, ok := a.skip[strings.ToLower(name)]
	return ok
}

// PreflightChecks runs the AST-based analyzer over the statements.
func (a *Applier) PreflightChecks(statements []string) *PreflightResult {
	result := a.analyzer.AnalyzeStatements(statements)
	if !a.driver.ImplicitCommit() {
		result.IsTransactional = true
		result.NonTxReasons = nil
	}
	return result
}

// ReportPreflight prints the preflight result.
func (a *Applier) ReportPreflight(preflight *PreflightResult) {
	a.println("--- Preflight Checks ---")
	if len(preflight.Warnings) == 0 {
		a.println("No warnings")
	}
	for _, w := range preflight.Warnings {
		a.printf("[%s] %s\n", w.Level, w.Message)
		if w.SQL != "" {
			a.printf("    SQL: %s\n", truncateSQL(w.SQL))
		}
	}
	if !preflight.IsTransactional {
		a.println("--- Transaction Safety ---")
		for _, reason := range preflight.NonTxReasons {
			a.printf("  - %s\n", reason)
		}
	}
}

// TableExists reports whether a table with the table's bare name exists in
// the current schema, ignoring case.
func (a *Applier) TableExists(ctx context.Context, table core.Table) (bool, error) {
	if a.db == nil {
		return false, nil
	}
	var count int
	if err := a.db.QueryRowContext(ctx, drivers[a.driver].existsQuery, table.TableName()).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table.TableName(), err)
	}
	return count > 0, nil
}

// CreateTables creates every table that is neither skipped nor already
// present, using generator to render the statements. It returns the names of
// the tables it created (or, in dry-run mode, would create).
func (a *Applier) CreateTables(ctx context.Context, tables []core.Table, generator dialect.Generator) ([]string, error) {
	var created []string
	for _, t := range tables {
		if a.Skipped(t.TableName()) {
			continue
		}

		exists, err := a.TableExists(ctx, t)
		if err != nil {
			return created, err
		}
		if exists {
			a.printf("Table %s exists, skipping create\n", t.TableName())
			continue
		}

		stmt := generator.GenerateCreateTable(t)
		if a.options.DryRun {
			a.printf("%s;\n\n", strings.TrimSuffix(stmt, ";"))
			created = append(created, t.TableName())
			continue
		}

		a.printf("Creating %s...\n", t.TableName())
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return created, fmt.Errorf("create %s failed: %w\n  Statement: %s", t.TableName(), err, truncateSQL(stmt))
		}
		created = append(created, t.TableName())
	}
	return created, nil
}

// Load inserts every record into table with one prepared statement, in a
// single transaction when Options.Transaction is set. Records are bound in
// column order. It returns the number of rows inserted; on error nothing is
// committed in transaction mode.
func (a *Applier) Load(ctx context.Context, table core.Table, records iter.Seq2[dump.Record, error]) (int, error) {
	columns := table.ColumnNames()
	insert := dialect.InsertStatement(table.TableName(), columns, a.driver.BindStyle())

	if a.options.DryRun {
		return a.dryRunLoad(table, insert, records)
	}
	if a.db == nil {
		return 0, fmt.Errorf("load %s: not connected", table.TableName())
	}

	if !a.options.Transaction {
		stmt, err := a.db.PrepareContext(ctx, insert)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare insert for %s: %w", table.TableName(), err)
		}
		defer stmt.Close()
		return a.insertAll(ctx, stmt, table, columns, records)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare insert for %s: %w", table.TableName(), err)
	}

	n, err := a.insertAll(ctx, stmt, table, columns, records)
	_ = stmt.Close()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return 0, fmt.Errorf("%w; rollback also failed: %v", err, rbErr)
		}
		return 0, fmt.Errorf("%w (rolled back)", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

func (a *Applier) insertAll(ctx context.Context, stmt *sql.Stmt, table core.Table, columns []string, records iter.Seq2[dump.Record, error]) (int, error) {
	n := 0
	for rec, err := range records {
		if err != nil {
			return n, fmt.Errorf("load %s: %w", table.TableName(), err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Values(columns)...); err != nil {
			return n, fmt.Errorf("load %s: row %d: %w", table.TableName(), n+1, err)
		}
		n++
	}
	return n, nil
}

func (a *Applier) dryRunLoad(table core.Table, insert string, records iter.Seq2[dump.Record, error]) (int, error) {
	n := 0
	for _, err := range records {
		if err != nil {
			return n, fmt.Errorf("load %s: %w", table.TableName(), err)
		}
		n++
	}
	a.printf("%s -- %d rows\n", insert, n)
	return n, nil
}

func truncateSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
