package apply

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"ddlport/internal/dialect"
)

// Driver is a database/sql driver name the applier can target.
type Driver string

const (
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
	DriverPostgres  Driver = "pgx"
	DriverSQLServer Driver = "sqlserver"
)

type driverSpec struct {
	bind dialect.BindStyle
	// existsQuery counts tables named like its single parameter in the
	// current schema, case-insensitively.
	existsQuery string
	// implicitCommit is set when DDL commits any open transaction.
	implicitCommit bool
	validateDSN    func(dsn string) error
}

var drivers = map[Driver]driverSpec{
	DriverMySQL: {
		bind:           dialect.BindQuestion,
		existsQuery:    "select count(*) from information_schema.tables where table_schema = database() and lower(table_name) = lower(?)",
		implicitCommit: true,
		validateDSN: func(dsn string) error {
			_, err := mysql.ParseDSN(dsn)
			return err
		},
	},
	DriverSQLite: {
		bind:        dialect.BindQuestion,
		existsQuery: "select count(*) from sqlite_master where type = 'table' and lower(name) = lower(?)",
	},
	DriverPostgres: {
		bind:        dialect.BindDollar,
		existsQuery: "select count(*) from information_schema.tables where table_schema = current_schema() and lower(table_name) = lower($1)",
		validateDSN: func(dsn string) error {
			_, err := pgx.ParseConfig(dsn)
			return err
		},
	},
	DriverSQLServer: {
		bind:        dialect.BindAtP,
		existsQuery: "select count(*) from information_schema.tables where lower(table_name) = lower(@p1)",
		validateDSN: func(dsn string) error {
			_, err := msdsn.Parse(dsn)
			return err
		},
	},
}

var driverAliases = map[string]Driver{
	"sqlite3":    DriverSQLite,
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"mssql":      DriverSQLServer,
}

// UnsupportedDriverError is returned for driver names ParseDriver rejects.
type UnsupportedDriverError struct {
	Name string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported driver %q; use mysql, sqlite, pgx or sqlserver", e.Name)
}

// ParseDriver resolves a driver name or alias. Empty means mysql.
func ParseDriver(name string) (Driver, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DriverMySQL, nil
	}
	if d, ok := driverAliases[n]; ok {
		return d, nil
	}
	if _, ok := drivers[Driver(n)]; ok {
		return Driver(n), nil
	}
	return "", &UnsupportedDriverError{Name: name}
}

// BindStyle returns the placeholder style the driver expects.
func (d Driver) BindStyle() dialect.BindStyle {
	return drivers[d].bind
}

// ImplicitCommit reports whether DDL on this driver ends a transaction.
func (d Driver) ImplicitCommit() bool {
	return drivers[d].implicitCommit
}

// ValidateDSN checks the DSN syntax without connecting.
func (d Driver) ValidateDSN(dsn string) error {
	spec, ok := drivers[d]
	if !ok {
		return &UnsupportedDriverError{Name: string(d)}
	}
	if spec.validateDSN == nil {
		return nil
	}
	if err := spec.validateDSN(dsn); err != nil {
		return fmt.Errorf("invalid %s dsn: %w", d, err)
	}
	return nil
}
