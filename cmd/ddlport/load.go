package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/cobra"

	"ddlport/internal/apply"
	"ddlport/internal/core"
	"ddlport/internal/dump"
)

func newLoadCmd(o *options) *cobra.Command {
	var (
		driver      string
		dsn         string
		dryRun      bool
		transaction bool
		skip        []string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load [table]",
		Short: "Create the dump's tables in a database and load their data",
		Long: `Load creates every table that does not exist yet in the target database
and inserts the rows of <data dir>/<table>.csv into it. Tables without a
data file are created but left empty. sysdiagrams is never loaded and the
[database] skip list (DatabaseLog by default) is honoured.

Examples:
  ddlport load --driver sqlite --dsn file:aw.db
  ddlport load DimAccount --driver pgx --dsn postgres://localhost/aw
  ddlport load --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("driver") {
				o.cfg.Database.Driver = driver
			}
			if flags.Changed("dsn") {
				o.cfg.Database.DSN = dsn
			}
			if flags.Changed("transaction") {
				o.cfg.Database.Transaction = transaction
			}
			if flags.Changed("skip") {
				o.cfg.Database.Skip = skip
			}
			if !dryRun && o.cfg.Database.DSN == "" {
				return errors.New("a DSN is required: use --dsn or [database] dsn, or --dry-run")
			}

			db, err := o.loadDatabase()
			if err != nil {
				return err
			}
			tables, err := o.selectTables(db, args)
			if err != nil {
				return err
			}
			generator, err := o.cfg.Generator()
			if err != nil {
				return err
			}

			applier, err := apply.NewApplier(apply.Options{
				Driver:      o.cfg.Database.Driver,
				DSN:         o.cfg.Database.DSN,
				DryRun:      dryRun,
				Transaction: o.cfg.Database.Transaction,
				Skip:        o.cfg.Database.Skip,
				Out:         cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			statements := make([]string, 0, len(tables))
			for _, t := range tables {
				if !applier.Skipped(t.TableName()) {
					statements = append(statements, generator.GenerateCreateTable(t))
				}
			}
			applier.ReportPreflight(applier.PreflightChecks(statements))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := applier.Connect(ctx); err != nil {
				return err
			}
			defer func() {
				if closeErr := applier.Close(); closeErr != nil {
					o.logger.WithError(closeErr).Warn("failed to close database connection")
				}
			}()

			created, err := applier.CreateTables(ctx, tables, generator)
			if err != nil {
				return err
			}
			o.logger.WithField("tables", len(created)).Info("created tables")

			total := 0
			for _, t := range tables {
				if applier.Skipped(t.TableName()) {
					o.logger.WithField("table", t.TableName()).Debug("skipped")
					continue
				}
				n, err := o.loadTable(ctx, applier, t)
				if err != nil {
					return err
				}
				total += n
			}
			o.logger.WithField("rows", total).Info("load complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Target driver: mysql, sqlite, pgx or sqlserver")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Target database DSN")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the statements instead of executing them")
	cmd.Flags().BoolVar(&transaction, "transaction", true, "Load each table in a single transaction")
	cmd.Flags().StringSliceVar(&skip, "skip", nil, "Tables to leave out (sysdiagrams is always skipped)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "Overall timeout for connecting and loading")

	return cmd
}

// loadTable streams one table's data file into the applier. A missing file
// means the table has no data.
func (o *options) loadTable(ctx context.Context, applier *apply.Applier, t core.Table) (int, error) {
	log := o.logger.WithField("table", t.TableName())

	enc, err := dump.ParseEncoding(o.cfg.Data.Encoding)
	if err != nil {
		return 0, err
	}

	path := o.cfg.Data.DataFile(t.TableName())
	r, err := dump.Open(path, enc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no data")
			return 0, nil
		}
		return 0, err
	}
	defer r.Close()

	rr := dump.NewRecordReader(r, t.ColumnNames(), o.cfg.Data.RecordOptions()...)
	n, err := applier.Load(ctx, t, rr.All())
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	log.WithField("rows", n).Info("loaded")
	return n, nil
}
