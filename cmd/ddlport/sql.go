package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ddlport/internal/output"
)

func newSQLCmd(o *options) *cobra.Command {
	var (
		outDir   string
		dialect  string
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "sql [table]",
		Short: "Write CREATE TABLE statements for the dump's tables",
		Long: `Sql writes the SQL needed to recreate each table, one <table>.sql file
per table in the output directory. All tables are exported unless a table
name is given.

Examples:
  ddlport sql
  ddlport sql DimAccount --stdout
  ddlport sql --dialect tsql --output build/sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dialect") {
				o.cfg.Output.Dialect = dialect
			}
			if cmd.Flags().Changed("output") {
				o.cfg.Output.Dir = outDir
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

			if toStdout {
				formatter, err := output.NewFormatter(string(output.FormatSQL), generator)
				if err != nil {
					return err
				}
				formatted, err := formatter.FormatTables(tables)
				if err != nil {
					return fmt.Errorf("failed to format output: %w", err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), formatted)
				return err
			}

			paths, err := output.WriteSQLFiles(o.cfg.Output.Dir, tables, generator)
			for i, path := range paths {
				o.logger.WithField("file", path).Infof("Generating %s... done", tables[i].TableName())
			}
			if err != nil {
				return err
			}
			o.logger.Infof("Wrote %d file(s) to %s", len(paths), o.cfg.Output.Dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Directory for the generated <table>.sql files")
	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "Target dialect: portable or tsql")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the statements instead of writing files")

	return cmd
}
