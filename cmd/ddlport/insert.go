package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ddlport/internal/apply"
	"ddlport/internal/dialect"
)

func newInsertCmd(o *options) *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Print the bulk insert statement for a table",
		Long: `Insert prints the parameterized insert used to load a table, with one
named parameter per column (insert into T values (:a, :b)). With --driver
the placeholders use that driver's style instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bind := dialect.BindNamed
			if driver != "" {
				d, err := apply.ParseDriver(driver)
				if err != nil {
					return err
				}
				bind = d.BindStyle()
			}

			db, err := o.loadDatabase()
			if err != nil {
				return err
			}
			table, err := db.Table(args[0])
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), dialect.InsertStatement(table.TableName(), table.ColumnNames(), bind))
			return err
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Render placeholders for a driver: mysql, sqlite, pgx or sqlserver")

	return cmd
}
