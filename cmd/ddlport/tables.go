package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ddlport/internal/output"
)

func newTablesCmd(o *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tables [table]",
		Short: "List the tables recovered from the dump",
		Long: `Tables prints the parsed tables. The summary format lists names and
column counts, json prints the full model and sql prints every table as
CREATE TABLE in the configured dialect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = o.cfg.Output.Format
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
			formatter, err := output.NewFormatter(format, generator)
			if err != nil {
				return err
			}
			formatted, err := formatter.FormatTables(tables)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatted)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: summary, json or sql (default [output] format)")

	return cmd
}
