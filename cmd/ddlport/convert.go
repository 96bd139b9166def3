package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ddlport/internal/core"
	"ddlport/internal/dump"
)

func newConvertCmd(o *options) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "convert [table]",
		Short: "Re-encode the raw data files as UTF-8 CSV or JSON",
		Long: `Convert reads <data dir>/<table>.csv for every parsed table and writes
<output>/<table>.csv (UTF-8 with a header row) or <output>/<table>.json
(one object per line). The output directory defaults to a csv or json
directory beside the raw data directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportFormat, err := dump.ParseExportFormat(format)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(filepath.Dir(o.cfg.Data.Dir), string(exportFormat))
			}

			db, err := o.loadDatabase()
			if err != nil {
				return err
			}
			tables, err := o.selectTables(db, args)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			converted := 0
			for _, t := range tables {
				ok, err := o.convertTable(t, exportFormat, outDir)
				if err != nil {
					return err
				}
				if ok {
					converted++
				}
			}
			o.logger.WithField("dir", outDir).Infof("Converted %d table(s)", converted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(dump.ExportCSV), "Output format: csv or json")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "Output directory")

	return cmd
}

// convertTable reports false when the table has no data file.
func (o *options) convertTable(t core.Table, format dump.ExportFormat, outDir string) (bool, error) {
	log := o.logger.WithField("table", t.TableName())

	enc, err := dump.ParseEncoding(o.cfg.Data.Encoding)
	if err != nil {
		return false, err
	}
	src := o.cfg.Data.DataFile(t.TableName())
	r, err := dump.Open(src, enc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("no data")
			return false, nil
		}
		return false, err
	}
	defer r.Close()

	dst := filepath.Join(outDir, t.TableName()+"."+string(format))
	f, err := os.Create(dst)
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", dst, err)
	}

	rr := dump.NewRecordReader(r, t.ColumnNames(), o.cfg.Data.RecordOptions()...)
	n, err := dump.Export(f, format, rr.Columns(), rr.All())
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", src, err)
	}
	log.WithField("rows", n).Infof("Generating %s... done", dst)
	return true, nil
}
