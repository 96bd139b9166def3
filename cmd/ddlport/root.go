package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ddlport/internal/config"
	"ddlport/internal/core"
	"ddlport/internal/dump"
	"ddlport/internal/parser"
)

// options holds the persistent flags and the state derived from them before
// any subcommand runs.
type options struct {
	configPath string
	inputs     []string
	encoding   string
	strict     bool
	debug      bool

	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "ddlport",
		Short: "Recover table definitions from a T-SQL dump and port them",
		Long: `ddlport reads the CREATE TABLE statements of a SQL Server schema dump
(UTF-16 or UTF-8), keeps them as a table model and re-emits them as
canonical or portable SQL. It can also create the tables in another
database and load the pipe-delimited data exported next to the dump.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "Path to a ddlport TOML config file")
	cmd.PersistentFlags().StringSliceVarP(&o.inputs, "input", "i", nil, "Schema files to read (.sql dump or .toml definitions); replaces [source] path and include")
	cmd.PersistentFlags().StringVarP(&o.encoding, "encoding", "e", "", "Dump encoding: utf-16, utf-8 or auto")
	cmd.PersistentFlags().BoolVar(&o.strict, "strict", false, "Fail on CREATE TABLE statements left open at end of input")
	cmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "use debug log level")

	cmd.AddCommand(newTablesCmd(o))
	cmd.AddCommand(newSQLCmd(o))
	cmd.AddCommand(newInsertCmd(o))
	cmd.AddCommand(newLoadCmd(o))
	cmd.AddCommand(newConvertCmd(o))

	return cmd
}

func (o *options) setup(cmd *cobra.Command) error {
	o.logger = newLogger(cmd.ErrOrStderr(), o.debug)

	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		o.logger.WithField("config", o.configPath).Debug("loaded configuration")
	}

	flags := cmd.Flags()
	if flags.Changed("input") && len(o.inputs) > 0 {
		cfg.Source.Path = o.inputs[0]
		cfg.Source.Include = o.inputs[1:]
	}
	if flags.Changed("encoding") {
		cfg.Source.Encoding = o.encoding
	}
	if flags.Changed("strict") {
		cfg.Parser.Strict = o.strict
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg
	return nil
}

func newLogger(out io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadDatabase parses every configured schema file.
func (o *options) loadDatabase() (*core.Database, error) {
	enc, err := dump.ParseEncoding(o.cfg.Source.Encoding)
	if err != nil {
		return nil, err
	}

	paths := o.cfg.Source.Paths()
	o.logger.WithField("files", strings.Join(paths, ", ")).Debug("parsing schema")

	db, err := parser.ParseFiles(paths, parser.Options{Encoding: enc, Strict: o.cfg.Parser.Strict})
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	o.logger.WithField("tables", db.Len()).Debug("parsed schema")
	return db, nil
}

// selectTables returns every table, or the one named by args[0].
func (o *options) selectTables(db *core.Database, args []string) ([]core.Table, error) {
	if len(args) == 0 {
		return db.Tables(), nil
	}
	t, err := db.Table(args[0])
	if err != nil {
		return nil, err
	}
	return []core.Table{t}, nil
}
