package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/datadict"
	"github.com/tordrt/datadict/internal/config"
	"github.com/tordrt/datadict/internal/db"
	"github.com/tordrt/datadict/internal/logger"
	"github.com/tordrt/datadict/internal/migrate"
	"github.com/tordrt/datadict/internal/tracker"
)

// app holds the global flags and what PersistentPreRunE derives from them
type app struct {
	configFile string
	dbURL      string
	verbose    bool

	cfg *config.Config
	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "datadict",
		Short: "Portable schema upgrades for MySQL, PostgreSQL and SQLite",
		Long: `datadict applies an ordered list of schema upgrade steps, written in a portable
data dictionary, to MySQL, PostgreSQL or SQLite. Progress is stored in the
database, so an upgrade can be re-run safely and resumes after a failure.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./datadict.yaml or ~/.config/datadict/datadict.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.dbURL, "db-url", "", "database URL (postgres://, pq://, mysql://, sqlite://, sqlite3://)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every statement")

	rootCmd.AddCommand(newUpgradeCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newInspectCmd(a))
	rootCmd.AddCommand(newStatsCmd(a))
	rootCmd.AddCommand(newDDLCmd())
	return rootCmd
}

func (a *app) load(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{}
	if cmd.Flags().Changed("db-url") {
		overrides["database.url"] = a.dbURL
	}
	if cmd.Flags().Changed("verbose") {
		overrides["log.verbose"] = a.verbose
	}

	cfg, err := config.Load(a.configFile, overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(cfg.Log.Verbose)
	return nil
}

// connect opens the configured database, preferring a URL over parts
func (a *app) connect(ctx context.Context) (*db.Conn, error) {
	opts := []db.Option{db.WithLogger(a.log)}
	if a.cfg.Database.URL != "" {
		return datadict.Connect(ctx, a.cfg.Database.URL, opts...)
	}
	if a.cfg.Database.Driver == "" {
		return nil, errors.New("no database configured: use --db-url or set database.url in the config file")
	}
	return db.Open(ctx, a.cfg.Database.Connection(), opts...)
}

func (a *app) tables() migrate.TableNames {
	return migrate.TableNames{Prefix: a.cfg.Tables.Prefix, Suffix: a.cfg.Tables.Suffix}
}

// upgradeOptions loads the step list from file, falling back to the
// configured file and then to the built-in tracker schema
func (a *app) upgradeOptions(file string) (*datadict.Options, error) {
	if file == "" {
		file = a.cfg.Migrations.File
	}

	steps := tracker.Steps()
	if file != "" {
		var err error
		steps, err = migrate.LoadFile(file)
		if err != nil {
			return nil, err
		}
	}

	tables := a.tables()
	return &datadict.Options{
		Steps:      steps,
		Tables:     &tables,
		StateTable: a.cfg.Migrations.StateTable,
		Functions:  tracker.Functions(),
		Logger:     a.log,
	}, nil
}

func (a *app) closeConn(conn *db.Conn) {
	if err := conn.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close database connection")
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
