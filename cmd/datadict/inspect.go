package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/datadict"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		tables     string
		exclude    string
		format     string
		outputFile string
		outputDir  string
		rowCounts  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the live schema",
		Long: `Describe the tables, columns, indexes and primary keys of the connected
database as text or markdown. The migration state table is left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir != "" && outputFile != "" {
				return fmt.Errorf("cannot use both --output-dir and --output flags")
			}

			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeConn(conn)

			excludeList := append(splitList(exclude), a.tables().Resolve(a.cfg.Migrations.StateTable))
			s, err := datadict.Inspect(ctx, conn, &datadict.InspectOptions{
				Tables:        splitList(tables),
				ExcludeTables: excludeList,
				RowCounts:     rowCounts,
			})
			if err != nil {
				return err
			}

			out := &datadict.OutputOptions{Format: format, OutputDir: outputDir, Writer: cmd.OutOrStdout()}
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						a.log.WithError(err).Warn("failed to close output file")
					}
				}()
				out.Writer = f
			}

			if err := datadict.FormatSchema(s, out); err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tables, "tables", "t", "", "specific tables (comma-separated, optional)")
	cmd.Flags().StringVarP(&exclude, "exclude", "x", "", "tables to leave out (comma-separated)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or markdown")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "output directory for one file per table")
	cmd.Flags().BoolVar(&rowCounts, "row-counts", false, "include the row count of every table")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server version, tables and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeConn(conn)

			version, err := conn.ServerVersion(ctx)
			if err != nil {
				return err
			}
			names, err := conn.Tables(ctx, false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Driver:  %s (%s)\n", conn.DriverName(), conn.Dialect())
			_, _ = fmt.Fprintf(out, "Server:  %s\n", version)
			_, _ = fmt.Fprintf(out, "Tables:  %d\n", len(names))
			for _, name := range names {
				rows, err := conn.RowCount(ctx, name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "  %-40s %d\n", name, rows)
			}
			_, _ = fmt.Fprintf(out, "Queries: %d\n", conn.QueryCount())
			return nil
		},
	}
}
