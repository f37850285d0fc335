package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tordrt/datadict"
	"github.com/tordrt/datadict/internal/migrate"
	"github.com/tordrt/datadict/internal/progress"
)

func newUpgradeCmd(a *app) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Apply pending upgrade steps",
		Long: `Apply every step after the stored progress marker. Without --file the
built-in issue tracker schema is installed or upgraded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.upgradeOptions(file)
			if err != nil {
				return err
			}

			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeConn(conn)

			if dryRun {
				runner, steps := datadict.NewRunner(conn, opts)
				return printPlan(ctx, cmd.OutOrStdout(), runner, steps)
			}

			bar := progress.NewBar(cmd.ErrOrStderr(), int64(len(opts.Steps)), "upgrading")
			opts.Observer = func(e migrate.Event) {
				if e.State == migrate.Applied {
					bar.Step(e.Index+1, e.Description)
				}
			}
			runner, steps := datadict.NewRunner(conn, opts)

			current, err := runner.Current(ctx)
			if err != nil {
				return err
			}
			if current.Step+1 >= len(steps) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (step %d of %d)\n", current.Step, len(steps)-1)
				return nil
			}
			_ = bar.Set(current.Step + 1)

			report, err := runner.Run(ctx, steps)
			if err != nil {
				return err
			}
			bar.Finish()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied %d step(s), schema at step %d of %d (run %s)\n",
				report.Applied(), report.Last, len(steps)-1, report.RunID)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML step list (default: built-in tracker schema)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the pending statements without executing them")
	return cmd
}

func printPlan(ctx context.Context, w io.Writer, runner *migrate.Runner, steps []migrate.Step) error {
	plan, err := runner.Plan(ctx, steps)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to do")
		return nil
	}

	for _, p := range plan {
		switch {
		case p.Skipped:
			_, _ = fmt.Fprintf(w, "-- step %d: %s (skipped, precondition not met)\n", p.Index, p.Description)
		case p.Function != "":
			_, _ = fmt.Fprintf(w, "-- step %d: %s (runs update function %s)\n", p.Index, p.Description, p.Function)
		default:
			_, _ = fmt.Fprintf(w, "-- step %d: %s\n", p.Index, p.Description)
			for _, stmt := range p.Statements {
				_, _ = fmt.Fprintf(w, "%s;\n", stmt)
			}
		}
	}
	return nil
}

func newStatusCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored progress marker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.upgradeOptions(file)
			if err != nil {
				return err
			}

			conn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeConn(conn)

			runner, steps := datadict.NewRunner(conn, opts)
			status, err := runner.Status(ctx, steps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Database: %s\n", conn.DriverName())
			_, _ = fmt.Fprintf(out, "Step:     %d of %d\n", status.Step, status.Total-1)
			_, _ = fmt.Fprintf(out, "Pending:  %d\n", status.Pending)
			if status.RunID != "" {
				_, _ = fmt.Fprintf(out, "Last run: %s at %s\n", status.RunID, status.UpdatedAt.Format(time.RFC3339))
			}
			if status.Drift {
				_, _ = fmt.Fprintln(out, "Warning: applied steps differ from the step list")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML step list (default: built-in tracker schema)")
	return cmd
}
