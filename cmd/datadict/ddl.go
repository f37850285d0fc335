package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/datadict/internal/dict"
)

func newDDLCmd() *cobra.Command {
	var (
		dialect string
		replace bool
		add     bool
	)

	cmd := &cobra.Command{
		Use:   "ddl <table> <fields>",
		Short: "Render a field definition as DDL without connecting",
		Example: `  datadict ddl --dialect postgres mantis_tag_table \
    "id I UNSIGNED NOTNULL PRIMARY AUTOINCREMENT, name C(100) NOTNULL DEFAULT ''"`,
		Args: cobra.ExactArgs(2),
		// No config or database needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dict.Lookup(dialect)
			if err != nil {
				return err
			}
			gen := dict.NewGenerator(d)

			var stmts []string
			if add {
				stmts, err = gen.AddColumn(args[0], args[1])
			} else {
				stmts, err = gen.CreateTableSQL(args[0], args[1], dict.TableOptions{Replace: replace})
			}
			if err != nil {
				return err
			}

			for _, stmt := range stmts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "mysql", "target dialect: mysql, postgres or sqlite")
	cmd.Flags().BoolVar(&replace, "replace", false, "drop an existing table first")
	cmd.Flags().BoolVar(&add, "add", false, "add the fields to an existing table instead of creating it")
	return cmd
}
