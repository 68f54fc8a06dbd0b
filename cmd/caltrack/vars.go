package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caltrack/caltrack/internal/expr"
)

func newVarsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vars <equation>",
		Short: "List the variables a tolerance equation reads",
		Long: `Vars parses an equation with the same restricted grammar used during
record evaluation and prints its variables in first-use order. PLOT
directives are accepted as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]

			var names []string
			if strings.HasPrefix(strings.TrimSpace(source), "PLOT") {
				plot, err := expr.ParsePlot(source)
				if err != nil {
					return err
				}
				names = plot.FreeVariables()
			} else {
				parsed, err := expr.Parse(source)
				if err != nil {
					return err
				}
				names = parsed.FreeVariables()
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(constant expression)")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	return cmd
}
