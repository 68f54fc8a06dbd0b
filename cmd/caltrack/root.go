package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "caltrack",
		Short:         "Caltrack evaluates calibration records against tolerance templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newVarsCmd())
	cmd.AddCommand(newDueCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
