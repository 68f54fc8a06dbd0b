package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caltrack/caltrack/internal/config"
	"github.com/caltrack/caltrack/internal/logger"
)

type validateOptions struct {
	TemplatePath string
	Verbose      bool
}

var validateCmdRunner = runValidate

func newValidateCmd(root *rootFlags) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <template-file>",
		Short: "Check a template document for structural and tolerance errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.TemplatePath = args[0]
			opts.Verbose = root.verbose

			return validateCmdRunner(cmd, opts)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, opts validateOptions) error {
	log := newLogger(opts.Verbose)

	tmpl, err := config.ParseTemplate(opts.TemplatePath)
	if err != nil {
		return fmt.Errorf("template %s: %w", opts.TemplatePath, err)
	}

	log.WithFields(map[string]interface{}{
		"template": tmpl.Name,
		"fields":   len(tmpl.Fields),
	}).Debug("template parsed")

	groups := tmpl.Groups()
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", titleStyle.Render(tmpl.Name))
	fmt.Fprintf(cmd.OutOrStdout(), "%d fields in %d groups: OK\n", len(tmpl.Fields), len(groups))
	return nil
}

// newLogger never fails for the fixed level names used here; Logger is
// nil-safe, so a nil result only silences logging.
func newLogger(verbose bool) *logger.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Pretty: true})
	if err != nil {
		return nil
	}
	return log
}
