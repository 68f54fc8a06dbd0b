package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/caltrack/caltrack/internal/config"
	"github.com/caltrack/caltrack/internal/domain/schedule"
	"github.com/caltrack/caltrack/internal/engine"
	"github.com/caltrack/caltrack/internal/model"
	"github.com/caltrack/caltrack/internal/store"
)

type checkOptions struct {
	TemplatePath string
	RecordPath   string
	Verbose      bool

	// DBPath and Tag are optional: when both are given the evaluated
	// record is persisted and the instrument's due dates roll forward.
	DBPath string
	Tag    string
}

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <template-file> <record-file>",
		Short: "Evaluate a record worksheet against its template",
		Long: `Check autofills shared fields, derives computed fields and resolves each
tolerance, then prints a per-field report. Exit code 1 means at least one
field failed or could not be resolved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.TemplatePath = args[0]
			opts.RecordPath = args[1]
			opts.Verbose = root.verbose

			return checkCmdRunner(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "sqlite database to record the result in")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Instrument tag number (required with --db)")

	return cmd
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	if (opts.DBPath == "") != (opts.Tag == "") {
		return fmt.Errorf("--db and --tag must be given together")
	}

	log := newLogger(opts.Verbose)

	tmpl, err := config.ParseTemplate(opts.TemplatePath)
	if err != nil {
		return fmt.Errorf("template %s: %w", opts.TemplatePath, err)
	}
	doc, err := config.ParseRecord(opts.RecordPath)
	if err != nil {
		return fmt.Errorf("record %s: %w", opts.RecordPath, err)
	}
	values, edited := doc.Bindings()

	result, err := engine.New(log).EvaluateRecord(tmpl, values, edited)
	if err != nil {
		return err
	}

	printReport(cmd, tmpl.Name, result)

	if opts.DBPath != "" {
		if err := persistResult(cmd.Context(), opts, doc, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded for %s\n", opts.Tag)
	}

	if !result.Complete() {
		_, failed, errored, _ := result.Counts()
		return fmt.Errorf("record incomplete: %d failed, %d unresolved", failed, errored)
	}
	return nil
}

func printReport(cmd *cobra.Command, templateName string, result model.RecordResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(templateName))

	group := ""
	for _, fr := range result.Fields {
		if fr.Group != group {
			group = fr.Group
			fmt.Fprintf(out, "\n%s\n", sectionStyle.Render(group))
		}
		fmt.Fprintf(out, "  %-10s %s", statusGlyph(fr.Status), fr.Label)
		if fr.Value != "" {
			fmt.Fprintf(out, " = %s", fr.Value)
		}
		fmt.Fprintln(out)
		if fr.Explanation != "" {
			fmt.Fprintf(out, "             %s\n", detailStyle.Render(fr.Explanation))
		}
		if fr.Err != nil {
			fmt.Fprintf(out, "             %s\n", errorStyle.Render(fr.Err.Error()))
		}
		if fr.Caution != "" {
			fmt.Fprintf(out, "             %s\n", cautionStyle.Render("Caution: "+fr.Caution))
		}
	}

	for _, caution := range result.Cautions {
		fmt.Fprintf(out, "\n%s\n", cautionStyle.Render("Caution: "+caution))
	}

	passed, failed, errored, skipped := result.Counts()
	fmt.Fprintf(out, "\n%d passed, %d failed, %d unresolved, %d skipped\n",
		passed, failed, errored, skipped)
}

func persistResult(ctx context.Context, opts checkOptions, doc *config.RecordDoc, result model.RecordResult) error {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	source, err := os.ReadFile(opts.TemplatePath)
	if err != nil {
		return err
	}
	if err := s.SaveTemplate(ctx, result.Template, "", string(source)); err != nil {
		return err
	}

	// First calibration of an unknown instrument registers it.
	if _, err := s.GetInstrument(ctx, opts.Tag); err != nil {
		if err := s.UpsertInstrument(ctx, store.Instrument{TagNumber: opts.Tag}); err != nil {
			return err
		}
	}

	performedAt := time.Now()
	if doc.Date != "" {
		performedAt, err = time.Parse(schedule.DateLayout, doc.Date)
		if err != nil {
			return err
		}
	}

	_, err = s.SaveRecord(ctx, opts.Tag, performedAt, doc.Technician, &result)
	return err
}
