package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caltrack/caltrack/internal/domain/schedule"
	"github.com/caltrack/caltrack/internal/store"
)

type dueOptions struct {
	DBPath  string
	Days    int
	All     bool
	Verbose bool
}

var dueCmdRunner = runDue

func newDueCmd(root *rootFlags) *cobra.Command {
	opts := dueOptions{}

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List instruments that are overdue or coming due",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			return dueCmdRunner(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "caltrack.sqlite", "sqlite database path")
	cmd.Flags().IntVar(&opts.Days, "days", schedule.DefaultDueSoonDays, "Due-soon window in days")
	cmd.Flags().BoolVar(&opts.All, "all", false, "List every instrument regardless of due date")

	return cmd
}

func runDue(cmd *cobra.Command, opts dueOptions) error {
	s, err := store.Open(opts.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	today := time.Now()

	if opts.All {
		instruments, err := s.ListInstruments(ctx)
		if err != nil {
			return err
		}
		for _, inst := range instruments {
			printInstrument(cmd, inst, today, opts.Days)
		}
		if len(instruments) == 0 {
			fmt.Fprintln(out, "No instruments tracked")
		}
		return nil
	}

	overdue, err := s.ListOverdue(ctx, today)
	if err != nil {
		return err
	}
	soon, err := s.ListDueSoon(ctx, today, opts.Days)
	if err != nil {
		return err
	}

	if len(overdue) == 0 && len(soon) == 0 {
		fmt.Fprintf(out, "Nothing due within %d days\n", opts.Days)
		return nil
	}

	if len(overdue) > 0 {
		fmt.Fprintln(out, sectionStyle.Render("Overdue"))
		for _, inst := range overdue {
			printInstrument(cmd, inst, today, opts.Days)
		}
	}
	if len(soon) > 0 {
		fmt.Fprintln(out, sectionStyle.Render(fmt.Sprintf("Due within %d days", opts.Days)))
		for _, inst := range soon {
			printInstrument(cmd, inst, today, opts.Days)
		}
	}
	return nil
}

func printInstrument(cmd *cobra.Command, inst store.Instrument, today time.Time, window int) {
	line := fmt.Sprintf("  %-14s due %s", inst.TagNumber, inst.NextDueDate)
	if inst.Description != "" {
		line += "  " + inst.Description
	}

	nextDue, err := time.Parse(schedule.DateLayout, inst.NextDueDate)
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), skippedStyle.Render(line))
		return
	}

	switch schedule.Classify(nextDue, today, window) {
	case schedule.DueOverdue:
		days := -schedule.DaysUntil(nextDue, today)
		fmt.Fprintln(cmd.OutOrStdout(), failStyle.Render(fmt.Sprintf("%s  (%d days overdue)", line, days)))
	case schedule.DueSoon:
		fmt.Fprintln(cmd.OutOrStdout(), cautionStyle.Render(line))
	default:
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
