package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pmpayout/internal/report"
	"pmpayout/internal/services"
	"pmpayout/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded payout runs",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, runListJSON(runs))
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.Start.Format(report.DateLayout),
					run.End.Format(report.DateLayout),
					run.FinishedAt.Local().Format(timestampLayout),
					formatCount(run.UnitCount),
					formatCount(run.ExceptionCount),
					formatDollars(run.TotalPayout),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Run", "Start", "End", "Finished", "Units", "Exceptions", "Payout"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var showExceptions bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run's creator totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			run, err := st.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			if run == nil {
				return services.Wrap(services.ErrNotFound, "cli", "runs show", fmt.Sprintf("no run with id %q", id), nil)
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, report.NewDocument(run))
			}
			printRunSummary(out, run)
			if showExceptions {
				printExceptions(out, run)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showExceptions, "exceptions", false, "Also list every exception record")
	return cmd
}

func printExceptions(out io.Writer, run *report.Run) {
	fmt.Fprintln(out)
	if len(run.Exceptions) == 0 {
		fmt.Fprintln(out, "No exceptions")
		return
	}
	rows := make([][]string, 0, len(run.Exceptions))
	for _, exc := range run.Exceptions {
		creator := exc.Creator
		if creator == "" {
			creator = "-"
		}
		rows = append(rows, []string{creator, string(exc.Platform), exc.Username, exc.Link, string(exc.Reason)})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Creator", "Platform", "Username", "Link", "Reason"},
		rows,
		nil,
	))
}

type runSummaryJSON struct {
	ID             string `json:"run_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at"`
	TotalPayout    int64  `json:"total_payout"`
	UnitCount      int    `json:"unit_count"`
	ExceptionCount int    `json:"exception_count"`
}

func runListJSON(runs []store.RunSummary) []runSummaryJSON {
	out := make([]runSummaryJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummaryJSON{
			ID:             run.ID,
			Start:          run.Start.Format(report.DateLayout),
			End:            run.End.Format(report.DateLayout),
			StartedAt:      run.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:     run.FinishedAt.UTC().Format(time.RFC3339),
			TotalPayout:    run.TotalPayout,
			UnitCount:      run.UnitCount,
			ExceptionCount: run.ExceptionCount,
		})
	}
	return out
}
