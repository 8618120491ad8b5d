package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pmpayout/internal/payout"
	"pmpayout/internal/services"
)

func newTiersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "tiers [views...]",
		Short:       "Print the payout tier table or price view counts",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tiers := payout.Tiers()
				if ctx.jsonOutput() {
					return writeJSON(out, tiers)
				}
				rows := make([][]string, 0, len(tiers))
				for _, tier := range tiers {
					rows = append(rows, []string{formatCount(tier.Min), formatCount(tier.Max), formatDollars(tier.Amount)})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"Min views", "Max views", "Payout"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(out, "Views above %s are priced as %s.\n", formatCount(payout.ViewCap), formatCount(payout.ViewCap))
				return nil
			}

			quotes := make([]payout.Outcome, 0, len(args))
			for _, arg := range args {
				views, err := parseViews(arg)
				if err != nil {
					return err
				}
				quotes = append(quotes, payout.Quote(views))
			}
			if ctx.jsonOutput() {
				return writeJSON(out, quotes)
			}
			rows := make([][]string, 0, len(quotes))
			for _, q := range quotes {
				rows = append(rows, []string{
					formatCount(q.Chosen),
					formatCount(q.Effective),
					string(q.Status),
					q.CapNote(),
					formatDollars(q.Payout),
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Views", "Effective", "Status", "Note", "Payout"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

// parseViews accepts plain integers with optional "," or "_" separators.
func parseViews(arg string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", "_", "").Replace(strings.TrimSpace(arg))
	views, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || views < 0 {
		return 0, services.Wrap(services.ErrValidation, "cli", "tiers",
			fmt.Sprintf("view count must be a non-negative integer, got %q", arg), nil)
	}
	return views, nil
}
