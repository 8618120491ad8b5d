package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pmpayout/internal/deps"
	"pmpayout/internal/preflight"
)

type depsReport struct {
	Binaries []deps.Status      `json:"binaries"`
	Checks   []preflight.Result `json:"checks"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check signature tooling, directories, and input sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSignatureDeps(cmd.Context(), cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				if err := writeJSON(out, depsReport{Binaries: statuses, Checks: checks}); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, status := range statuses {
					detail := status.Version
					if !status.Available {
						detail = status.Detail
					}
					rows = append(rows, []string{status.Name, status.Command, yesNo(status.Available), detail, status.Description})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Dependency", "Command", "Available", "Detail", "Purpose"}, rows, nil))

				rows = rows[:0]
				for _, check := range checks {
					rows = append(rows, []string{check.Name, yesNo(check.Passed), check.Detail})
				}
				fmt.Fprintln(out, renderTable(out, []string{"Check", "Passed", "Detail"}, rows, nil))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return &preflight.MissingDependenciesError{Missing: missing}
			}
			return nil
		},
	}
}
