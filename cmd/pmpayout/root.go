package main

import (
	"github.com/spf13/cobra"
)

const rootLong = `pmpayout pairs TikTok and Instagram posts of the same video, prices each
creator's payout units against the view-count tiers, and records every run.`

func newRootCommand() *cobra.Command {
	var (
		configFlag string
		jsonFlag   bool
	)
	ctx := newCommandContext(&configFlag, &jsonFlag)

	root := &cobra.Command{
		Use:           "pmpayout",
		Short:         "Cross-platform creator payout reconciliation",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRunE: func(*cobra.Command, []string) error { return ctx.close() },
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Path to pmpayout.toml")
	flags.BoolVar(&jsonFlag, "json", false, "Write machine-readable JSON instead of tables")

	root.AddCommand(
		newRunCommand(ctx),
		newRunsCommand(ctx),
		newTiersCommand(ctx),
		newDepsCommand(ctx),
		newCacheCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}
