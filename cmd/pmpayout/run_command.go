package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"pmpayout/internal/config"
	"pmpayout/internal/contentid"
	"pmpayout/internal/identity"
	"pmpayout/internal/logging"
	"pmpayout/internal/pipeline"
	"pmpayout/internal/preflight"
	"pmpayout/internal/report"
	"pmpayout/internal/services"
	"pmpayout/internal/signature"
	"pmpayout/internal/source"
	"pmpayout/internal/store"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var startFlag, endFlag string
	var skipHistory bool
	var skipReport bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile videos created in a date range and price the payout units",
		Long: "Fetch TikTok and Instagram videos created between --start and --end (inclusive),\n" +
			"pair them per creator, price each pair, and write a JSON report plus run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseRequest(startFlag, endFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateSources(); err != nil {
				return services.Wrap(services.ErrConfiguration, "config", "validate sources", "Input sources are not configured", err)
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another pmpayout run holds %s", cfg.LockPath())
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release run lock", logging.String("lock", cfg.LockPath()), logging.Error(err))
				}
			}()

			var st *store.Store
			if !skipHistory || cfg.Signature.CacheEnabled {
				st, err = ctx.ensureStore()
				if err != nil {
					return err
				}
			}
			var jsonFile *report.JSONFile
			if !skipReport {
				jsonFile = report.NewJSONFile(cfg.Paths.ReportDir)
			}

			runner, err := buildRunner(cfg, st, jsonFile, skipHistory, logger)
			if err != nil {
				return err
			}
			result, runErr := runner.Run(cmd.Context(), req)
			if result == nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				if err := writeJSON(out, report.NewDocument(result)); err != nil {
					return err
				}
				return runErr
			}
			printRunSummary(out, result)
			if jsonFile != nil && jsonFile.LastPath() != "" {
				fmt.Fprintf(out, "\nReport written to %s\n", jsonFile.LastPath())
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "First creation date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Last creation date to include (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&skipHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().BoolVar(&skipReport, "no-report", false, "Do not write the JSON report file")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func parseRequest(start, end string) (pipeline.Request, error) {
	startDate, err := parseDate("start", start)
	if err != nil {
		return pipeline.Request{}, err
	}
	endDate, err := parseDate("end", end)
	if err != nil {
		return pipeline.Request{}, err
	}
	req := pipeline.Request{Start: startDate, End: endDate}
	return req, req.Validate()
}

func parseDate(name, value string) (time.Time, error) {
	parsed, err := time.Parse(report.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, services.Wrap(services.ErrValidation, "cli", "parse --"+name,
			fmt.Sprintf("--%s must be a date like 2026-03-01, got %q", name, value), nil)
	}
	return parsed, nil
}

// buildRunner assembles the production collaborators. st may be nil when
// neither history nor the signature cache is wanted.
func buildRunner(cfg *config.Config, st *store.Store, jsonFile *report.JSONFile, skipHistory bool, logger *slog.Logger) (*pipeline.Runner, error) {
	src, err := source.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	resolver, err := identity.LoadFile(cfg.Source.CreatorsFile, logger)
	if err != nil {
		return nil, err
	}

	var cache signature.Cache
	if st != nil {
		cache = st
	}
	provider := signature.NewProvider(cfg, cache, logger)
	matcher := contentid.NewMatcher(provider, logger, contentid.WithPolicy(matchingPolicy(cfg)))

	var sinks []report.Sink
	if st != nil && !skipHistory {
		sinks = append(sinks, st)
	}
	if jsonFile != nil {
		sinks = append(sinks, jsonFile)
	}

	return pipeline.NewRunner(src, resolver, matcher, logger,
		pipeline.WithSinks(sinks...),
		pipeline.WithCreatorConcurrency(cfg.Matching.CreatorConcurrency),
		pipeline.WithPreflight(func(ctx context.Context) error {
			return preflight.RequireSignatureDeps(ctx, cfg)
		}),
	), nil
}

func matchingPolicy(cfg *config.Config) contentid.Policy {
	strategy, _ := contentid.ParseFallbackStrategy(cfg.Matching.FallbackStrategy)
	return contentid.Policy{
		HashThreshold:     cfg.Matching.HashThreshold,
		Fallback:          strategy,
		EmitSoloUnits:     cfg.Matching.EmitSoloUnits,
		LookupConcurrency: cfg.Signature.Concurrency,
		LookupTimeout:     cfg.LookupTimeout(),
	}
}

func printRunSummary(out io.Writer, result *pipeline.Result) {
	start, end := result.Range()
	fmt.Fprintf(out, "Run %s (%s to %s)\n\n", result.RunID, start, end)

	rows := make([][]string, 0, len(result.Aggregates))
	for _, agg := range result.Aggregates {
		rows = append(rows, []string{
			agg.Creator,
			formatCount(agg.PairedUnits),
			formatCount(agg.QualifiedUnits),
			formatCount(agg.Exceptions),
			formatDollars(agg.TotalPayout),
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Creator", "Paired", "Qualified", "Exceptions", "Payout"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))

	stats := result.Stats
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(out,
		[]string{"Stat", "Value"},
		[][]string{
			{"Fetched", formatCount(stats.Fetched)},
			{"Other platforms dropped", formatCount(stats.Dropped)},
			{"Valid", formatCount(stats.Valid)},
			{"Duplicates removed", formatCount(stats.DuplicatesRemoved)},
			{"Not in creator list", formatCount(stats.Unresolved)},
			{"Paired", formatCount(stats.Paired)},
			{"Unpaired", formatCount(stats.Unpaired)},
			{"Signature failures", formatCount(stats.SignatureFailures)},
			{"Exceptions", formatCount(stats.Exceptions)},
			{"Total payout", formatDollars(stats.TotalPayout)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
}
