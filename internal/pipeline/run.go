package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pmpayout/internal/contentid"
	"pmpayout/internal/dedup"
	"pmpayout/internal/identity"
	"pmpayout/internal/logging"
	"pmpayout/internal/normalize"
	"pmpayout/internal/payout"
	"pmpayout/internal/report"
	"pmpayout/internal/services"
	"pmpayout/internal/source"
	"pmpayout/internal/video"
)

// Validate checks the request range.
func (req Request) Validate() error {
	switch {
	case req.Start.IsZero():
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "start date is required", nil)
	case req.End.IsZero():
		return services.Wrap(services.ErrValidation, "pipeline", "validate request", "end date is required", nil)
	}
	window := source.NewWindow(req.Start, req.End)
	if window.Start.After(window.End) {
		return services.Wrap(services.ErrValidation, "pipeline", "validate request",
			fmt.Sprintf("start date %s is after end date %s",
				window.Start.Format(report.DateLayout), window.End.Format(report.DateLayout)), nil)
	}
	return nil
}

// Run executes one payout run. A Result is returned whenever matching
// completed, even if a sink then failed; the error reports the sink failure.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if r.source == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "video source not configured", nil)
	}
	if r.matcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "run", "matcher not configured", nil)
	}

	window := source.NewWindow(req.Start, req.End)
	result := &Result{
		RunID:     r.newRunID(),
		Start:     window.Start,
		End:       window.End,
		StartedAt: r.now().UTC(),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)
	startDate, endDate := result.Range()
	logger.Info("payout run started",
		logging.String("start", startDate),
		logging.String("end", endDate),
		logging.String(logging.FieldEventType, "run_started"),
	)

	if r.preflight != nil {
		if err := r.preflight(services.WithStage(ctx, "preflight")); err != nil {
			return nil, err
		}
	}

	raws, err := r.source.Fetch(services.WithStage(ctx, "fetch"), window)
	if err != nil {
		return nil, fmt.Errorf("fetch videos: %w", err)
	}
	result.Stats.Fetched = len(raws)

	normalized := normalize.Batch(raws, logger)
	result.Stats.Dropped = normalized.Dropped
	result.Stats.Valid = len(normalized.Records)
	identity.Attach(r.resolver, normalized.Records, normalized.Exceptions)

	deduped := dedup.Records(normalized.Records)
	result.Stats.DuplicatesRemoved = deduped.Removed

	pools, unresolved := identity.Group(deduped.Records)
	result.Stats.Unresolved = len(unresolved)

	outcomes, err := r.matchAll(ctx, pools)
	if err != nil {
		return nil, err
	}

	exceptions := make([]video.Exception, 0,
		len(normalized.Exceptions)+len(deduped.Conflicts)+len(unresolved))
	exceptions = append(exceptions, normalized.Exceptions...)
	exceptions = append(exceptions, deduped.Conflicts...)
	exceptions = append(exceptions, unresolved...)
	units := make([]payout.Unit, 0)
	creators := make([]string, 0, len(pools))
	for _, outcome := range outcomes {
		creators = append(creators, outcome.Creator)
		units = append(units, outcome.Units...)
		exceptions = append(exceptions, outcome.Exceptions...)
		result.Stats.Paired += outcome.SequencePairs + outcome.FallbackPairs
		result.Stats.Unpaired += outcome.Unpaired
		result.Stats.SignatureFailures += outcome.SignatureFailures
	}

	result.Units = units
	result.Exceptions = exceptions
	result.Aggregates = payout.Summarize(creators, units, exceptions)
	result.Stats.Exceptions = len(exceptions)
	result.Stats.TotalPayout = payout.Total(result.Aggregates)
	result.FinishedAt = r.now().UTC()

	logger.Info("payout run completed",
		logging.Int("fetched", result.Stats.Fetched),
		logging.Int("creators", len(result.Aggregates)),
		logging.Int("paired", result.Stats.Paired),
		logging.Int("exceptions", result.Stats.Exceptions),
		logging.Int64("total_payout", result.Stats.TotalPayout),
		logging.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
		logging.String(logging.FieldEventType, logging.EventRunCompleted),
	)

	if err := r.sinks.Write(services.WithStage(ctx, "report"), result); err != nil {
		logging.ErrorWithContext(logger, "report sink failed", "report_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check report_dir and data_dir permissions"),
		)
		return result, fmt.Errorf("write run %s: %w", result.RunID, err)
	}
	return result, nil
}

// matchAll runs the matcher for every pool, at most r.concurrency at a time.
// Outcomes are returned in pool order.
func (r *Runner) matchAll(ctx context.Context, pools []identity.Pool) ([]contentid.Outcome, error) {
	outcomes := make([]contentid.Outcome, len(pools))
	if len(pools) == 0 {
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(services.WithStage(ctx, "match"))
	g.SetLimit(r.concurrency)
	for i, pool := range pools {
		g.Go(func() error {
			outcome, err := r.matcher.Match(services.WithCreator(gctx, pool.Creator), pool)
			if err != nil {
				if errors.Is(err, contentid.ErrNoSignatureProvider) {
					return services.Wrap(services.ErrConfiguration, "match", pool.Creator, "signature provider unavailable", err)
				}
				return fmt.Errorf("match creator %q: %w", pool.Creator, err)
			}
			outcome.Creator = pool.Creator
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
