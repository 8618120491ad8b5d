package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pmpayout/internal/contentid"
	"pmpayout/internal/identity"
	"pmpayout/internal/logging"
	"pmpayout/internal/report"
	"pmpayout/internal/source"
)

const defaultCreatorConcurrency = 4

// Matcher pairs one creator's records. *contentid.Matcher satisfies it.
type Matcher interface {
	Match(ctx context.Context, pool identity.Pool) (contentid.Outcome, error)
}

// PreflightFunc runs before any rows are fetched. A non-nil error aborts the
// run.
type PreflightFunc func(ctx context.Context) error

// Request bounds a run by creation date, inclusive on both ends.
type Request struct {
	Start time.Time
	End   time.Time
}

// Result is the finished run handed to report sinks.
type Result = report.Run

// Runner orchestrates one payout run at a time. It holds no per-run state, so
// a Runner may be reused.
type Runner struct {
	source      source.VideoSource
	resolver    identity.Resolver
	matcher     Matcher
	sinks       report.Multi
	preflight   PreflightFunc
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
	newRunID    func() string
}

// Option customises a Runner.
type Option func(*Runner)

// WithSinks appends report sinks. Each receives the finished Result.
func WithSinks(sinks ...report.Sink) Option {
	return func(r *Runner) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithPreflight installs a readiness check run before fetching.
func WithPreflight(fn PreflightFunc) Option {
	return func(r *Runner) {
		r.preflight = fn
	}
}

// WithCreatorConcurrency bounds how many creators are matched at once.
// Non-positive values keep the default.
func WithCreatorConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newRunID = fn
		}
	}
}

// NewRunner wires a runner from its collaborators.
func NewRunner(src source.VideoSource, resolver identity.Resolver, matcher Matcher, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		source:      src,
		resolver:    resolver,
		matcher:     matcher,
		concurrency: defaultCreatorConcurrency,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
