package services

import "context"

// contextKey values carry the correlation fields the logging package lifts
// from a context onto every record.
type contextKey int

const (
	runIDKey contextKey = iota
	stageKey
	creatorKey
)

func with(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithRunID tags ctx with the payout run identifier. An empty id leaves ctx unchanged.
func WithRunID(ctx context.Context, id string) context.Context { return with(ctx, runIDKey, id) }

// RunIDFromContext returns the run identifier set by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, runIDKey) }

// WithStage tags ctx with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context { return with(ctx, stageKey, stage) }

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithCreator tags ctx with the creator whose pool is being matched.
func WithCreator(ctx context.Context, creator string) context.Context {
	return with(ctx, creatorKey, creator)
}

func CreatorFromContext(ctx context.Context) (string, bool) { return lookup(ctx, creatorKey) }
