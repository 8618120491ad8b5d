package signature

import (
	"context"
	"time"
)

type budgetKey struct{}

// WithLookupTimeout attaches a per-lookup time budget to ctx. The clock does
// not start here: it starts when StartLookup is called, so time spent queued
// behind Limited is not charged to the lookup.
func WithLookupTimeout(ctx context.Context, d time.Duration) context.Context {
	if d <= 0 {
		return ctx
	}
	return context.WithValue(ctx, budgetKey{}, d)
}

// StartLookup starts the budget attached by WithLookupTimeout, if any, and
// returns a context bounded by it. Only the first call on a chain starts the
// clock; later calls return ctx unchanged. Providers call it once the lookup
// is actually running.
func StartLookup(ctx context.Context) (context.Context, context.CancelFunc) {
	d, _ := ctx.Value(budgetKey{}).(time.Duration)
	if d <= 0 {
		return ctx, func() {}
	}
	ctx = context.WithValue(ctx, budgetKey{}, time.Duration(0))
	return context.WithTimeout(ctx, d)
}
