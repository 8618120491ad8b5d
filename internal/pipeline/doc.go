// Package pipeline runs a payout reconciliation end to end.
//
// A Runner fetches raw rows from a source.VideoSource and pushes them through
// the stages in a fixed order: normalize, attach creator identity, dedup,
// group by creator, match each creator's pool, price, and aggregate. Creators
// are matched in parallel up to a configured limit; their outcomes are joined
// in creator order before aggregation so the result does not depend on which
// goroutine finished first.
//
// Nothing inside the stages reads the clock. Only the run id and the
// start/finish timestamps on the Result vary between two runs over the same
// input.
package pipeline
