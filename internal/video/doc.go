// Package video defines the canonical per-video records that flow through the
// payout pipeline, the exception records that capture rejected videos, and the
// closed set of exception reasons.
//
// Records are produced by internal/normalize, annotated with a creator identity
// by internal/identity, collapsed by internal/dedup, and consumed by the
// cross-platform matcher in internal/contentid. A Record that reaches the
// matcher always carries a duration, a view count, and a creation timestamp;
// anything missing those lands in an Exception instead.
package video
