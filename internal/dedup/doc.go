// Package dedup collapses records that describe the same underlying video.
//
// Records are grouped by link first and then by platform id, so two rows that
// share either key end up in one group. The most recently updated record wins.
// When several records share the latest update time but disagree on material
// fields, one is kept by a deterministic rule and the others are reported as
// conflicting duplicates instead of being silently dropped.
package dedup
