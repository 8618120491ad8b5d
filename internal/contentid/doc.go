// Package contentid pairs one creator's TikTok and Instagram videos that show
// the same content.
//
// Matching runs in two phases over an owned pool of record slots. The
// sequence phase walks both platforms in creation order and pairs the i-th
// TikTok video with the i-th Instagram video when their durations are equal
// and their first-frame perceptual hashes are within the policy threshold.
// Rejected and surplus records then enter the fallback phase, which searches
// the remaining Instagram videos for each unmatched TikTok video in creation
// order. A slot moves out of the unmatched state exactly once, so no video is
// ever paid twice.
//
// Signatures come from an injected SignatureProvider. Lookups for a phase are
// issued concurrently up front and the results are consumed in a fixed order,
// so the outcome never depends on which lookup finished first. A failed lookup
// turns the affected records into "first frame extraction failed" exceptions
// and never aborts the pass.
//
// Two fallback strategies exist: "phash" (duration plus hash distance) and
// "upload_date" (duration plus same upload date, closest creation time). A
// run uses exactly one.
package contentid
