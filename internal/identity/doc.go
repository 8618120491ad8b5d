// Package identity resolves platform handles to canonical creator names and
// partitions validated records into per-creator match pools.
//
// The handle map is loaded from a CSV export with a header row naming the
// creator, tiktok_handle, and instagram_handle columns. Handles are compared
// after trimming, stripping a leading @, NFC normalization, and case folding.
// Records whose handle does not resolve are converted into "not in creator
// list" exceptions before they reach the matcher.
package identity
