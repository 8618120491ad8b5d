// Package signature computes perceptual hashes of a video's first frame.
//
// FrameHasher downloads the video with yt-dlp into a private temporary
// directory, extracts the first frame with ffmpeg, and hashes it with a 64-bit
// pHash. The directory is removed on every exit path.
//
// The wrappers compose around any Provider:
//   - Memo collapses concurrent and repeated lookups for one link within a run
//   - Cached consults a persistent cache before computing, storing successes only
//   - Limited bounds the number of lookups in flight
//
// A caller's per-lookup timeout rides in the context (WithLookupTimeout) and
// starts only when the lookup runs (StartLookup), never while it waits for a
// Limited slot.
//
// NewProvider assembles the production chain from configuration.
package signature
