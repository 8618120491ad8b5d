// Package preflight provides readiness checks for the filesystem paths,
// input files, external binaries, and export API that a payout run needs.
//
// The run command calls RequireSignatureDeps before fetching any videos so a
// missing yt-dlp or ffmpeg fails fast rather than turning every link into a
// signature failure. The deps command prints RunAll and CheckSignatureDeps
// results side by side.
package preflight
