// Package source supplies raw video payloads for a payout run.
//
// A VideoSource returns every upstream row for an inclusive creation-date
// window; validation and coercion are left to the normalize package. Two
// implementations ship here: File reads a JSON export from disk, and HTTP
// pages through the video export API with bearer authentication, retrying
// rate-limited and server-side failures with capped exponential backoff.
package source
