// Package store persists payout run history and the signature cache in SQLite.
//
// The Store implements report.Sink so a finished run can be written alongside
// the JSON report, and it implements signature.Cache so perceptual hashes
// computed in one run are reused by later runs. Only successful lookups are
// cached.
//
// Schema changes bump schemaVersion in schema.go; users delete the database to
// adopt the new schema. Run history is an audit trail, not an input to
// matching, so nothing in the pipeline reads it back.
package store
