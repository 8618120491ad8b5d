// Package services defines shared utilities consumed by the payout pipeline
// stages and their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and creator names for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent process exit codes.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
