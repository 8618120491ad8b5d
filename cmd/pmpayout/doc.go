// Package main hosts the pmpayout CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the SQLite store, and
// the signature tooling into a pipeline.Runner for `pmpayout run`, and exposes
// read-only views over run history, the tier table, and dependency status.
// Command output goes to stdout; logs go to stderr and the run log file.
//
// Keep this package lean: behaviour belongs in the internal packages, and the
// commands here only parse flags, build collaborators, and render results.
package main
