// Package config loads, normalizes, and validates pmpayout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file from the working directory,
// and honours environment fallbacks such as PMPAYOUT_VIDEOS_FILE. The Config
// type centralizes every knob the CLI and payout pipeline need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
