// Package config loads, normalizes, and validates docingest configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for
// transport credentials such as DOCINGEST_FTP_PASSWORD. The Config type
// centralizes every knob the batch run needs: output directories, the
// document store, the employee registry source, matching thresholds, worker
// counts, and the remote transport.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, clamped worker counts, and clear validation errors.
package config
