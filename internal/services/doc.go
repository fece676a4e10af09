// Package services defines shared utilities consumed by the ingestion
// pipeline components.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, worker numbers, and file paths for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     per-file (reported, batch continues) or fatal (abort before processing).
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services
