// Package pipeline runs one batch: it holds the single-run lock, performs the
// startup checks, scans the root completely, then drives a fixed worker pool
// over the scanned list until every file has an outcome or the run is
// interrupted.
//
// Only startup failures are returned as errors. Per-file problems, including
// panics inside a worker, become error outcomes.
package pipeline
