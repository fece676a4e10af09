// Package progress owns the run statistics of a batch. Monitor.Record is the
// only way outcomes reach the counters; live output and the final summary
// are projections of a Stats snapshot.
package progress
