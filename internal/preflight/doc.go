// Package preflight provides readiness checks for the filesystem paths a
// batch run depends on.
//
// RunAll executes before any file is scanned. A failed check is a fatal
// startup failure: the run aborts before processing and exits non-zero.
//
// Directory checks only apply to paths the current configuration uses, so a
// metadata-only run never needs a writable documents directory.
package preflight
