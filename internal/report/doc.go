// Package report writes the JSON artifacts of a batch run into the reports
// directory. Every artifact gets its own timestamp taken at write time and
// existing files are never overwritten.
package report
