// Package matcher resolves a scanned file to at most one employee.
//
// Resolution tries, in order, and stops at the first success:
//
//  1. Identifier: digit groups from the filename (and text) equal to an
//     employee's tax id or badge.
//  2. Name: the best candidate/employee pair scoring at least the configured
//     minimum similarity.
//  3. Email: an email address in the filename equal to an employee's email.
//
// Otherwise the file is unmatched and the result explains the nearest miss.
//
// Results are cached for the run. The default key is base name plus size, so
// identically named files of the same size in different directories share
// one resolution. The "fingerprint" cache key mode keys on the file
// fingerprint instead. Concurrent lookups of the same key resolve once.
package matcher
