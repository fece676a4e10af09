// Package store persists ingested document metadata and the employee table in
// SQLite.
//
// The documents table is the Document Store a batch run writes into: one row
// per persisted file, keyed by employee id, with the content reference the
// storage mode produced. Fingerprints are unique, so a re-run can rebuild its
// Dedup Set from the table and never insert the same file twice.
//
// The employees table backs the default registry source. It is seeded with
// "docingest employees import" for local deployments.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package store
