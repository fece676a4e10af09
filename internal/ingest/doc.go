// Package ingest turns one scanned file into one outcome: it checks the
// run's dedup set, resolves the owning employee, stores the document bytes
// according to the configured storage mode, and records the document in the
// store.
//
// Every failure is scoped to the file being processed. Manager.UploadFile
// never returns an error; callers read the Outcome status instead.
package ingest
