// Package registry holds the employee snapshot a batch run matches against.
//
// The snapshot is loaded once at startup from a Source (the document store's
// employees table or a JSON export) and never changes afterwards, so
// concurrent workers read it without synchronization. Identifier and email
// indexes are built at load time for the exact-match fast paths; name
// matching stays a linear scan over the prepared names because similarity
// scoring cannot be reduced to a key lookup.
package registry
