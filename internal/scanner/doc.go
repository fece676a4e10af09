// Package scanner walks a document tree and produces the immutable
// FileDescriptor list a batch run processes.
//
// The walk is depth-first and reads each directory in bounded batches so
// trees with millions of entries never hold a full listing in memory.
// Directories are tracked by real path to break symlink loops, and each
// accepted file gets a fingerprint (xxh3 of real path, size, and mtime) that
// suppresses files reachable through more than one path.
//
// Nothing the scanner meets is fatal except an inaccessible root: unreadable
// directories, vanished files, and filtered files are logged and skipped.
// Stats are advisory and never influence control flow.
package scanner
