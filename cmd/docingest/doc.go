// Command docingest ingests scanned HR documents: it walks a directory tree,
// resolves each file to an employee, stores the matched documents, and
// writes run reports.
package main
