// Package transport moves document bytes to remote object storage through a
// single physical session.
//
// The wrapped protocols (FTP in particular) cannot run parallel commands on
// one connection, so Uploader is a single-consumer actor: callers submit a
// request and wait for its reply while one pump goroutine owns the session
// and executes requests strictly one at a time.
//
// The session is dialed lazily on first use. When a session command fails,
// every request already queued fails with the same error, the session is
// dropped, and the next request dials a fresh one.
//
// Object names combine owner id, a monotonic millisecond timestamp, and the
// sanitized original name, so repeated uploads of identically named files
// never collide.
package transport
