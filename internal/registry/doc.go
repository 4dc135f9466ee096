// Package registry caches open read-only SQLite handles keyed by file path.
//
// The viewer lets an operator point sessions at arbitrary database files;
// the registry makes sure each distinct path is opened once and the handle
// reused for the life of the process. There is deliberately no eviction:
// a handle, once cached, is returned even if the file has since changed or
// been deleted, and any resulting failure surfaces at query time.
//
// Open failures are never cached, so a path that fails today can succeed
// tomorrow without a restart.
package registry
