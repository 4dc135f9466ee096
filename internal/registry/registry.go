// ABOUTME: Process-wide cache of read-only SQLite handles keyed by file path
// ABOUTME: Opens lazily on first use, reuses forever, never caches failures

package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Registry caches one open read-only database handle per filesystem path.
// Handles live until Close; there is no eviction and no invalidation even
// if the underlying file changes or disappears (queries then fail per
// request and the caller surfaces the error).
//
// Two concurrent first-time Gets for the same path may both open the file.
// That race is accepted: the open happens outside the lock, the loser is
// closed, and the winner is kept. Read-only duplicate opens are cheap, so
// serializing them (singleflight or per-key locks) isn't worth the
// machinery here.
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*sql.DB
	timeout time.Duration
	logger  *slog.Logger

	opens atomic.Int64 // successful opens, observable by tests
}

// New creates a Registry whose opens and pings are bounded by timeout.
func New(timeout time.Duration) *Registry {
	return &Registry{
		conns:   make(map[string]*sql.DB),
		timeout: timeout,
		logger:  slog.Default().With("component", "registry"),
	}
}

// Get returns the cached handle for path, opening it on first use.
//
// A cache hit is returned unconditionally, with no check that the file
// still exists or is still a database. A miss requires the file to already
// exist (the registry never creates database files), opens it read-only,
// and pings it so the lazy open is forced now rather than at first query.
// Open failures are returned and not cached, so a later Get retries.
func (r *Registry) Get(ctx context.Context, path string) (*sql.DB, error) {
	r.mu.RLock()
	db, ok := r.conns[path]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	db, err := r.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}

	r.mu.Lock()
	if existing, ok := r.conns[path]; ok {
		// Lost the duplicate-open race; keep the first handle.
		r.mu.Unlock()
		db.Close()
		return existing, nil
	}
	r.conns[path] = db
	r.mu.Unlock()

	r.opens.Add(1)
	r.logger.Info("opened database", "path", path)
	return db, nil
}

// open opens path read-only, verifying first that the file already exists.
func (r *Registry) open(ctx context.Context, path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Len reports how many paths currently have a cached handle.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// OpenCount reports how many handles have been opened and kept over the
// registry's lifetime. Used by tests to distinguish cache hits from opens.
func (r *Registry) OpenCount() int64 {
	return r.opens.Load()
}

// QueryTimeout returns the bound applied to opens and queries.
func (r *Registry) QueryTimeout() time.Duration {
	return r.timeout
}

// Close closes every cached handle. Called once at process shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, db := range r.conns {
		if err := db.Close(); err != nil {
			r.logger.Warn("closing database", "path", path, "error", err)
		}
	}
	r.conns = make(map[string]*sql.DB)
}
