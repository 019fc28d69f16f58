package storedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS write_queue (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_json TEXT NOT NULL,
	first_seen_at INTEGER NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	next_attempt_at INTEGER NOT NULL,
	state TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_write_queue_due ON write_queue(state, next_attempt_at);
CREATE TABLE IF NOT EXISTS read_cache (
	cache_key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// CacheDBPath returns the path to the memory client's local write queue and
// read cache, resolved per spec.md §5: repo-local under <repoRoot>/.locus
// when repoRoot is non-empty, otherwise $HOME/.locus.
func CacheDBPath(repoRoot string) string {
	if override := os.Getenv("LOCUSGRAPH_DB_PATH"); override != "" {
		return override
	}
	if repoRoot != "" {
		return filepath.Join(repoRoot, ".locus", "locus_graph_cache.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".locus", "locus_graph_cache.db")
}

// OpenCacheDB opens (creating if necessary) the memory client's local
// queue/cache database and ensures its tables exist.
func OpenCacheDB(repoRoot string) (*sql.DB, error) {
	path := CacheDBPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("storedb: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("storedb: open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storedb: create cache schema: %w", err)
	}
	return db, nil
}

// CleanCacheDB removes the cache/queue file outright, per spec.md §4.2's
// admin "clean" operation for discarding a corrupt queue.
func CleanCacheDB(repoRoot string) error {
	path := CacheDBPath(repoRoot)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storedb: clean cache db: %w", err)
	}
	return nil
}
