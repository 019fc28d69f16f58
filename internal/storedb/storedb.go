// Package storedb owns the sqlite handles rooted at a project's .locus/
// directory: the shared locus.db (config, task_list, edit_history) and the
// memory client's locus_graph_cache.db (queue, cache). Callers that need a
// project-scoped table open the shared handle here rather than each opening
// their own connection to the same file.
package storedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

const projectSchema = `
CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS task_list (
	plan_id TEXT NOT NULL,
	task_id TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	description TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (plan_id, task_id)
);
CREATE TABLE IF NOT EXISTS edit_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT NOT NULL,
	ts INTEGER NOT NULL,
	old_content TEXT NOT NULL,
	new_content TEXT NOT NULL
);
`

// ProjectDBPath returns the path to a project's main sqlite store.
func ProjectDBPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".locus", "locus.db")
}

// OpenProjectDB opens (creating if necessary) <repoRoot>/.locus/locus.db and
// ensures its tables exist. sqlite only tolerates one writer at a time, so
// the returned handle is capped to a single connection; callers that need
// to share it (internal/tasklist, the config-table env sync) should reuse
// one *sql.DB rather than opening their own.
func OpenProjectDB(repoRoot string) (*sql.DB, error) {
	path := ProjectDBPath(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("storedb: %w", err)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("storedb: open project db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(projectSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storedb: create project schema: %w", err)
	}
	return db, nil
}
