package memory

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/locuscode/locus/pkg/types"
)

// readCache wraps the read_cache table in locus_graph_cache.db, keyed by a
// hash of (query, context scope set) per spec.md §4.2.
type readCache struct {
	db *sql.DB
}

// Key hashes a query and its context scope set into a single cache key.
func cacheKey(query string, contextIDs []string) string {
	sorted := append([]string(nil), contextIDs...)
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for (query, contextIDs) if present and
// unexpired.
func (c *readCache) Get(query string, contextIDs []string, now int64) (types.RetrieveResult, bool) {
	row := c.db.QueryRow(
		`SELECT value, expires_at FROM read_cache WHERE cache_key = ?`,
		cacheKey(query, contextIDs),
	)
	var value string
	var expiresAt int64
	if err := row.Scan(&value, &expiresAt); err != nil {
		return types.RetrieveResult{}, false
	}
	if expiresAt != 0 && expiresAt < now {
		return types.RetrieveResult{}, false
	}
	var result types.RetrieveResult
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		return types.RetrieveResult{}, false
	}
	return result, true
}

// Put stores result against (query, contextIDs) with an expiry timestamp
// (0 means never expires).
func (c *readCache) Put(query string, contextIDs []string, result types.RetrieveResult, expiresAt int64) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("memory: marshal cache entry: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO read_cache (cache_key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		cacheKey(query, contextIDs), string(data), expiresAt,
	)
	return err
}
