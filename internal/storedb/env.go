package storedb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const envFileName = "env"

// GetConfig reads every key/value pair from the project DB's config table,
// ordered by key.
func GetConfig(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("storedb: get config: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetConfig upserts one config key.
func SetConfig(db *sql.DB, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// SyncEnvFile writes <repoRoot>/.locus/env from the project DB's config
// table, shell-quoting each value so secrets and URLs survive `source`.
func SyncEnvFile(repoRoot string, db *sql.DB) error {
	config, err := GetConfig(db)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Locus CLI configuration\n# Source this file: source .locus/env\n\n")
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		escaped := strings.ReplaceAll(strings.ReplaceAll(unquote(config[k]), `\`, `\\`), `"`, `\"`)
		fmt.Fprintf(&b, "export %s=\"%s\"\n", k, escaped)
	}

	path := filepath.Join(repoRoot, ".locus", envFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("storedb: sync env file: %w", err)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return v[1 : len(v)-1]
	}
	return v
}

