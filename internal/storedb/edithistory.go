package storedb

import (
	"database/sql"
	"fmt"
)

// EditHistoryRecord is one row of the edit_history table: the durable,
// queryable audit trail of every edit made to a file, independent of the
// in-memory undo stack that internal/edithistory keeps per file path.
type EditHistoryRecord struct {
	ID         int64
	FilePath   string
	Timestamp  int64
	OldContent string
	NewContent string
}

// InsertEditHistory appends one row to the edit_history table.
func InsertEditHistory(db *sql.DB, filePath string, ts int64, oldContent, newContent string) error {
	_, err := db.Exec(
		`INSERT INTO edit_history (file_path, ts, old_content, new_content) VALUES (?, ?, ?, ?)`,
		filePath, ts, oldContent, newContent,
	)
	if err != nil {
		return fmt.Errorf("storedb: insert edit history: %w", err)
	}
	return nil
}

// ListEditHistory returns filePath's edit history ordered oldest-first. A
// limit of 0 returns every row.
func ListEditHistory(db *sql.DB, filePath string, limit int) ([]EditHistoryRecord, error) {
	query := `SELECT id, file_path, ts, old_content, new_content FROM edit_history WHERE file_path = ? ORDER BY id`
	args := []any{filePath}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storedb: list edit history: %w", err)
	}
	defer rows.Close()

	var out []EditHistoryRecord
	for rows.Next() {
		var r EditHistoryRecord
		if err := rows.Scan(&r.ID, &r.FilePath, &r.Timestamp, &r.OldContent, &r.NewContent); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
