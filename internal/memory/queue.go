package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/locuscode/locus/pkg/types"
)

const (
	queueStatePending = "pending"
	queueStateDead    = "dead"

	// MaxAttempts is the maximum number of delivery attempts before a
	// pending write moves to the dead-letter state, per spec.md §4.2.
	MaxAttempts = 8
)

// writeQueue wraps the write_queue table in locus_graph_cache.db.
type writeQueue struct {
	db *sql.DB
}

// Enqueue appends event to the queue, to be drained by the background
// worker.
func (q *writeQueue) Enqueue(event types.MemoryEvent, now int64) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("memory: marshal event: %w", err)
	}
	_, err = q.db.Exec(
		`INSERT INTO write_queue (event_json, first_seen_at, attempts, next_attempt_at, state) VALUES (?, ?, 0, ?, ?)`,
		string(payload), now, now, queueStatePending,
	)
	return err
}

// ClaimDue returns up to limit pending writes whose next_attempt_at has
// passed.
func (q *writeQueue) ClaimDue(now int64, limit int) ([]types.PendingWrite, error) {
	rows, err := q.db.Query(
		`SELECT id, event_json, first_seen_at, attempts, next_attempt_at FROM write_queue
		 WHERE state = ? AND next_attempt_at <= ? ORDER BY id LIMIT ?`,
		queueStatePending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("memory: claim due: %w", err)
	}
	defer rows.Close()

	var out []types.PendingWrite
	for rows.Next() {
		var pw types.PendingWrite
		var payload string
		if err := rows.Scan(&pw.ID, &payload, &pw.FirstSeenAt, &pw.Attempts, &pw.NextAttemptAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &pw.Event); err != nil {
			return nil, fmt.Errorf("memory: unmarshal queued event: %w", err)
		}
		out = append(out, pw)
	}
	return out, rows.Err()
}

// MarkDelivered removes a successfully delivered write from the queue.
func (q *writeQueue) MarkDelivered(id int64) error {
	_, err := q.db.Exec(`DELETE FROM write_queue WHERE id = ?`, id)
	return err
}

// MarkRetry records a failed delivery attempt and schedules the next one.
// Once attempts reaches MaxAttempts the write moves to the dead-letter
// state instead of being rescheduled.
func (q *writeQueue) MarkRetry(id int64, attempts int, nextAttemptAt int64) error {
	if attempts >= MaxAttempts {
		_, err := q.db.Exec(`UPDATE write_queue SET attempts = ?, state = ? WHERE id = ?`, attempts, queueStateDead, id)
		return err
	}
	_, err := q.db.Exec(
		`UPDATE write_queue SET attempts = ?, next_attempt_at = ? WHERE id = ?`,
		attempts, nextAttemptAt, id,
	)
	return err
}
