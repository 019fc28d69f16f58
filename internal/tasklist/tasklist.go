// Package tasklist persists the task_list table inside a project's
// .locus/locus.db: per-plan checklists a sub-agent or the primary
// orchestrator can create, update, and reorder.
package tasklist

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/locuscode/locus/internal/storedb"
)

// Status is the lifecycle state of a single task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Task is a single checklist item within a plan.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Status      Status `json:"status"`
	Description string `json:"description,omitempty"`
}

// Store wraps the task_list table in locus.db.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if necessary) the locus.db under repoRoot/.locus via
// storedb, which also ensures the task_list and config tables exist.
func Open(repoRoot string) (*Store, error) {
	db, err := storedb.OpenProjectDB(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("tasklist: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenWithDB builds a Store on top of an already-open project DB handle, for
// callers that share one *sql.DB across multiple tables in locus.db.
func OpenWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying project db handle, for callers that want to
// share it with another table in locus.db rather than open a second
// connection to the same file.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) nextID(planID string) (string, error) {
	key := "task_list:next_id:" + planID
	var current int64 = 1
	row := s.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key)
	var raw string
	if err := row.Scan(&raw); err == nil {
		fmt.Sscanf(raw, "%d", &current)
	} else if err != sql.ErrNoRows {
		return "", err
	}

	if _, err := s.db.Exec(
		`INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, fmt.Sprintf("%d", current+1),
	); err != nil {
		return "", err
	}
	return fmt.Sprintf("t%d", current), nil
}

// Create replaces planID's checklist with tasks, assigning IDs to any task
// missing one.
func (s *Store) Create(planID string, tasks []Task) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range tasks {
		if tasks[i].ID == "" {
			id, err := s.nextID(planID)
			if err != nil {
				return nil, err
			}
			tasks[i].ID = id
		}
		if tasks[i].Status == "" {
			tasks[i].Status = StatusPending
		}
	}

	for i, task := range tasks {
		if _, err := s.db.Exec(
			`INSERT INTO task_list (plan_id, task_id, title, status, description, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			planID, task.ID, task.Title, string(task.Status), task.Description, i,
		); err != nil {
			return nil, fmt.Errorf("tasklist: insert: %w", err)
		}
	}
	return tasks, nil
}

// List returns planID's checklist ordered by sort_order.
func (s *Store) List(planID string) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT task_id, title, status, description FROM task_list WHERE plan_id = ? ORDER BY sort_order`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("tasklist: list: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &desc); err != nil {
			return nil, err
		}
		t.Description = desc.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Get returns one task, or nil if it doesn't exist.
func (s *Store) Get(planID, taskID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT task_id, title, status, description FROM task_list WHERE plan_id = ? AND task_id = ?`,
		planID, taskID,
	)
	var t Task
	var desc sql.NullString
	if err := row.Scan(&t.ID, &t.Title, &t.Status, &desc); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	t.Description = desc.String
	return &t, nil
}

// Update patches a task's status/title/description, leaving nil fields
// unchanged.
func (s *Store) Update(planID, taskID string, status *Status, title, description *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status != nil {
		if _, err := s.db.Exec(`UPDATE task_list SET status = ? WHERE plan_id = ? AND task_id = ?`, string(*status), planID, taskID); err != nil {
			return err
		}
	}
	if title != nil {
		if _, err := s.db.Exec(`UPDATE task_list SET title = ? WHERE plan_id = ? AND task_id = ?`, *title, planID, taskID); err != nil {
			return err
		}
	}
	if description != nil {
		if _, err := s.db.Exec(`UPDATE task_list SET description = ? WHERE plan_id = ? AND task_id = ?`, *description, planID, taskID); err != nil {
			return err
		}
	}
	return nil
}

// Add appends tasks to planID's existing checklist.
func (s *Store) Add(planID string, newTasks []Task) ([]Task, error) {
	s.mu.Lock()
	var nextOrder int
	row := s.db.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) + 1 FROM task_list WHERE plan_id = ?`, planID)
	if err := row.Scan(&nextOrder); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	for i := range newTasks {
		if newTasks[i].ID == "" {
			id, err := s.nextID(planID)
			if err != nil {
				s.mu.Unlock()
				return nil, err
			}
			newTasks[i].ID = id
		}
		if newTasks[i].Status == "" {
			newTasks[i].Status = StatusPending
		}
	}
	for i, task := range newTasks {
		if _, err := s.db.Exec(
			`INSERT INTO task_list (plan_id, task_id, title, status, description, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
			planID, task.ID, task.Title, string(task.Status), task.Description, nextOrder+i,
		); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()
	return s.List(planID)
}

// Remove deletes a task. ok is false if no such task existed.
func (s *Store) Remove(planID, taskID string) (ok bool, err error) {
	s.mu.Lock()
	res, err := s.db.Exec(`DELETE FROM task_list WHERE plan_id = ? AND task_id = ?`, planID, taskID)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reorder sets sort_order from the position of each task_id in order.
func (s *Store) Reorder(planID string, order []string) ([]Task, error) {
	s.mu.Lock()
	for idx, taskID := range order {
		if _, err := s.db.Exec(`UPDATE task_list SET sort_order = ? WHERE plan_id = ? AND task_id = ?`, idx, planID, taskID); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	s.mu.Unlock()
	return s.List(planID)
}
