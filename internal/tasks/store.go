package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const taskColumns = `id, user_id, title, description, status, estimated_time, time_spent,
	started_at, completed_at, created_at, updated_at`

// Store persists tasks. Every query is scoped to the owning user.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// ListForUser returns the user's tasks, newest first, optionally restricted to
// the given statuses.
func (s *Store) ListForUser(ctx context.Context, userID string, statuses ...Status) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}

	if len(statuses) > 0 {
		var err error
		query, args, err = sqlx.In(query+` AND status IN (?)`, userID, statuses)
		if err != nil {
			return nil, fmt.Errorf("building task query: %w", err)
		}
	}
	query += ` ORDER BY created_at DESC, id`

	var out []Task
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing tasks for %s: %w", userID, err)
	}
	return out, nil
}

// UsersWithOpenTasks returns every user owning a pending or in-progress task.
func (s *Store) UsersWithOpenTasks(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT user_id FROM tasks
		WHERE status IN ('PENDING', 'IN_PROGRESS')
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing users with open tasks: %w", err)
	}
	return ids, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (Task, error) {
	return get(ctx, s.db, userID, id)
}

type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func get(ctx context.Context, q queryer, userID, id string) (Task, error) {
	var t Task
	err := sqlx.GetContext(ctx, q, &t, q.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	if err != nil {
		return Task{}, fmt.Errorf("getting task %s: %w", id, err)
	}
	return t, nil
}

// Create inserts a new PENDING task for userID.
func (s *Store) Create(ctx context.Context, userID string, in Input, now time.Time) (Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return Task{}, err
	}

	now = now.UTC()
	t := Task{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         in.Title,
		Description:   in.Description,
		Status:        StatusPending,
		EstimatedTime: in.EstimatedTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, estimated_time, time_spent, created_at, updated_at)
		VALUES (:id, :user_id, :title, :description, :status, :estimated_time, 0, :created_at, :updated_at)
	`, t)
	if err != nil {
		return Task{}, fmt.Errorf("inserting task: %w", err)
	}
	return t, nil
}

// Update replaces the editable fields of an owned task.
func (s *Store) Update(ctx context.Context, userID, id string, in Input, now time.Time) (Task, error) {
	in, err := in.Normalize()
	if err != nil {
		return Task{}, err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, estimated_time = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), in.Title, in.Description, in.EstimatedTime, now.UTC(), id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return Task{}, err
	}
	return s.Get(ctx, userID, id)
}

// Start moves the task to IN_PROGRESS. Starting an already running task
// resets its start instant.
func (s *Store) Start(ctx context.Context, userID, id string, now time.Time) (Task, error) {
	now = now.UTC()
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks
		SET status = ?, started_at = ?, completed_at = NULL, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), StatusInProgress, now, now, id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("starting task %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return Task{}, err
	}
	return s.Get(ctx, userID, id)
}

// Complete moves the task to COMPLETED, adding the time since it was started.
// A task that was never started completes with its time spent unchanged.
func (s *Store) Complete(ctx context.Context, userID, id string, now time.Time) (Task, error) {
	now = now.UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Task{}, fmt.Errorf("begin complete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := get(ctx, tx, userID, id)
	if err != nil {
		return Task{}, err
	}

	completedAt := now
	var spent int64
	if t.StartedAt != nil {
		if t.StartedAt.After(completedAt) {
			completedAt = *t.StartedAt
		}
		if t.Status == StatusInProgress {
			spent = int64(completedAt.Sub(*t.StartedAt) / time.Second)
		}
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE tasks
		SET status = ?, completed_at = ?, time_spent = time_spent + ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), StatusCompleted, completedAt, spent, now, id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("completing task %s: %w", id, err)
	}

	t, err = get(ctx, tx, userID, id)
	if err != nil {
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit complete: %w", err)
	}
	return t, nil
}

// AddTime adds seconds to the task's accumulated time.
func (s *Store) AddTime(ctx context.Context, userID, id string, seconds int64, now time.Time) (Task, error) {
	if seconds <= 0 {
		return Task{}, ErrInvalidDuration
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks
		SET time_spent = time_spent + ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), seconds, now.UTC(), id, userID)
	if err != nil {
		return Task{}, fmt.Errorf("adding time to task %s: %w", id, err)
	}
	if err := mustAffect(res); err != nil {
		return Task{}, err
	}
	return s.Get(ctx, userID, id)
}

// Delete removes an owned task and detaches its notifications, which are kept
// as user history.
func (s *Store) Delete(ctx context.Context, userID, id string) (Task, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Task{}, fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := get(ctx, tx, userID, id)
	if err != nil {
		return Task{}, err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE notifications SET task_id = NULL WHERE task_id = ?`), id); err != nil {
		return Task{}, fmt.Errorf("detaching notifications of %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, userID); err != nil {
		return Task{}, fmt.Errorf("deleting task %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return Task{}, fmt.Errorf("commit delete: %w", err)
	}
	return t, nil
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
