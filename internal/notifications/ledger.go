package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskflow-backend/internal/db"
)

const notificationColumns = `id, user_id, type, title, message, read, task_id, created_at`

// Ledger stores user-facing notifications.
type Ledger struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLedger(dbx *sqlx.DB) *Ledger {
	return &Ledger{db: dbx, now: time.Now}
}

// WithClock returns a copy of the ledger that stamps records with now.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	return &Ledger{db: l.db, now: now}
}

// UpsertIfAbsent inserts n unless a notification with the same user, title
// and message was created within window. It returns the stored record and
// whether it was created. The check and the insert share one transaction; on
// PostgreSQL a transaction-scoped advisory lock on the key serializes
// concurrent callers, on SQLite the single writer does.
func (l *Ledger) UpsertIfAbsent(ctx context.Context, n Notification, window time.Duration) (Notification, bool, error) {
	now := l.now().UTC()

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return Notification{}, false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if db.IsPostgres(l.db) {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, n.Key()); err != nil {
			return Notification{}, false, fmt.Errorf("locking notification key: %w", err)
		}
	}

	var existing Notification
	err = tx.GetContext(ctx, &existing, tx.Rebind(`
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ? AND title = ? AND message = ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`), n.UserID, n.Title, n.Message, now.Add(-window))
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Notification{}, false, fmt.Errorf("finding recent notification: %w", err)
	}

	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = now
	if n.Type == "" {
		n.Type = TypeInfo
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, read, task_id, created_at)
		VALUES (:id, :user_id, :type, :title, :message, :read, :task_id, :created_at)
	`, n)
	if err != nil {
		return Notification{}, false, fmt.Errorf("inserting notification: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Notification{}, false, fmt.Errorf("commit upsert: %w", err)
	}
	return n, true, nil
}

// FindRecent returns the newest notification with the given key created at or
// after since.
func (l *Ledger) FindRecent(ctx context.Context, userID, title, message string, since time.Time) (*Notification, error) {
	var n Notification
	err := l.db.GetContext(ctx, &n, l.db.Rebind(`
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ? AND title = ? AND message = ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`), userID, title, message, since.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding recent notification: %w", err)
	}
	return &n, nil
}

// List returns the user's newest notifications.
func (l *Ledger) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	out := []Notification{}
	err := l.db.SelectContext(ctx, &out, l.db.Rebind(`
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}

func (l *Ledger) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := l.db.GetContext(ctx, &n, l.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = FALSE`), userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

func (l *Ledger) MarkRead(ctx context.Context, userID, id string) error {
	res, err := l.db.ExecContext(ctx, l.db.Rebind(`UPDATE notifications SET read = TRUE WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return mustAffect(res)
}

// MarkAllRead marks every unread notification of the user and returns how
// many changed.
func (l *Ledger) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := l.db.ExecContext(ctx, l.db.Rebind(`UPDATE notifications SET read = TRUE WHERE user_id = ? AND read = FALSE`), userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (l *Ledger) Delete(ctx context.Context, userID, id string) error {
	res, err := l.db.ExecContext(ctx, l.db.Rebind(`DELETE FROM notifications WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	return mustAffect(res)
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
