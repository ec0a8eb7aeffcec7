package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskflow-backend/internal/db"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dbx, err := db.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := db.Migrate(context.Background(), dbx); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	t.Cleanup(func() {
		if err := dbx.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	return dbx
}

// SeedUser inserts a verified user and returns its id.
func SeedUser(t *testing.T, dbx *sqlx.DB, email string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := dbx.Exec(dbx.Rebind(`
		INSERT INTO users (id, email, password, name, email_verified, created_at, updated_at)
		VALUES (?, ?, 'x', '', TRUE, ?, ?)
	`), id, email, now, now)
	if err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return id
}
