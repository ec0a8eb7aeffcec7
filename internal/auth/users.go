package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type User struct {
	ID            string    `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	Password      string    `json:"-" db:"password"`
	Name          string    `json:"name" db:"name"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	EmailToken    *string   `json:"-" db:"email_token"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

const userColumns = `id, email, password, name, email_verified, email_token, created_at, updated_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts an unverified user holding the given password hash and
// email verification token.
func (s *UserStore) Create(ctx context.Context, email, passwordHash, name, emailToken string, now time.Time) (User, error) {
	now = now.UTC()
	u := User{
		ID:         uuid.NewString(),
		Email:      email,
		Password:   passwordHash,
		Name:       name,
		EmailToken: &emailToken,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password, name, email_verified, email_token, created_at, updated_at)
		VALUES (:id, :email, :password, :name, :email_verified, :email_token, :created_at, :updated_at)
	`, u)
	if isUniqueViolation(err) {
		return User{}, ErrEmailTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (User, error) {
	return s.getBy(ctx, "email", email)
}

func (s *UserStore) ByID(ctx context.Context, id string) (User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *UserStore) ByEmailToken(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrUserNotFound
	}
	return s.getBy(ctx, "email_token", token)
}

func (s *UserStore) getBy(ctx context.Context, column, value string) (User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("getting user by %s: %w", column, err)
	}
	return u, nil
}

// MarkVerified flags the email as verified and consumes the token.
func (s *UserStore) MarkVerified(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE users SET email_verified = TRUE, email_token = NULL, updated_at = ?
		WHERE id = ?
	`), now.UTC(), id)
	if err != nil {
		return fmt.Errorf("verifying user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EmailForUser resolves notification email recipients.
func (s *UserStore) EmailForUser(ctx context.Context, userID string) (string, error) {
	u, err := s.ByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// DeleteAccount removes the user and everything they own.
func (s *UserStore) DeleteAccount(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM analytics_events WHERE user_id = ?`,
		`DELETE FROM notifications WHERE user_id = ?`,
		`DELETE FROM tasks WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), id); err != nil {
			return fmt.Errorf("delete account %s: %w", id, err)
		}
	}

	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
