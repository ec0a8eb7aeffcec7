package notifications

import (
	"errors"
	"time"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// DedupeWindow is how long an identical (user, title, message) notification
// suppresses a new one.
const DedupeWindow = time.Hour

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      Type      `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	TaskID    *string   `json:"task_id,omitempty" db:"task_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Key is the deduplication key of a notification.
func (n Notification) Key() string {
	return n.UserID + "|" + n.Title + "|" + n.Message
}
