package tasks

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidEstimate = errors.New("estimated_time must be a positive number of minutes")
	ErrInvalidDuration = errors.New("seconds must be positive")
)

// Task is one user's unit of work. EstimatedTime is in minutes, TimeSpent in
// seconds.
type Task struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Status        Status     `json:"status" db:"status"`
	EstimatedTime *int       `json:"estimated_time,omitempty" db:"estimated_time"`
	TimeSpent     int64      `json:"time_spent" db:"time_spent"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// HasTimer reports whether the task carries both a start instant and a
// positive estimate.
func (t Task) HasTimer() bool {
	return t.StartedAt != nil && t.EstimatedTime != nil && *t.EstimatedTime > 0
}

// Input is the editable part of a task.
type Input struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedTime *int   `json:"estimated_time"`
}

// Normalize trims text fields and validates the estimate.
func (in Input) Normalize() (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, ErrTitleRequired
	}
	if in.EstimatedTime != nil && *in.EstimatedTime <= 0 {
		return in, ErrInvalidEstimate
	}
	return in, nil
}
