// Package sweep evaluates a user's open tasks against the timer thresholds and
// records the resulting notifications. Repeated sweeps are safe: the ledger
// suppresses identical notifications within its dedupe window.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/tasks"
)

const (
	almostExpiredMinutes = 30
	expiredRepeatMinutes = 30
	overdueAfter         = 24 * time.Hour
	forgottenAfter       = 72 * time.Hour
)

type TaskLister interface {
	ListForUser(ctx context.Context, userID string, statuses ...tasks.Status) ([]tasks.Task, error)
}

type UserLister interface {
	UsersWithOpenTasks(ctx context.Context) ([]string, error)
}

type Notifier interface {
	NotifyTask(ctx context.Context, userID string, kind notifications.Kind, taskTitle string, taskID *string, d notifications.Details) (notifications.Notification, bool, error)
}

// Result counts the notifications a sweep created. Suppressed duplicates are
// not counted.
type Result struct {
	AlmostExpired int `json:"almost_expired"`
	TimeExpired   int `json:"time_expired"`
	HalfTime      int `json:"half_time"`
	Overdue       int `json:"overdue"`
	Forgotten     int `json:"forgotten"`
	Failed        int `json:"failed"`
}

func (r Result) Created() int {
	return r.AlmostExpired + r.TimeExpired + r.HalfTime + r.Overdue + r.Forgotten
}

func (r *Result) add(kind notifications.Kind) {
	switch kind {
	case notifications.KindAlmostExpired:
		r.AlmostExpired++
	case notifications.KindTimeExpired:
		r.TimeExpired++
	case notifications.KindHalfTime:
		r.HalfTime++
	case notifications.KindOverdue:
		r.Overdue++
	case notifications.KindForgotten:
		r.Forgotten++
	}
}

type Sweeper struct {
	Tasks    TaskLister
	Notifier Notifier
	Now      func() time.Time
}

// Due is one notification a rule wants to record.
type Due struct {
	Kind    notifications.Kind
	Details notifications.Details
}

// Run sweeps every open task of userID. Only a failure to load the tasks is
// returned; individual notification failures are logged and counted.
func (s *Sweeper) Run(ctx context.Context, userID string) (Result, error) {
	var res Result

	ts, err := s.Tasks.ListForUser(ctx, userID, tasks.StatusInProgress, tasks.StatusPending)
	if err != nil {
		return res, fmt.Errorf("loading open tasks: %w", err)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	for _, t := range ts {
		for _, d := range Evaluate(t, now) {
			if err := ctx.Err(); err != nil {
				return res, err
			}

			id := t.ID
			_, created, err := s.Notifier.NotifyTask(ctx, userID, d.Kind, t.Title, &id, d.Details)
			if err != nil {
				log.Printf("[WARN] sweep %s task_id=%s user_id=%s: %v", d.Kind, t.ID, userID, err)
				res.Failed++
				continue
			}
			if created {
				res.add(d.Kind)
			}
		}
	}

	return res, nil
}

// RunAll sweeps every user that owns an open task. A user whose sweep fails
// is logged, recorded with Failed set, and skipped; the failures are returned
// joined after every user was tried.
func (s *Sweeper) RunAll(ctx context.Context, users UserLister) (map[string]Result, error) {
	ids, err := users.UsersWithOpenTasks(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Result, len(ids))
	var errs []error
	for _, uid := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := s.Run(ctx, uid)
		if err != nil {
			log.Printf("[ERROR] sweep user_id=%s: %v", uid, err)
			res.Failed++
			errs = append(errs, fmt.Errorf("sweeping user %s: %w", uid, err))
		}
		out[uid] = res
	}
	return out, errors.Join(errs...)
}

// Evaluate returns the notifications t is due for at now, in rule order.
func Evaluate(t tasks.Task, now time.Time) []Due {
	var out []Due

	switch t.Status {
	case tasks.StatusInProgress:
		if t.StartedAt == nil {
			return nil
		}
		if t.EstimatedTime != nil && *t.EstimatedTime > 0 {
			out = append(out, timerRules(*t.EstimatedTime, elapsedMinutes(*t.StartedAt, now))...)
		}
		if t.StartedAt.Before(now.Add(-overdueAfter)) {
			out = append(out, Due{Kind: notifications.KindOverdue})
		}
	case tasks.StatusPending:
		if t.CreatedAt.Before(now.Add(-forgottenAfter)) {
			out = append(out, Due{Kind: notifications.KindForgotten})
		}
	}

	return out
}

func timerRules(est, elapsed int) []Due {
	var out []Due

	if remaining := est - elapsed; remaining > 0 && remaining <= almostExpiredMinutes {
		out = append(out, Due{
			Kind:    notifications.KindAlmostExpired,
			Details: notifications.Details{RemainingMinutes: remaining},
		})
	}

	if over := elapsed - est; over > 0 && over%expiredRepeatMinutes == 0 {
		out = append(out, Due{
			Kind:    notifications.KindTimeExpired,
			Details: notifications.Details{ExceededMinutes: over},
		})
	}

	if half := est / 2; elapsed >= half && elapsed < half+1 {
		out = append(out, Due{Kind: notifications.KindHalfTime})
	}

	return out
}

func elapsedMinutes(startedAt, now time.Time) int {
	d := now.Sub(startedAt)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
