package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskflow-backend/internal/mail"
)

// Recorder is the ledger operation the notifier needs.
type Recorder interface {
	UpsertIfAbsent(ctx context.Context, n Notification, window time.Duration) (Notification, bool, error)
}

// Enqueuer accepts outbound email jobs without blocking.
type Enqueuer interface {
	Enqueue(job mail.Job) bool
}

// Notifier records notifications and hands newly created ones to the email
// outbox. Email is best effort and never affects the recorded notification.
type Notifier struct {
	ledger Recorder
	outbox Enqueuer
	email  bool
}

func NewNotifier(ledger Recorder, outbox Enqueuer, emailEnabled bool) *Notifier {
	return &Notifier{ledger: ledger, outbox: outbox, email: emailEnabled}
}

// Notify records ev for userID unless an identical notification exists
// within DedupeWindow. created is false when it was suppressed.
func (n *Notifier) Notify(ctx context.Context, userID string, ev Event) (Notification, bool, error) {
	rec, created, err := n.ledger.UpsertIfAbsent(ctx, Notification{
		UserID:  userID,
		Type:    ev.Type,
		Title:   ev.Title,
		Message: ev.Message,
		TaskID:  ev.TaskID,
	}, DedupeWindow)
	if err != nil {
		return Notification{}, false, fmt.Errorf("recording notification %q: %w", ev.Title, err)
	}

	if created && n.email && !ev.NoEmail && n.outbox != nil {
		job := mail.Job{
			UserID:   userID,
			Subject:  ev.Title,
			Heading:  ev.Title,
			Body:     ev.Message,
			LinkPath: "/dashboard/notifications",
			LinkText: "See all notifications",
		}
		if !n.outbox.Enqueue(job) {
			log.Printf("[WARN] email outbox full, dropped notification email user_id=%s title=%q", userID, ev.Title)
		}
	}

	return rec, created, nil
}

// NotifyTask renders a task template and records it.
func (n *Notifier) NotifyTask(ctx context.Context, userID string, kind Kind, taskTitle string, taskID *string, d Details) (Notification, bool, error) {
	ev, err := TaskEvent(kind, taskTitle, taskID, d)
	if err != nil {
		return Notification{}, false, err
	}
	return n.Notify(ctx, userID, ev)
}

// NotifySystem records a free-form account notification. level must be one
// of the notification types.
func (n *Notifier) NotifySystem(ctx context.Context, userID, level, title, message string) error {
	t := Type(level)
	if !t.Valid() {
		return fmt.Errorf("unknown notification type %q", level)
	}
	_, _, err := n.Notify(ctx, userID, System(t, title, message))
	return err
}
