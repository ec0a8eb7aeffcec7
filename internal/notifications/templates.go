package notifications

import (
	"fmt"
)

// Kind names a task lifecycle or timer notification.
type Kind string

const (
	KindCreated       Kind = "created"
	KindUpdated       Kind = "updated"
	KindDeleted       Kind = "deleted"
	KindStarted       Kind = "started"
	KindCompleted     Kind = "completed"
	KindAlmostExpired Kind = "almost_expired"
	KindTimeExpired   Kind = "time_expired"
	KindHalfTime      Kind = "half_time"
	KindOverdue       Kind = "overdue"
	KindForgotten     Kind = "forgotten"
)

// Event is a notification about to be recorded.
type Event struct {
	Type    Type
	Title   string
	Message string
	TaskID  *string
	NoEmail bool
}

// Details carries the numbers some task templates print.
type Details struct {
	EstimatedMinutes int
	TimeSpentSeconds int64
	RemainingMinutes int
	ExceededMinutes  int
}

// TaskEvent renders the template for kind.
func TaskEvent(kind Kind, taskTitle string, taskID *string, d Details) (Event, error) {
	ev := Event{TaskID: taskID}

	switch kind {
	case KindCreated:
		ev.Type, ev.Title = TypeSuccess, "Task created"
		ev.Message = fmt.Sprintf("Task %q was created.", taskTitle)
	case KindUpdated:
		ev.Type, ev.Title = TypeInfo, "Task updated"
		ev.Message = fmt.Sprintf("Task %q was updated.", taskTitle)
	case KindDeleted:
		ev.Type, ev.Title = TypeWarning, "Task deleted"
		ev.Message = fmt.Sprintf("Task %q was deleted.", taskTitle)
	case KindStarted:
		ev.Type, ev.Title = TypeInfo, "Task started"
		ev.Message = fmt.Sprintf("Task %q was started.", taskTitle)
		if d.EstimatedMinutes > 0 {
			ev.Message += fmt.Sprintf(" Estimated time: %d minutes.", d.EstimatedMinutes)
		}
	case KindCompleted:
		ev.Type, ev.Title = TypeSuccess, "Task completed"
		ev.Message = fmt.Sprintf("Task %q was completed!", taskTitle)
		if d.TimeSpentSeconds > 0 {
			ev.Message += fmt.Sprintf(" Total time: %d minutes.", d.TimeSpentSeconds/60)
		}
	case KindAlmostExpired:
		remaining := d.RemainingMinutes
		if remaining <= 0 {
			remaining = 30
		}
		ev.Type, ev.Title = TypeWarning, "Task about to expire"
		ev.Message = fmt.Sprintf("Task %q is about to expire! %d minutes left.", taskTitle, remaining)
	case KindTimeExpired:
		ev.Type, ev.Title = TypeError, "Task time exceeded"
		ev.Message = fmt.Sprintf("Task %q exceeded its estimated time!", taskTitle)
		if d.ExceededMinutes > 0 {
			ev.Message += fmt.Sprintf(" Over by %d minutes.", d.ExceededMinutes)
		}
	case KindHalfTime:
		ev.Type, ev.Title = TypeInfo, "Half of task time used"
		ev.Message = fmt.Sprintf("Task %q has used half of its estimated time.", taskTitle)
	case KindOverdue:
		ev.Type, ev.Title = TypeWarning, "Task overdue"
		ev.Message = fmt.Sprintf("Task %q has been in progress for more than 24 hours.", taskTitle)
	case KindForgotten:
		ev.Type, ev.Title = TypeInfo, "Task forgotten"
		ev.Message = fmt.Sprintf("Task %q has been pending for more than 3 days.", taskTitle)
	default:
		return Event{}, fmt.Errorf("unknown notification kind %q", kind)
	}

	return ev, nil
}

// System builds a free-form notification not tied to a task.
func System(t Type, title, message string) Event {
	return Event{Type: t, Title: title, Message: message}
}
