package tasks

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/respond"
	"taskflow-backend/internal/timer"
)

// Notifier records task lifecycle notifications.
type Notifier interface {
	NotifyTask(ctx context.Context, userID string, kind notifications.Kind, taskTitle string, taskID *string, d notifications.Details) (notifications.Notification, bool, error)
}

type Handler struct {
	Store    *Store
	Notifier Notifier
	Events   *analytics.Logger
	Now      func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// TimerView is the live countdown of an in-progress task.
type TimerView struct {
	ElapsedSeconds   int64       `json:"elapsed_seconds"`
	RemainingSeconds int64       `json:"remaining_seconds"`
	Remaining        string      `json:"remaining"`
	Phase            timer.Phase `json:"phase"`
	TwoMinuteWarning bool        `json:"two_minute_warning"`
}

type TaskView struct {
	Task
	Spent string     `json:"time_spent_display"`
	Timer *TimerView `json:"timer,omitempty"`
}

func newTaskView(t Task, now time.Time) TaskView {
	v := TaskView{Task: t, Spent: timer.FormatSpent(t.TimeSpent)}
	if t.Status != StatusInProgress {
		return v
	}
	st, ok := timer.ForTask(t.StartedAt, t.EstimatedTime, now)
	if !ok {
		return v
	}
	v.Timer = &TimerView{
		ElapsedSeconds:   st.ElapsedSeconds,
		RemainingSeconds: st.RemainingSeconds,
		Remaining:        timer.FormatRemaining(st.RemainingSeconds),
		Phase:            st.Phase,
		TwoMinuteWarning: st.TwoMinuteWarning,
	}
	return v
}

type timeRequest struct {
	Action  string `json:"action"`
	Seconds int64  `json:"seconds"`
}

// GET /api/tasks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ts, err := h.Store.ListForUser(r.Context(), uid)
	if err != nil {
		log.Printf("[ERROR] list tasks user_id=%s: %v", uid, err)
		respond.Error(w, http.StatusInternalServerError, "failed to load tasks")
		return
	}

	now := h.now()
	views := make([]TaskView, 0, len(ts))
	for _, t := range ts {
		views = append(views, newTaskView(t, now))
	}
	respond.JSON(w, http.StatusOK, views)
}

// GET /api/tasks/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	t, err := h.Store.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "get", uid, err)
		return
	}
	respond.JSON(w, http.StatusOK, newTaskView(t, h.now()))
}

// POST /api/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.Store.Create(r.Context(), uid, in, h.now())
	if err != nil {
		writeStoreError(w, "create", uid, err)
		return
	}

	h.notify(r.Context(), uid, notifications.KindCreated, t, notifications.Details{})
	h.logEvent(r, "task_created", t, nil)

	respond.JSON(w, http.StatusCreated, newTaskView(t, h.now()))
}

// PUT /api/tasks/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in Input
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.Store.Update(r.Context(), uid, r.PathValue("id"), in, h.now())
	if err != nil {
		writeStoreError(w, "update", uid, err)
		return
	}

	h.notify(r.Context(), uid, notifications.KindUpdated, t, notifications.Details{})
	h.logEvent(r, "task_updated", t, nil)

	respond.JSON(w, http.StatusOK, newTaskView(t, h.now()))
}

// DELETE /api/tasks/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	t, err := h.Store.Delete(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeStoreError(w, "delete", uid, err)
		return
	}

	// the task row is gone, so the notification is not linked to it
	if h.Notifier != nil {
		if _, _, err := h.Notifier.NotifyTask(r.Context(), uid, notifications.KindDeleted, t.Title, nil, notifications.Details{}); err != nil {
			log.Printf("[WARN] notify %s task_id=%s: %v", notifications.KindDeleted, t.ID, err)
		}
	}
	h.logEvent(r, "task_deleted", t, nil)

	respond.OK(w)
}

// POST /api/tasks/{id}/time
func (h *Handler) Time(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req timeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	now := h.now()

	var (
		t   Task
		err error
	)
	switch req.Action {
	case "start":
		t, err = h.Store.Start(ctx, uid, id, now)
		if err == nil {
			d := notifications.Details{}
			if t.EstimatedTime != nil {
				d.EstimatedMinutes = *t.EstimatedTime
			}
			h.notify(ctx, uid, notifications.KindStarted, t, d)
			h.logEvent(r, "task_started", t, nil)
		}
	case "complete":
		t, err = h.Store.Complete(ctx, uid, id, now)
		if err == nil {
			h.notify(ctx, uid, notifications.KindCompleted, t, notifications.Details{TimeSpentSeconds: t.TimeSpent})
			h.logEvent(r, "task_completed", t, map[string]any{"time_spent_sec": t.TimeSpent})
		}
	case "add":
		t, err = h.Store.AddTime(ctx, uid, id, req.Seconds, now)
		if err == nil {
			h.logEvent(r, "task_time_added", t, map[string]any{"seconds": req.Seconds})
		}
	default:
		respond.Error(w, http.StatusBadRequest, "action must be start, complete or add")
		return
	}
	if err != nil {
		writeStoreError(w, req.Action, uid, err)
		return
	}

	respond.JSON(w, http.StatusOK, newTaskView(t, now))
}

func (h *Handler) notify(ctx context.Context, uid string, kind notifications.Kind, t Task, d notifications.Details) {
	if h.Notifier == nil {
		return
	}
	id := t.ID
	if _, _, err := h.Notifier.NotifyTask(ctx, uid, kind, t.Title, &id, d); err != nil {
		log.Printf("[WARN] notify %s task_id=%s: %v", kind, t.ID, err)
	}
}

func (h *Handler) logEvent(r *http.Request, name string, t Task, extra map[string]any) {
	props := map[string]any{
		"task_id":        t.ID,
		"status":         t.Status,
		"estimated_time": t.EstimatedTime,
	}
	for k, v := range extra {
		props[k] = v
	}
	h.Events.Log(r.Context(), analytics.FromRequest(r), name, props, analytics.SourceEventKeyFromRequest(r))
}

func writeStoreError(w http.ResponseWriter, op, uid string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "task not found")
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidEstimate), errors.Is(err, ErrInvalidDuration):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[ERROR] %s task user_id=%s: %v", op, uid, err)
		respond.Error(w, http.StatusInternalServerError, "task operation failed")
	}
}
