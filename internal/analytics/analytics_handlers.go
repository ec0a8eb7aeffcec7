package analytics

import (
	"encoding/json"
	"net/http"

	"taskflow-backend/internal/respond"
)

// AppOpenedHandler records app_opened, the basic "user opened the dashboard"
// metric.
func AppOpenedHandler(events *Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // push/deeplink/icon/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		env := FromRequest(r)
		env.UserID = uid

		events.Log(r.Context(), env, "app_opened", map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}, SourceEventKeyFromRequest(r))

		respond.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// TimerAlertHandler records timer_alert_shown, sent by clients when their
// local poller fires the two-minute alert. It is not a notification record.
func TimerAlertHandler(events *Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body struct {
			TaskIDs []string `json:"task_ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		env := FromRequest(r)
		env.UserID = uid

		events.Log(r.Context(), env, "timer_alert_shown", map[string]any{
			"task_count": len(body.TaskIDs),
			"task_ids":   body.TaskIDs,
		}, SourceEventKeyFromRequest(r))

		respond.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
