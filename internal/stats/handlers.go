package stats

import (
	"context"
	"log"
	"net/http"
	"time"

	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/respond"
	"taskflow-backend/internal/tasks"
)

// TaskLister lists every task of a user.
type TaskLister interface {
	ListForUser(ctx context.Context, userID string, statuses ...tasks.Status) ([]tasks.Task, error)
}

// Handler serves GET /api/stats?month=YYYY-MM. The month defaults to the
// current one.
func Handler(store TaskLister, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		month := now().UTC()
		if m := r.URL.Query().Get("month"); m != "" {
			parsed, err := time.Parse("2006-01", m)
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "month must be YYYY-MM")
				return
			}
			month = parsed
		}

		ts, err := store.ListForUser(r.Context(), uid)
		if err != nil {
			log.Printf("[ERROR] stats user_id=%s: %v", uid, err)
			respond.Error(w, http.StatusInternalServerError, "could not load statistics")
			return
		}

		respond.JSON(w, http.StatusOK, Summarize(ts, month))
	}
}
