package sweep

import (
	"context"
	"log"
	"net/http"
	"time"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/respond"
)

// Handler serves POST /api/tasks/check-time and its check-overdue alias.
func Handler(s *Sweeper, timeout time.Duration, events *analytics.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res, err := s.Run(ctx, uid)
		if err != nil {
			log.Printf("[ERROR] sweep user_id=%s: %v", uid, err)
			respond.Error(w, http.StatusInternalServerError, "failed to check task times")
			return
		}

		if res.Created() > 0 || res.Failed > 0 {
			events.Log(r.Context(), analytics.FromRequest(r), "sweep_completed", res, analytics.SourceEventKeyFromRequest(r))
		}

		respond.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"result":  res,
		})
	}
}
