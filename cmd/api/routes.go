package main

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/cors"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/config"
	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/stats"
	"taskflow-backend/internal/sweep"
	"taskflow-backend/internal/tasks"
)

// newHandler wires every HTTP route. outbox may be nil, in which case no
// email is sent.
func newHandler(cfg *config.Config, dbx *sqlx.DB, outbox auth.Enqueuer, now func() time.Time) http.Handler {
	events := analytics.NewLogger(dbx)
	users := auth.NewUserStore(dbx)
	store := tasks.NewStore(dbx)
	ledger := notifications.NewLedger(dbx).WithClock(now)

	var enq notifications.Enqueuer
	if outbox != nil {
		enq = outbox
	}
	notifier := notifications.NewNotifier(ledger, enq, cfg.NotifyEmail && outbox != nil)

	sessions := auth.New([]byte(cfg.JWTSecret))
	authH := &auth.AuthHandler{
		Users:        users,
		Sessions:     sessions,
		Secret:       []byte(cfg.JWTSecret),
		Notifier:     notifier,
		Outbox:       outbox,
		Events:       events,
		AppURL:       cfg.AppURL,
		CookieSecure: cfg.CookieSecure,
		Now:          now,
	}
	taskH := &tasks.Handler{Store: store, Notifier: notifier, Events: events, Now: now}
	notifH := &notifications.Handler{Ledger: ledger}
	sweeper := &sweep.Sweeper{Tasks: store, Notifier: notifier, Now: now}
	check := sweep.Handler(sweeper, cfg.SweepTimeout, events)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// auth
	mux.HandleFunc("POST /api/auth/register", authH.Register)
	mux.HandleFunc("GET /api/auth/verify-email", authH.VerifyEmail)
	mux.HandleFunc("POST /api/auth/login", authH.Login)
	mux.HandleFunc("POST /api/auth/logout", authH.Logout)
	mux.HandleFunc("GET /api/auth/me", sessions.Wrap(authH.Me))
	mux.HandleFunc("DELETE /api/auth/account", sessions.Wrap(authH.DeleteAccount))

	// tasks
	mux.HandleFunc("GET /api/tasks", sessions.Wrap(taskH.List))
	mux.HandleFunc("POST /api/tasks", sessions.Wrap(taskH.Create))
	mux.HandleFunc("GET /api/tasks/{id}", sessions.Wrap(taskH.Get))
	mux.HandleFunc("PUT /api/tasks/{id}", sessions.Wrap(taskH.Update))
	mux.HandleFunc("DELETE /api/tasks/{id}", sessions.Wrap(taskH.Delete))
	mux.HandleFunc("POST /api/tasks/{id}/time", sessions.Wrap(taskH.Time))
	mux.HandleFunc("POST /api/tasks/check-time", sessions.Wrap(check))
	mux.HandleFunc("POST /api/tasks/check-overdue", sessions.Wrap(check))

	// notifications
	mux.HandleFunc("GET /api/notifications", sessions.Wrap(notifH.List))
	mux.HandleFunc("POST /api/notifications/read-all", sessions.Wrap(notifH.MarkAllRead))
	mux.HandleFunc("POST /api/notifications/{id}/read", sessions.Wrap(notifH.MarkRead))
	mux.HandleFunc("DELETE /api/notifications/{id}", sessions.Wrap(notifH.Delete))

	// stats + analytics
	mux.HandleFunc("GET /api/stats", sessions.Wrap(stats.Handler(store, now)))
	mux.HandleFunc("POST /api/analytics/app-opened", sessions.Wrap(analytics.AppOpenedHandler(events)))
	mux.HandleFunc("POST /api/analytics/timer-alert", sessions.Wrap(analytics.TimerAlertHandler(events)))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Platform", "X-Session-Id", "X-App-Version"},
		AllowCredentials: true,
	})

	return c.Handler(mux)
}
