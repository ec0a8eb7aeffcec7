package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"taskflow-backend/internal/auth"
	"taskflow-backend/internal/config"
	"taskflow-backend/internal/db"
	"taskflow-backend/internal/mail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("[ERROR] failed to connect DB: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		log.Fatalf("[ERROR] migrate: %v", err)
	}
	log.Printf("[INFO] connected to %s", cfg.DBDriver)

	var sender mail.Sender = mail.LogSender{}
	if addr := cfg.SMTPAddr(); addr != "" {
		sender = mail.SMTPSender{Addr: addr, Username: cfg.SMTPUser, Password: cfg.SMTPPassword}
	} else {
		log.Printf("[WARN] SMTP_HOST not set, emails are only logged")
	}
	outbox := mail.NewOutbox(sender, auth.NewUserStore(database), cfg.MailFrom, cfg.AppURL, cfg.MailQueue)
	outbox.Start(cfg.MailWorkers)

	srv := &http.Server{
		Handler:           newHandler(cfg, database, outbox, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("[ERROR] listen %s: %v", cfg.HTTPAddr, err)
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] API server is running on %s", cfg.HTTPAddr)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[ERROR] serve: %v", err)
	}

	outbox.Close()
	st := outbox.Stats()
	log.Printf("[INFO] stopped; emails sent=%d failed=%d dropped=%d", st.Sent, st.Failed, st.Dropped)
}
