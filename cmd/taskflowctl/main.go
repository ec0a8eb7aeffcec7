package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"taskflow-backend/internal/config"
	"taskflow-backend/internal/db"
)

var rootCmd = &cobra.Command{
	Use:           "taskflowctl",
	Short:         "Operate a TaskFlow backend: migrations, sweeps and statistics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		stop()
		os.Exit(1)
	}
}

// openDB connects using the same configuration as the API server.
func openDB() (*sqlx.DB, error) {
	cfg, err := config.LoadTool()
	if err != nil {
		return nil, err
	}
	return db.Connect(cfg.DBDriver, cfg.DSN())
}
