package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taskflow-backend/internal/client"
	"taskflow-backend/internal/credential"
)

var (
	apiURL   string
	email    string
	password string
	logout   bool
)

var rootCmd = &cobra.Command{
	Use:           "taskwatch",
	Short:         "Watch running task timers and ring when one is about to run out",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := credential.Open()
		if err != nil {
			return err
		}

		if logout {
			if err := creds.DeleteToken(apiURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}

		c := client.New(apiURL, "")
		if email != "" {
			if password == "" {
				password = os.Getenv("TASKFLOW_PASSWORD")
			}
			token, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := creds.SaveToken(c.BaseURL(), token); err != nil {
				log.Printf("[WARN] could not store session: %v", err)
			}
		} else {
			token, err := creds.Token(c.BaseURL())
			if errors.Is(err, credential.ErrNoToken) {
				return errors.New("not logged in, run taskwatch --email you@example.com")
			}
			if err != nil {
				return err
			}
			c.SetToken(token)
		}

		_, err = tea.NewProgram(newModel(c, os.Stderr, time.Now)).Run()
		return err
	},
}

func main() {
	rootCmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "TaskFlow API base URL")
	rootCmd.Flags().StringVar(&email, "email", "", "log in with this email")
	rootCmd.Flags().StringVar(&password, "password", "", "password (default $TASKFLOW_PASSWORD)")
	rootCmd.Flags().BoolVar(&logout, "logout", false, "forget the stored session")

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}
