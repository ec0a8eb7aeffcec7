package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"taskflow-backend/internal/stats"
	"taskflow-backend/internal/tasks"
	"taskflow-backend/internal/timer"
)

var (
	statsUser  string
	statsMonth string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print productivity statistics for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsUser == "" {
			return errors.New("--user is required")
		}

		month := time.Now().UTC()
		if statsMonth != "" {
			m, err := time.Parse("2006-01", statsMonth)
			if err != nil {
				return fmt.Errorf("--month must be YYYY-MM: %w", err)
			}
			month = m
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		ts, err := tasks.NewStore(database).ListForUser(cmd.Context(), statsUser)
		if err != nil {
			return err
		}

		renderStats(cmd.OutOrStdout(), stats.Summarize(ts, month))
		return nil
	},
}

func renderStats(w io.Writer, s stats.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Tasks")
	t.AppendHeader(table.Row{"Status", "Tasks", "Estimated (min)"})
	t.AppendRows([]table.Row{
		{"Pending", s.Pending, s.EstimatedByStatus.Pending},
		{"In progress", s.InProgress, s.EstimatedByStatus.InProgress},
		{text.FgGreen.Sprint("Completed"), s.Completed, s.EstimatedByStatus.Completed},
	})
	t.AppendFooter(table.Row{"Total", s.Total, s.TotalEstimatedMinutes})
	t.Render()

	fmt.Fprintf(w, "Completion rate: %.1f%%  Avg estimate: %.1f min  Time spent: %s\n\n",
		s.CompletionRate, s.AvgEstimatedMinutes, timer.FormatSpent(s.TotalSpentSeconds))

	d := table.NewWriter()
	d.SetOutputMirror(w)
	d.SetStyle(table.StyleRounded)
	d.SetTitle("Completed in " + s.Month)
	d.AppendHeader(table.Row{"Day", "Completed", "Estimated (min)"})
	for _, day := range s.Days {
		d.AppendRow(table.Row{day.Date, day.Completed, day.EstimatedMinutes})
	}
	d.AppendFooter(table.Row{"", s.MonthCompleted, ""})
	d.Render()
}

func init() {
	statsCmd.Flags().StringVar(&statsUser, "user", "", "user id")
	statsCmd.Flags().StringVar(&statsMonth, "month", "", "month as YYYY-MM (default: current)")
	rootCmd.AddCommand(statsCmd)
}
