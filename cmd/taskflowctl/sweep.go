package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"taskflow-backend/internal/notifications"
	"taskflow-backend/internal/sweep"
	"taskflow-backend/internal/tasks"
)

var (
	sweepUser string
	sweepAll  bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the task time sweep for one user or every user with open tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (sweepUser == "") == !sweepAll {
			return errors.New("pass exactly one of --user or --all")
		}

		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		// notifications are recorded without email; the API server owns delivery
		store := tasks.NewStore(database)
		s := &sweep.Sweeper{
			Tasks:    store,
			Notifier: notifications.NewNotifier(notifications.NewLedger(database), nil, false),
			Now:      time.Now,
		}

		results := map[string]sweep.Result{}
		if sweepAll {
			results, err = s.RunAll(cmd.Context(), store)
		} else {
			var res sweep.Result
			res, err = s.Run(cmd.Context(), sweepUser)
			results[sweepUser] = res
		}
		if len(results) > 0 {
			renderSweep(cmd.OutOrStdout(), results)
		}
		return err
	},
}

func renderSweep(w io.Writer, results map[string]sweep.Result) {
	users := make([]string, 0, len(results))
	for uid := range results {
		users = append(users, uid)
	}
	sort.Strings(users)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.Bold.Sprint("User"), "Almost expired", "Time expired", "Half time", "Overdue", "Forgotten", "Failed",
	})

	var total sweep.Result
	for _, uid := range users {
		r := results[uid]
		t.AppendRow(table.Row{uid, r.AlmostExpired, r.TimeExpired, r.HalfTime, r.Overdue, r.Forgotten, r.Failed})
		total.AlmostExpired += r.AlmostExpired
		total.TimeExpired += r.TimeExpired
		total.HalfTime += r.HalfTime
		total.Overdue += r.Overdue
		total.Forgotten += r.Forgotten
		total.Failed += r.Failed
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d users", len(users)),
		total.AlmostExpired, total.TimeExpired, total.HalfTime, total.Overdue, total.Forgotten, total.Failed,
	})

	t.Render()
}

func init() {
	sweepCmd.Flags().StringVar(&sweepUser, "user", "", "user id to sweep")
	sweepCmd.Flags().BoolVar(&sweepAll, "all", false, "sweep every user with open tasks")
	rootCmd.AddCommand(sweepCmd)
}
