// Package stats computes the productivity figures behind the dashboard charts.
package stats

import (
	"sort"
	"time"

	"taskflow-backend/internal/tasks"
)

type StatusMinutes struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Day is one calendar day with completed tasks.
type Day struct {
	Date             string `json:"date"` // YYYY-MM-DD
	Completed        int    `json:"completed"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

type Summary struct {
	Total                 int           `json:"total"`
	Pending               int           `json:"pending"`
	InProgress            int           `json:"in_progress"`
	Completed             int           `json:"completed"`
	CompletionRate        float64       `json:"completion_rate"` // percent
	TotalEstimatedMinutes int           `json:"total_estimated_minutes"`
	AvgEstimatedMinutes   float64       `json:"avg_estimated_minutes"`
	EstimatedByStatus     StatusMinutes `json:"estimated_by_status"`
	TotalSpentSeconds     int64         `json:"total_spent_seconds"`
	Month                 string        `json:"month"` // YYYY-MM
	Days                  []Day         `json:"days"`
	MonthCompleted        int           `json:"month_completed"`
}

// Summarize aggregates tasks. Days lists completions within month, bucketed
// by calendar day in month's location.
func Summarize(ts []tasks.Task, month time.Time) Summary {
	loc := month.Location()
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	s := Summary{Total: len(ts), Month: start.Format("2006-01"), Days: []Day{}}
	days := map[string]*Day{}

	for _, t := range ts {
		est := 0
		if t.EstimatedTime != nil {
			est = *t.EstimatedTime
		}
		s.TotalEstimatedMinutes += est
		s.TotalSpentSeconds += t.TimeSpent

		switch t.Status {
		case tasks.StatusPending:
			s.Pending++
			s.EstimatedByStatus.Pending += est
		case tasks.StatusInProgress:
			s.InProgress++
			s.EstimatedByStatus.InProgress += est
		case tasks.StatusCompleted:
			s.Completed++
			s.EstimatedByStatus.Completed += est
		}

		if t.Status != tasks.StatusCompleted || t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.In(loc)
		if at.Before(start) || !at.Before(end) {
			continue
		}
		key := at.Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &Day{Date: key}
			days[key] = d
		}
		d.Completed++
		d.EstimatedMinutes += est
		s.MonthCompleted++
	}

	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
		s.AvgEstimatedMinutes = float64(s.TotalEstimatedMinutes) / float64(s.Total)
	}

	for _, d := range days {
		s.Days = append(s.Days, *d)
	}
	sort.Slice(s.Days, func(i, j int) bool { return s.Days[i].Date < s.Days[j].Date })

	return s
}
