package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"taskflow-backend/internal/stats"
	"taskflow-backend/internal/sweep"
)

func TestRenderSweep(t *testing.T) {
	var buf bytes.Buffer
	renderSweep(&buf, map[string]sweep.Result{
		"user-b": {Forgotten: 2},
		"user-a": {HalfTime: 1, Failed: 1},
	})

	out := buf.String()
	assert.Contains(t, out, "user-a")
	assert.Contains(t, out, "2 users")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("user-a")), bytes.Index(buf.Bytes(), []byte("user-b")))
}

func TestRenderStats(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, stats.Summary{
		Total: 4, Completed: 2, CompletionRate: 50, TotalSpentSeconds: 3725, Month: "2026-10",
		Days: []stats.Day{{Date: "2026-10-14", Completed: 2, EstimatedMinutes: 90}},
	})

	out := buf.String()
	assert.Contains(t, out, "Completion rate: 50.0%")
	assert.Contains(t, out, "1h 2m 5s")
	assert.Contains(t, out, "2026-10-14")
}

func TestSweepFlagsAreExclusive(t *testing.T) {
	rootCmd.SetArgs([]string{"sweep"})
	assert.Error(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"sweep", "--user", "u", "--all"})
	assert.Error(t, rootCmd.Execute())
}
