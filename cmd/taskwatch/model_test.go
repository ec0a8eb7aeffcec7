package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-backend/internal/client"
	"taskflow-backend/internal/sweep"
	"taskflow-backend/internal/tasks"
)

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	list    []tasks.TaskView
	actions []string
	alerts  [][]string
}

func (f *fakeAPI) Tasks(context.Context) ([]tasks.TaskView, error) { return f.list, nil }

func (f *fakeAPI) TaskTime(_ context.Context, id, action string, _ int64) (tasks.TaskView, error) {
	f.actions = append(f.actions, action+":"+id)
	return tasks.TaskView{}, nil
}

func (f *fakeAPI) CheckTime(context.Context) (sweep.Result, error) {
	return sweep.Result{HalfTime: 1}, nil
}

func (f *fakeAPI) TimerAlert(_ context.Context, ids []string) error {
	f.alerts = append(f.alerts, ids)
	return nil
}

func runningView(id string, est int, startedAgo time.Duration) tasks.TaskView {
	s := base.Add(-startedAgo)
	return tasks.TaskView{Task: tasks.Task{ID: id, Title: id, Status: tasks.StatusInProgress, EstimatedTime: &est, StartedAt: &s}}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(model), cmd
}

func TestPollRingsOncePerCooldown(t *testing.T) {
	api := &fakeAPI{list: []tasks.TaskView{runningView("report", 10, 9*time.Minute), runningView("later", 60, time.Minute)}}
	var bell bytes.Buffer
	now := base
	m := newModel(api, &bell, func() time.Time { return now })

	m, _ = update(t, m, m.fetch()())
	require.Len(t, m.tasks, 2)

	m, cmd := update(t, m, pollTickMsg(now))
	assert.Contains(t, m.alert, "report")
	assert.NotContains(t, m.alert, "later")
	require.NotNil(t, cmd)

	// the ring command is the second of the batch
	batch := cmd().(tea.BatchMsg)
	require.Len(t, batch, 2)
	batch[1]()
	assert.Equal(t, "\a", bell.String())
	assert.Equal(t, [][]string{{"report"}}, api.alerts)

	// still due but inside the cooldown: banner stays, no second bell
	now = base.Add(10 * time.Second)
	m, _ = update(t, m, pollTickMsg(now))
	assert.NotEmpty(t, m.alert)
	assert.Len(t, api.alerts, 1)
	assert.Equal(t, "\a", bell.String())
}

func TestUnauthorizedShowsLoginHint(t *testing.T) {
	m := newModel(&fakeAPI{}, &bytes.Buffer{}, func() time.Time { return base })
	m, _ = update(t, m, tasksMsg{err: fmt.Errorf("listing tasks: %w", client.ErrUnauthorized)})
	assert.Contains(t, m.View(), "taskwatch --email")
}

func TestViewShowsCountdown(t *testing.T) {
	api := &fakeAPI{list: []tasks.TaskView{runningView("report", 10, 9*time.Minute)}}
	m := newModel(api, &bytes.Buffer{}, func() time.Time { return base })
	m, _ = update(t, m, m.fetch()())

	out := m.View()
	assert.Contains(t, out, "00:01:00")
	assert.Contains(t, out, "report")
}

func TestKeysTriggerActions(t *testing.T) {
	api := &fakeAPI{list: []tasks.TaskView{runningView("a", 10, 0), runningView("b", 10, 0)}}
	m := newModel(api, &bytes.Buffer{}, func() time.Time { return base })
	m, _ = update(t, m, m.fetch()())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []string{"complete:b"}, api.actions)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
