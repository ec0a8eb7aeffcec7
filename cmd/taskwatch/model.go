package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskflow-backend/internal/client"
	"taskflow-backend/internal/poller"
	"taskflow-backend/internal/sweep"
	"taskflow-backend/internal/tasks"
	"taskflow-backend/internal/timer"
)

const (
	displayInterval = time.Second
	requestTimeout  = 15 * time.Second
)

// API is the part of the TaskFlow API the watcher uses.
type API interface {
	Tasks(ctx context.Context) ([]tasks.TaskView, error)
	TaskTime(ctx context.Context, id, action string, seconds int64) (tasks.TaskView, error)
	CheckTime(ctx context.Context) (sweep.Result, error)
	TimerAlert(ctx context.Context, taskIDs []string) error
}

type (
	displayTickMsg time.Time
	pollTickMsg    time.Time
	tasksMsg       struct {
		list []tasks.TaskView
		err  error
	}
	actionMsg struct{ err error }
	sweepMsg  struct {
		res sweep.Result
		err error
	}
)

// snapshotCache is shared with the poller's Source. bubbletea runs Update on
// one goroutine, so it needs no locking.
type snapshotCache struct {
	snaps []poller.Snapshot
	due   []poller.Due
}

type model struct {
	api    API
	poller *poller.Poller
	cache  *snapshotCache
	bell   io.Writer
	clock  func() time.Time

	tasks  []tasks.TaskView
	cursor int
	now    time.Time
	status string
	err    error
	alert  string
}

func newModel(api API, bell io.Writer, clock func() time.Time) model {
	cache := &snapshotCache{}
	p := poller.New(
		func() []poller.Snapshot { return cache.snaps },
		func(d []poller.Due) { cache.due = d },
	)
	return model{api: api, poller: p, cache: cache, bell: bell, clock: clock, now: clock()}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.displayTick(), m.pollTick())
}

func (m model) displayTick() tea.Cmd {
	return tea.Tick(displayInterval, func(t time.Time) tea.Msg { return displayTickMsg(t) })
}

func (m model) pollTick() tea.Cmd {
	return tea.Tick(m.poller.Interval, func(t time.Time) tea.Msg { return pollTickMsg(t) })
}

func (m model) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := m.api.Tasks(ctx)
		return tasksMsg{list: list, err: err}
	}
}

func (m model) action(id, action string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := m.api.TaskTime(ctx, id, action, 0)
		return actionMsg{err: err}
	}
}

func (m model) checkTime() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := m.api.CheckTime(ctx)
		return sweepMsg{res: res, err: err}
	}
}

// ring sounds the terminal bell and tells the server the alert was shown.
func (m model) ring(due []poller.Due) tea.Cmd {
	ids := make([]string, 0, len(due))
	for _, d := range due {
		ids = append(ids, d.TaskID)
	}
	return func() tea.Msg {
		fmt.Fprint(m.bell, "\a")
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_ = m.api.TimerAlert(ctx, ids)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case displayTickMsg:
		m.now = m.clock()
		return m, m.displayTick()

	case pollTickMsg:
		m.now = m.clock()
		cmds := []tea.Cmd{m.pollTick()}
		if due := m.check(); len(due) > 0 {
			cmds = append(cmds, m.ring(due))
		}
		return m, tea.Batch(cmds...)

	case tasksMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.list
		m.cache.snaps = snapshots(msg.list)
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.fetch()

	case sweepMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("server check: %d new notifications", msg.res.Created())
		return m, nil
	}

	return m, nil
}

// check runs the poller and returns what it alerted on, if anything.
func (m *model) check() []poller.Due {
	m.cache.due = nil
	due := m.poller.Check(m.now)
	if len(due) > 0 {
		names := make([]string, 0, len(due))
		for _, d := range due {
			names = append(names, d.Title)
		}
		m.alert = "Less than 2 minutes left: " + strings.Join(names, ", ")
	} else {
		m.alert = ""
	}
	return m.cache.due
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "r":
		m.status = "refreshing..."
		return m, m.fetch()
	case "x":
		return m, m.checkTime()
	case "s", "c":
		if len(m.tasks) == 0 {
			return m, nil
		}
		action := "start"
		if msg.String() == "c" {
			action = "complete"
		}
		return m, m.action(m.tasks[m.cursor].ID, action)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("TaskFlow timers"))
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert))
		b.WriteString("\n\n")
	}

	if len(m.tasks) == 0 {
		b.WriteString(mutedStyle.Render("  no tasks"))
		b.WriteString("\n")
	}
	for i, t := range m.tasks {
		line := m.renderTask(t)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, client.ErrUnauthorized) {
			msg = "session expired, run taskwatch --email to log in again"
		}
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("j/k move  s start  c complete  r refresh  x server check  q quit"))
	return b.String()
}

func (m model) renderTask(t tasks.TaskView) string {
	head := fmt.Sprintf("%-32s %-11s", truncate(t.Title, 32), t.Status)
	if t.Status != tasks.StatusInProgress {
		return head + "  " + mutedStyle.Render("spent "+timer.FormatSpent(t.TimeSpent))
	}

	st, ok := timer.ForTask(t.StartedAt, t.EstimatedTime, m.now)
	if !ok {
		return head + "  " + mutedStyle.Render("no estimate")
	}
	clock := phaseStyle(st.Phase).Render(timer.FormatRemaining(st.RemainingSeconds))
	if st.TwoMinuteWarning {
		clock += " !"
	}
	return head + "  " + clock
}

func snapshots(list []tasks.TaskView) []poller.Snapshot {
	out := make([]poller.Snapshot, 0, len(list))
	for _, t := range list {
		out = append(out, poller.Snapshot{
			TaskID:           t.ID,
			Title:            t.Title,
			InProgress:       t.Status == tasks.StatusInProgress,
			StartedAt:        t.StartedAt,
			EstimatedMinutes: t.EstimatedTime,
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
