// Package poller re-derives task timers on the client and raises a local
// alert when a running task enters its last two minutes. It never talks to
// the server and never records notifications.
package poller

import (
	"context"
	"sync"
	"time"

	"taskflow-backend/internal/timer"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultCooldown = 60 * time.Second
)

// Snapshot is the client's cached copy of one task.
type Snapshot struct {
	TaskID           string
	Title            string
	InProgress       bool
	StartedAt        *time.Time
	EstimatedMinutes *int
}

// Due is a task inside the two-minute warning at the time of a check.
type Due struct {
	Snapshot
	State timer.State
}

type Poller struct {
	Interval time.Duration
	Cooldown time.Duration
	Source   func() []Snapshot
	Alert    func([]Due)

	mu        sync.Mutex
	lastAlert time.Time
}

func New(source func() []Snapshot, alert func([]Due)) *Poller {
	return &Poller{
		Interval: DefaultInterval,
		Cooldown: DefaultCooldown,
		Source:   source,
		Alert:    alert,
	}
}

// Check returns the tasks in their two-minute warning at now and fires Alert
// for them unless an alert fired less than Cooldown ago.
func (p *Poller) Check(now time.Time) []Due {
	var due []Due
	if p.Source != nil {
		for _, s := range p.Source() {
			if !s.InProgress {
				continue
			}
			st, ok := timer.ForTask(s.StartedAt, s.EstimatedMinutes, now)
			if ok && st.TwoMinuteWarning {
				due = append(due, Due{Snapshot: s, State: st})
			}
		}
	}
	if len(due) == 0 {
		return nil
	}

	p.mu.Lock()
	fire := p.lastAlert.IsZero() || now.Sub(p.lastAlert) >= p.Cooldown
	if fire {
		p.lastAlert = now
	}
	p.mu.Unlock()

	if fire && p.Alert != nil {
		p.Alert(due)
	}
	return due
}

// Run calls Check for every tick until ctx is done or ticks is closed.
func (p *Poller) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case now, ok := <-ticks:
			if !ok {
				return
			}
			p.Check(now)
		}
	}
}

// NewTicker adapts time.Ticker for Run. stop releases the ticker.
func NewTicker(d time.Duration) (ticks <-chan time.Time, stop func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
