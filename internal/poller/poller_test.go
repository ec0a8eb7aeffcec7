package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func running(id string, est int, startedAgo time.Duration) Snapshot {
	s := base.Add(-startedAgo)
	return Snapshot{TaskID: id, Title: id, InProgress: true, StartedAt: &s, EstimatedMinutes: &est}
}

func TestCheckFindsTwoMinuteWarning(t *testing.T) {
	var alerts [][]Due
	p := New(func() []Snapshot {
		return []Snapshot{
			running("final", 10, 9*time.Minute),
			running("early", 10, time.Minute),
			running("expired", 10, 11*time.Minute),
			{TaskID: "no-estimate", InProgress: true},
		}
	}, func(d []Due) { alerts = append(alerts, d) })

	due := p.Check(base)
	require.Len(t, due, 1)
	assert.Equal(t, "final", due[0].TaskID)
	assert.Equal(t, int64(60), due[0].State.RemainingSeconds)
	require.Len(t, alerts, 1)
}

func TestCheckIgnoresStoppedTasks(t *testing.T) {
	s := running("paused", 10, 9*time.Minute)
	s.InProgress = false
	p := New(func() []Snapshot { return []Snapshot{s} }, func([]Due) { t.Fatal("unexpected alert") })

	assert.Empty(t, p.Check(base))
}

func TestAlertCooldown(t *testing.T) {
	alerts := 0
	snap := running("t", 10, 8*time.Minute+30*time.Second)
	p := New(func() []Snapshot { return []Snapshot{snap} }, func([]Due) { alerts++ })

	for _, at := range []time.Duration{0, 10 * time.Second, 20 * time.Second, 50 * time.Second} {
		p.Check(base.Add(at))
	}
	assert.Equal(t, 1, alerts)

	p.Check(base.Add(60 * time.Second))
	assert.Equal(t, 2, alerts)
}

func TestPollersDoNotShareState(t *testing.T) {
	snap := running("t", 10, 9*time.Minute)
	var a, b int
	pa := New(func() []Snapshot { return []Snapshot{snap} }, func([]Due) { a++ })
	pb := New(func() []Snapshot { return []Snapshot{snap} }, func([]Due) { b++ })

	pa.Check(base)
	pb.Check(base)
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestRunUsesInjectedTicks(t *testing.T) {
	alerts := make(chan []Due, 4)
	snap := running("t", 10, 9*time.Minute)
	p := New(func() []Snapshot { return []Snapshot{snap} }, func(d []Due) { alerts <- d })
	p.Cooldown = 0

	ticks := make(chan time.Time)
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), ticks)
		close(done)
	}()

	ticks <- base
	ticks <- base.Add(10 * time.Second)
	close(ticks)
	<-done

	assert.Len(t, alerts, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ticks, stop := NewTicker(time.Hour)
	defer stop()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, ticks)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
