// Package timer derives elapsed and remaining time for a started task with an
// estimate. Everything here is pure: callers pass the current instant.
package timer

import (
	"fmt"
	"time"
)

// TwoMinuteWarning is the remaining-time boundary for the audible alert.
const TwoMinuteWarning = 120

// Phase is the qualitative timer state used for styling.
type Phase int

const (
	PhaseGoodPace Phase = iota
	PhaseHalfElapsed
	PhaseFinal
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseHalfElapsed:
		return "half_elapsed"
	case PhaseFinal:
		return "final"
	case PhaseExpired:
		return "expired"
	default:
		return "good_pace"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseGoodPace, PhaseHalfElapsed, PhaseFinal, PhaseExpired} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown timer phase %q", b)
}

// State is the timer snapshot for one task at one instant. All durations are
// whole seconds.
type State struct {
	ElapsedSeconds   int64
	TotalSeconds     int64
	RemainingSeconds int64
	Phase            Phase
	TwoMinuteWarning bool
}

// phaseRules are evaluated in order; the first match wins.
var phaseRules = []struct {
	phase Phase
	match func(remaining, total int64) bool
}{
	{PhaseExpired, func(remaining, _ int64) bool { return remaining == 0 }},
	{PhaseFinal, func(remaining, total int64) bool { return remaining*5 <= total }},
	{PhaseHalfElapsed, func(remaining, total int64) bool { return remaining*2 <= total }},
}

// Compute returns the timer state for a task started at startedAt with an
// estimate in minutes. ok is false when there is no timer to compute.
func Compute(startedAt time.Time, estimatedMinutes int, now time.Time) (State, bool) {
	if estimatedMinutes <= 0 || startedAt.IsZero() {
		return State{}, false
	}

	elapsed := int64(now.Sub(startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	total := int64(estimatedMinutes) * 60
	remaining := total - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return State{
		ElapsedSeconds:   elapsed,
		TotalSeconds:     total,
		RemainingSeconds: remaining,
		Phase:            PhaseFor(remaining, total),
		TwoMinuteWarning: remaining > 0 && remaining <= TwoMinuteWarning,
	}, true
}

// ForTask is Compute for nullable task fields.
func ForTask(startedAt *time.Time, estimatedMinutes *int, now time.Time) (State, bool) {
	if startedAt == nil || estimatedMinutes == nil {
		return State{}, false
	}
	return Compute(*startedAt, *estimatedMinutes, now)
}

// PhaseFor classifies remaining against total seconds.
func PhaseFor(remaining, total int64) Phase {
	for _, r := range phaseRules {
		if r.match(remaining, total) {
			return r.phase
		}
	}
	return PhaseGoodPace
}

// FormatRemaining renders seconds as HH:MM:SS, clamped at 00:00:00.
func FormatRemaining(seconds int64) string {
	if seconds <= 0 {
		return "00:00:00"
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatSpent renders accumulated time as "1h 2m 3s", "2m 3s" or "3s".
func FormatSpent(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
