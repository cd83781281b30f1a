// Package focus implements the focus session lifecycle: a pure transition
// function over State, and a Timer that hosts it and carries out its effects.
package focus

import (
	"errors"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

var (
	ErrNoCategorySelected = errors.New("no category selected")
	ErrInvalidTransition  = errors.New("invalid transition")
)

const (
	MinMinutes     = 1
	MaxMinutes     = 120
	DefaultMinutes = 25
)

type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDistracted
	StatusPaused
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusDistracted:
		return "distracted"
	case StatusPaused:
		return "paused"
	case StatusCompleted:
		return "completed"
	}
	return "unknown"
}

// Ticking reports whether the countdown advances in this status.
func (s Status) Ticking() bool {
	return s == StatusRunning || s == StatusDistracted
}

// State is a snapshot of one session. Transition never mutates its input.
type State struct {
	Status Status
	// Duration is the configured session length.
	Duration time.Duration

	SessionID   string
	CategoryID  string
	Description string
	StartTime   time.Time
	Remaining   time.Duration

	// The countdown is measured from ref, where refRemaining was left.
	ref          time.Time
	refRemaining time.Duration

	Distractions []store.Distraction
	// Open is the distraction in progress while Status is StatusDistracted.
	Open *store.Distraction

	// Session is set once Status is StatusCompleted.
	Session *store.Session
}

// NewState returns an idle state with the given session length, clamped to
// the allowed range.
func NewState(duration time.Duration) State {
	minutes, _ := ClampMinutes(int(duration / time.Minute))
	d := time.Duration(minutes) * time.Minute
	return State{
		Status:    StatusIdle,
		Duration:  d,
		Remaining: d,
	}
}

// ClampMinutes forces m into [MinMinutes, MaxMinutes] and reports whether it
// had to.
func ClampMinutes(m int) (int, bool) {
	switch {
	case m < MinMinutes:
		return MinMinutes, true
	case m > MaxMinutes:
		return MaxMinutes, true
	}
	return m, false
}

// ClampDuration forces d into [MinMinutes, MaxMinutes] minutes, keeping
// second precision, and reports whether it had to.
func ClampDuration(d time.Duration) (time.Duration, bool) {
	d = d.Truncate(time.Second)
	switch {
	case d < MinMinutes*time.Minute:
		return MinMinutes * time.Minute, true
	case d > MaxMinutes*time.Minute:
		return MaxMinutes * time.Minute, true
	}
	return d, false
}

// Event is an input to Transition.
type Event interface {
	isEvent()
}

// Start begins a session. Duration overrides the configured length when
// positive. SessionID is generated when empty.
type Start struct {
	SessionID   string
	CategoryID  string
	Description string
	Duration    time.Duration
}

type (
	Resume           struct{}
	Pause            struct{}
	BeginDistraction struct{}
	EndDistraction   struct{}
	Tick             struct{}
	Complete         struct{}
	Reset            struct{}
)

type SetDuration struct {
	Minutes int
}

func (Start) isEvent()            {}
func (Resume) isEvent()           {}
func (Pause) isEvent()            {}
func (BeginDistraction) isEvent() {}
func (EndDistraction) isEvent()   {}
func (Tick) isEvent()             {}
func (Complete) isEvent()         {}
func (Reset) isEvent()            {}
func (SetDuration) isEvent()      {}

// Effect is an instruction for the host, produced by Transition.
type Effect interface {
	isEffect()
}

type (
	ScheduleTick struct{}
	CancelTick   struct{}
)

// Persist asks the host to store the finished session.
type Persist struct {
	Session store.Session
}

// Notify asks the host to announce the finished session.
type Notify struct {
	Session store.Session
}

func (ScheduleTick) isEffect() {}
func (CancelTick) isEffect()   {}
func (Persist) isEffect()      {}
func (Notify) isEffect()       {}
