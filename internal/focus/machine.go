package focus

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/tempo/internal/store"
)

// Transition applies ev to s at time now. On error the returned state is s
// unchanged and there are no effects.
func Transition(s State, ev Event, now time.Time) (State, []Effect, error) {
	switch ev := ev.(type) {
	case Start:
		if s.Status == StatusPaused {
			return resume(s, now)
		}
		if s.Status != StatusIdle {
			return reject(s, ev)
		}
		return start(s, ev, now)

	case Resume:
		if s.Status != StatusPaused {
			return reject(s, ev)
		}
		return resume(s, now)

	case Pause:
		if s.Status != StatusRunning {
			return reject(s, ev)
		}
		next := s
		next.Remaining = s.countdown(now)
		next.Status = StatusPaused
		return next, []Effect{CancelTick{}}, nil

	case BeginDistraction:
		if s.Status != StatusRunning {
			return reject(s, ev)
		}
		next := s
		next.Status = StatusDistracted
		next.Open = &store.Distraction{StartTime: now}
		return next, nil, nil

	case EndDistraction:
		if s.Status != StatusDistracted {
			return reject(s, ev)
		}
		next := s
		next.Distractions = closeDistraction(s.Distractions, s.Open, now)
		next.Open = nil
		next.Status = StatusRunning
		return next, nil, nil

	case Tick:
		if !s.Status.Ticking() {
			return reject(s, ev)
		}
		remaining := s.countdown(now)
		if remaining <= 0 {
			return complete(s, now)
		}
		next := s
		next.Remaining = remaining
		return next, nil, nil

	case Complete:
		if !s.Status.Ticking() {
			return reject(s, ev)
		}
		return complete(s, now)

	case Reset:
		switch s.Status {
		case StatusRunning, StatusDistracted, StatusPaused:
			return NewState(s.Duration), []Effect{CancelTick{}}, nil
		}
		return reject(s, ev)

	case SetDuration:
		if s.Status != StatusIdle {
			return reject(s, ev)
		}
		minutes, _ := ClampMinutes(ev.Minutes)
		return NewState(time.Duration(minutes) * time.Minute), nil, nil
	}
	return s, nil, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func reject(s State, ev Event) (State, []Effect, error) {
	return s, nil, fmt.Errorf("%w: %T while %s", ErrInvalidTransition, ev, s.Status)
}

func start(s State, ev Start, now time.Time) (State, []Effect, error) {
	if ev.CategoryID == "" {
		return s, nil, ErrNoCategorySelected
	}
	duration := s.Duration
	if ev.Duration > 0 {
		duration, _ = ClampDuration(ev.Duration)
	}
	id := ev.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	next := State{
		Status:       StatusRunning,
		Duration:     duration,
		SessionID:    id,
		CategoryID:   ev.CategoryID,
		Description:  ev.Description,
		StartTime:    now,
		Remaining:    duration,
		ref:          now,
		refRemaining: duration,
	}
	return next, []Effect{ScheduleTick{}}, nil
}

func resume(s State, now time.Time) (State, []Effect, error) {
	next := s
	next.Status = StatusRunning
	next.ref = now
	next.refRemaining = s.Remaining
	return next, []Effect{ScheduleTick{}}, nil
}

func complete(s State, now time.Time) (State, []Effect, error) {
	distractions := s.Distractions
	if s.Open != nil {
		distractions = closeDistraction(distractions, s.Open, now)
	}
	if distractions == nil {
		distractions = []store.Distraction{}
	}

	elapsed := now.Sub(s.StartTime)
	effective := elapsed
	for _, d := range distractions {
		effective -= d.EndTime.Sub(d.StartTime)
	}

	sess := store.Session{
		ID:            s.SessionID,
		CategoryID:    s.CategoryID,
		Description:   s.Description,
		StartTime:     s.StartTime,
		EndTime:       now,
		Duration:      elapsed.Seconds(),
		Distractions:  distractions,
		EffectiveTime: effective.Seconds(),
	}

	next := s
	next.Status = StatusCompleted
	next.Distractions = distractions
	next.Open = nil
	next.Remaining = max(0, s.countdown(now))
	next.Session = &sess
	return next, []Effect{CancelTick{}, Persist{Session: sess}, Notify{Session: sess}}, nil
}

// closeDistraction returns a new slice with open closed at now and appended.
func closeDistraction(closed []store.Distraction, open *store.Distraction, now time.Time) []store.Distraction {
	end := now
	d := store.Distraction{
		StartTime: open.StartTime,
		EndTime:   &end,
		Duration:  now.Sub(open.StartTime).Seconds(),
	}
	out := make([]store.Distraction, len(closed), len(closed)+1)
	copy(out, closed)
	return append(out, d)
}

// countdown is the time left at now, measured from the last (re)start.
func (s State) countdown(now time.Time) time.Duration {
	return s.refRemaining - now.Sub(s.ref)
}
