// Package clock provides the time source and tick scheduling used by the
// focus timer. Callbacks never run on their own goroutine: the owner calls
// Pump (or Advance on a Fake) and due callbacks fire synchronously.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a scheduled tick. The zero Handle is never issued.
type Handle uint64

// Clock is a time source that can schedule a repeating tick.
type Clock interface {
	Now() time.Time
	ScheduleTick(interval time.Duration, fn func()) Handle
	Cancel(h Handle)
}

type tick struct {
	interval time.Duration
	next     time.Time
	fn       func()
}

type scheduler struct {
	mu    sync.Mutex
	seq   Handle
	ticks map[Handle]*tick
}

func (s *scheduler) schedule(now time.Time, interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		interval = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticks == nil {
		s.ticks = make(map[Handle]*tick)
	}
	s.seq++
	s.ticks[s.seq] = &tick{interval: interval, next: now.Add(interval), fn: fn}
	return s.seq
}

func (s *scheduler) cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ticks, h)
}

func (s *scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

// fire runs every callback due at now, at most once each, in scheduling
// order. A tick that fell several intervals behind fires once and is
// rescheduled from now.
func (s *scheduler) fire(now time.Time) int {
	s.mu.Lock()
	var due []Handle
	for h, t := range s.ticks {
		if !now.Before(t.next) {
			due = append(due, h)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	s.mu.Unlock()

	fired := 0
	for _, h := range due {
		s.mu.Lock()
		t, ok := s.ticks[h]
		if ok {
			t.next = t.next.Add(t.interval)
			if !now.Before(t.next) {
				t.next = now.Add(t.interval)
			}
		}
		s.mu.Unlock()
		// Cancelled by an earlier callback in this pass.
		if !ok {
			continue
		}
		t.fn()
		fired++
	}
	return fired
}

// Loop is the wall-clock implementation.
type Loop struct {
	sched scheduler
}

func NewLoop() *Loop {
	return &Loop{}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) ScheduleTick(interval time.Duration, fn func()) Handle {
	return l.sched.schedule(time.Now(), interval, fn)
}

func (l *Loop) Cancel(h Handle) { l.sched.cancel(h) }

// Pump fires the due callbacks and returns how many ran.
func (l *Loop) Pump() int {
	return l.sched.fire(time.Now())
}

// Pending returns the number of scheduled ticks.
func (l *Loop) Pending() int { return l.sched.pending() }

// Fake is a manually driven clock for tests.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	sched scheduler
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) ScheduleTick(interval time.Duration, fn func()) Handle {
	return f.sched.schedule(f.Now(), interval, fn)
}

func (f *Fake) Cancel(h Handle) { f.sched.cancel(h) }

// Advance moves the clock forward by d and fires the callbacks that are due.
// A jump across several intervals fires each tick only once.
func (f *Fake) Advance(d time.Duration) int {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	f.mu.Unlock()
	return f.sched.fire(now)
}

// Step advances one interval at a time until d has elapsed, firing due
// callbacks after each step.
func (f *Fake) Step(d, interval time.Duration) int {
	fired := 0
	for elapsed := time.Duration(0); elapsed < d; elapsed += interval {
		step := interval
		if d-elapsed < step {
			step = d - elapsed
		}
		fired += f.Advance(step)
	}
	return fired
}

func (f *Fake) Pending() int { return f.sched.pending() }
