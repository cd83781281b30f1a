package focus

import (
	"context"
	"log/slog"
	"time"

	"github.com/sadopc/tempo/internal/clock"
	"github.com/sadopc/tempo/internal/store"
)

// Persister stores a completed session.
type Persister interface {
	Persist(ctx context.Context, sess store.Session) error
}

// Notifier announces a completed session. Implementations must not block.
type Notifier interface {
	SessionCompleted(sess store.Session)
}

type Config struct {
	Duration     time.Duration
	TickInterval time.Duration
	Logger       *slog.Logger
}

// Timer hosts one session at a time. It is owned by a single goroutine: the
// clock fires tick callbacks from that same goroutine, so Timer has no locks.
type Timer struct {
	clock     clock.Clock
	persister Persister
	notifier  Notifier
	interval  time.Duration
	logger    *slog.Logger

	state State
	// length is the configured session length. A Start may override it for
	// one session only.
	length time.Duration
	handle clock.Handle
	last   *store.Session
}

// NewTimer returns an idle timer. persister and notifier may be nil.
func NewTimer(cfg Config, c clock.Clock, p Persister, n Notifier) *Timer {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultMinutes * time.Minute
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	state := NewState(cfg.Duration)
	return &Timer{
		clock:     c,
		persister: p,
		notifier:  n,
		interval:  cfg.TickInterval,
		logger:    cfg.Logger,
		state:     state,
		length:    state.Duration,
	}
}

// Start begins a session in categoryID, or resumes a paused one. A zero
// duration uses the configured length.
func (t *Timer) Start(categoryID, description string, duration time.Duration) error {
	return t.apply(Start{CategoryID: categoryID, Description: description, Duration: duration})
}

func (t *Timer) Resume() error           { return t.apply(Resume{}) }
func (t *Timer) Pause() error            { return t.apply(Pause{}) }
func (t *Timer) BeginDistraction() error { return t.apply(BeginDistraction{}) }
func (t *Timer) EndDistraction() error   { return t.apply(EndDistraction{}) }
func (t *Timer) Reset() error            { return t.apply(Reset{}) }

// Complete finishes the current session early.
func (t *Timer) Complete() error { return t.apply(Complete{}) }

// ToggleDistraction begins or ends a distraction depending on the state.
func (t *Timer) ToggleDistraction() error {
	if t.state.Status == StatusDistracted {
		return t.EndDistraction()
	}
	return t.BeginDistraction()
}

// TogglePause pauses a running session or resumes a paused one.
func (t *Timer) TogglePause() error {
	if t.state.Status == StatusPaused {
		return t.Resume()
	}
	return t.Pause()
}

// SetDuration sets the session length in minutes, clamped to the allowed
// range. It returns the applied value and whether clamping occurred.
func (t *Timer) SetDuration(minutes int) (int, bool, error) {
	applied, clamped := ClampMinutes(minutes)
	if err := t.apply(SetDuration{Minutes: applied}); err != nil {
		return t.Minutes(), false, err
	}
	t.length = t.state.Duration
	return applied, clamped, nil
}

// Minutes is the configured session length.
func (t *Timer) Minutes() int {
	return int(t.length / time.Minute)
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) Display() View {
	return Display(t.state)
}

// LastSession returns the most recently completed session.
func (t *Timer) LastSession() (store.Session, bool) {
	if t.last == nil {
		return store.Session{}, false
	}
	return *t.last, true
}

func (t *Timer) now() time.Time {
	return t.clock.Now().UTC().Truncate(time.Millisecond)
}

func (t *Timer) apply(ev Event) error {
	next, effects, err := Transition(t.state, ev, t.now())
	if err != nil {
		return err
	}
	t.state = next

	for _, eff := range effects {
		switch eff := eff.(type) {
		case ScheduleTick:
			t.cancelTick()
			var h clock.Handle
			h = t.clock.ScheduleTick(t.interval, func() { t.onTick(h) })
			t.handle = h
		case CancelTick:
			t.cancelTick()
		case Persist:
			t.persist(eff.Session)
		case Notify:
			if t.notifier != nil {
				t.notifier.SessionCompleted(eff.Session)
			}
		}
	}

	if t.state.Status == StatusCompleted {
		sess := *t.state.Session
		t.last = &sess
		t.state = NewState(t.length)
	}
	if _, ok := ev.(Reset); ok {
		t.state = NewState(t.length)
	}
	return nil
}

func (t *Timer) persist(sess store.Session) {
	if t.persister == nil {
		return
	}
	// The session is finished either way; the persister reports its own
	// failures to the user.
	if err := t.persister.Persist(context.Background(), sess); err != nil {
		t.logger.Error("persist session failed", "session_id", sess.ID, "error", err)
	}
}

func (t *Timer) cancelTick() {
	if t.handle != 0 {
		t.clock.Cancel(t.handle)
		t.handle = 0
	}
}

func (t *Timer) onTick(h clock.Handle) {
	if h == 0 || h != t.handle {
		return
	}
	if err := t.apply(Tick{}); err != nil {
		t.logger.Debug("tick ignored", "status", t.state.Status.String(), "error", err)
	}
}
