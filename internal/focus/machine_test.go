package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

// step applies ev and fails the test on error.
func step(t *testing.T, s State, ev Event, now time.Time) (State, []Effect) {
	t.Helper()
	next, effects, err := Transition(s, ev, now)
	require.NoError(t, err)
	return next, effects
}

func started(t *testing.T) State {
	t.Helper()
	s, _ := step(t, NewState(25*time.Minute), Start{SessionID: "s1", CategoryID: "C1"}, t0)
	return s
}

func TestTransition_Start(t *testing.T) {
	t.Run("captures start and schedules tick", func(t *testing.T) {
		s, effects := step(t, NewState(25*time.Minute), Start{CategoryID: "C1", Description: "report"}, t0)

		assert.Equal(t, StatusRunning, s.Status)
		assert.Equal(t, t0, s.StartTime)
		assert.Equal(t, 25*time.Minute, s.Remaining)
		assert.Equal(t, "C1", s.CategoryID)
		assert.Equal(t, "report", s.Description)
		assert.NotEmpty(t, s.SessionID)
		assert.Empty(t, s.Distractions)
		assert.Equal(t, []Effect{ScheduleTick{}}, effects)
	})

	t.Run("no category is rejected and state stays idle", func(t *testing.T) {
		idle := NewState(25 * time.Minute)
		s, effects, err := Transition(idle, Start{}, t0)

		assert.ErrorIs(t, err, ErrNoCategorySelected)
		assert.Equal(t, idle, s)
		assert.Equal(t, StatusIdle, s.Status)
		assert.Empty(t, effects)
	})

	t.Run("duration override is clamped", func(t *testing.T) {
		s, _ := step(t, NewState(25*time.Minute), Start{CategoryID: "C1", Duration: 5 * time.Hour}, t0)
		assert.Equal(t, 120*time.Minute, s.Duration)
		assert.Equal(t, 120*time.Minute, s.Remaining)
	})

	t.Run("duration override keeps seconds", func(t *testing.T) {
		s, _ := step(t, NewState(25*time.Minute), Start{CategoryID: "C1", Duration: 90 * time.Second}, t0)
		assert.Equal(t, 90*time.Second, s.Duration)
		assert.Equal(t, 90*time.Second, s.Remaining)
		assert.Equal(t, "01:30", Display(s).Clock())
	})

	t.Run("short override is raised to the minimum", func(t *testing.T) {
		s, _ := step(t, NewState(25*time.Minute), Start{CategoryID: "C1", Duration: 30 * time.Second}, t0)
		assert.Equal(t, time.Minute, s.Duration)
	})

	t.Run("start while running is rejected", func(t *testing.T) {
		s := started(t)
		next, effects, err := Transition(s, Start{CategoryID: "C2"}, at(10))
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, s, next)
		assert.Empty(t, effects)
	})

	t.Run("start while paused resumes", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Pause{}, at(100))
		s, effects := step(t, s, Start{CategoryID: "C2"}, at(200))

		assert.Equal(t, StatusRunning, s.Status)
		assert.Equal(t, "C1", s.CategoryID)
		assert.Equal(t, t0, s.StartTime)
		assert.Equal(t, 1400*time.Second, s.Remaining)
		assert.Equal(t, []Effect{ScheduleTick{}}, effects)
	})
}

func TestTransition_PauseResume(t *testing.T) {
	s := started(t)

	s, effects := step(t, s, Pause{}, at(100))
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, 1400*time.Second, s.Remaining)
	assert.Equal(t, []Effect{CancelTick{}}, effects)

	// Time spent paused does not count down.
	s, effects = step(t, s, Resume{}, at(1000))
	assert.Equal(t, StatusRunning, s.Status)
	assert.Equal(t, []Effect{ScheduleTick{}}, effects)

	s, _ = step(t, s, Tick{}, at(1100))
	assert.Equal(t, 1300*time.Second, s.Remaining)
	assert.Equal(t, t0, s.StartTime)
}

func TestTransition_Distraction(t *testing.T) {
	s := started(t)

	s, effects := step(t, s, BeginDistraction{}, at(300))
	assert.Equal(t, StatusDistracted, s.Status)
	require.NotNil(t, s.Open)
	assert.Equal(t, at(300), s.Open.StartTime)
	assert.Empty(t, effects)

	t.Run("pause while distracted is rejected", func(t *testing.T) {
		_, _, err := Transition(s, Pause{}, at(310))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("second begin is rejected", func(t *testing.T) {
		_, _, err := Transition(s, BeginDistraction{}, at(310))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	// The countdown keeps running while distracted.
	s, _ = step(t, s, Tick{}, at(330))
	assert.Equal(t, 1170*time.Second, s.Remaining)

	s, _ = step(t, s, EndDistraction{}, at(360))
	assert.Equal(t, StatusRunning, s.Status)
	assert.Nil(t, s.Open)
	require.Len(t, s.Distractions, 1)
	assert.Equal(t, 60.0, s.Distractions[0].Duration)
	require.NotNil(t, s.Distractions[0].EndTime)
	assert.Equal(t, at(360), *s.Distractions[0].EndTime)
}

func TestTransition_DistractionNotAllowedWhilePaused(t *testing.T) {
	s := started(t)
	s, _ = step(t, s, Pause{}, at(10))

	next, effects, err := Transition(s, BeginDistraction{}, at(20))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, s, next)
	assert.Empty(t, effects)
}

func TestTransition_Tick(t *testing.T) {
	t.Run("tolerates jitter", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Tick{}, t0.Add(1100*time.Millisecond))
		assert.Equal(t, 1500*time.Second-1100*time.Millisecond, s.Remaining)
		assert.Equal(t, 24, Display(s).Minutes)
		assert.Equal(t, 58, Display(s).Seconds)
	})

	t.Run("missed ticks catch up", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Tick{}, at(600))
		assert.Equal(t, 900*time.Second, s.Remaining)
	})

	t.Run("reaching zero completes", func(t *testing.T) {
		s := started(t)
		s, effects := step(t, s, Tick{}, at(1500))
		assert.Equal(t, StatusCompleted, s.Status)
		require.NotNil(t, s.Session)
		require.Len(t, effects, 3)
		assert.Equal(t, CancelTick{}, effects[0])
	})

	t.Run("tick while idle is rejected", func(t *testing.T) {
		_, _, err := Transition(NewState(time.Minute), Tick{}, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTransition_Complete(t *testing.T) {
	t.Run("no distractions", func(t *testing.T) {
		s := started(t)
		s, effects := step(t, s, Complete{}, at(1500))

		sess := s.Session
		require.NotNil(t, sess)
		assert.Equal(t, "s1", sess.ID)
		assert.Equal(t, "C1", sess.CategoryID)
		assert.Equal(t, 1500.0, sess.Duration)
		assert.Equal(t, 1500.0, sess.EffectiveTime)
		assert.NotNil(t, sess.Distractions)
		assert.Empty(t, sess.Distractions)
		assert.Equal(t, []Effect{CancelTick{}, Persist{Session: *sess}, Notify{Session: *sess}}, effects)
	})

	t.Run("one closed distraction", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, BeginDistraction{}, at(300))
		s, _ = step(t, s, EndDistraction{}, at(360))
		s, _ = step(t, s, Complete{}, at(1500))

		sess := s.Session
		assert.Equal(t, 1500.0, sess.Duration)
		assert.Equal(t, 1440.0, sess.EffectiveTime)
		require.Len(t, sess.Distractions, 1)
		assert.Equal(t, 60.0, sess.Distractions[0].Duration)
	})

	t.Run("open distraction is closed at completion", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, BeginDistraction{}, at(1400))
		s, _ = step(t, s, Tick{}, at(1500))

		require.Equal(t, StatusCompleted, s.Status)
		sess := s.Session
		require.Len(t, sess.Distractions, 1)
		assert.Equal(t, at(1500), *sess.Distractions[0].EndTime)
		assert.Equal(t, 100.0, sess.Distractions[0].Duration)
		assert.Equal(t, 1400.0, sess.EffectiveTime)
	})

	t.Run("early finish records elapsed time", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Complete{}, at(600))
		assert.Equal(t, 600.0, s.Session.Duration)
		assert.Equal(t, 900*time.Second, s.Remaining)
	})

	t.Run("duration is wall time including pauses", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Pause{}, at(100))
		s, _ = step(t, s, Resume{}, at(400))
		s, _ = step(t, s, Tick{}, at(1800))

		require.Equal(t, StatusCompleted, s.Status)
		assert.Equal(t, 1800.0, s.Session.Duration)
	})

	t.Run("complete while paused is rejected", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Pause{}, at(100))
		_, _, err := Transition(s, Complete{}, at(200))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("completed is terminal", func(t *testing.T) {
		s := started(t)
		s, _ = step(t, s, Complete{}, at(10))
		for _, ev := range []Event{Start{CategoryID: "C1"}, Pause{}, Resume{}, Tick{}, Complete{}, Reset{}, BeginDistraction{}} {
			_, _, err := Transition(s, ev, at(20))
			assert.ErrorIs(t, err, ErrInvalidTransition, "%T", ev)
		}
	})
}

func TestTransition_SessionTotals(t *testing.T) {
	s := started(t)
	s, _ = step(t, s, BeginDistraction{}, at(100))
	s, _ = step(t, s, EndDistraction{}, at(145))
	s, _ = step(t, s, BeginDistraction{}, t0.Add(700*time.Millisecond+600*time.Second))
	s, _ = step(t, s, EndDistraction{}, t0.Add(300*time.Millisecond+700*time.Second))
	s, _ = step(t, s, Complete{}, t0.Add(250*time.Millisecond+1200*time.Second))

	sess := s.Session
	assert.InDelta(t, sess.EndTime.Sub(sess.StartTime).Seconds(), sess.Duration, 1e-9)
	assert.InDelta(t, sess.Duration-sess.DistractionTime(), sess.EffectiveTime, 1e-9)
	assert.GreaterOrEqual(t, sess.EffectiveTime, 0.0)
}

func TestTransition_Reset(t *testing.T) {
	for _, name := range []string{"running", "distracted", "paused"} {
		t.Run(name, func(t *testing.T) {
			s := started(t)
			switch name {
			case "distracted":
				s, _ = step(t, s, BeginDistraction{}, at(10))
			case "paused":
				s, _ = step(t, s, Pause{}, at(10))
			}
			s, effects := step(t, s, Reset{}, at(20))
			assert.Equal(t, NewState(25*time.Minute), s)
			assert.Equal(t, []Effect{CancelTick{}}, effects)
		})
	}

	t.Run("idle is rejected", func(t *testing.T) {
		_, _, err := Transition(NewState(time.Minute), Reset{}, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTransition_SetDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    time.Duration
	}{
		{30, 30 * time.Minute},
		{0, time.Minute},
		{-5, time.Minute},
		{500, 120 * time.Minute},
	}
	for _, tt := range tests {
		s, effects := step(t, NewState(25*time.Minute), SetDuration{Minutes: tt.minutes}, t0)
		assert.Equal(t, tt.want, s.Duration)
		assert.Equal(t, tt.want, s.Remaining)
		assert.Empty(t, effects)
	}

	t.Run("only while idle", func(t *testing.T) {
		_, _, err := Transition(started(t), SetDuration{Minutes: 10}, at(1))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		in      time.Duration
		want    time.Duration
		clamped bool
	}{
		{90 * time.Second, 90 * time.Second, false},
		{25*time.Minute + 1500*time.Millisecond, 25*time.Minute + time.Second, false},
		{30 * time.Second, time.Minute, true},
		{121 * time.Minute, 120 * time.Minute, true},
	}
	for _, tc := range tests {
		t.Run(tc.in.String(), func(t *testing.T) {
			got, clamped := ClampDuration(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.clamped, clamped)
		})
	}
}

func TestClampMinutes(t *testing.T) {
	m, clamped := ClampMinutes(25)
	assert.Equal(t, 25, m)
	assert.False(t, clamped)

	m, clamped = ClampMinutes(0)
	assert.Equal(t, 1, m)
	assert.True(t, clamped)

	m, clamped = ClampMinutes(121)
	assert.Equal(t, 120, m)
	assert.True(t, clamped)
}

func TestDisplay(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		v := Display(NewState(25 * time.Minute))
		assert.Equal(t, "25:00", v.Clock())
		assert.Equal(t, Controls{Start: true, EditDuration: true}, v.Controls)
	})

	t.Run("running", func(t *testing.T) {
		v := Display(started(t))
		assert.Equal(t, StatusRunning, v.Status)
		assert.Equal(t, Controls{Pause: true, Distraction: true, Complete: true, Reset: true}, v.Controls)
	})

	t.Run("paused", func(t *testing.T) {
		s, _ := step(t, started(t), Pause{}, at(61))
		v := Display(s)
		assert.Equal(t, "23:59", v.Clock())
		assert.Equal(t, Controls{Start: true, Resume: true, Reset: true}, v.Controls)
	})

	t.Run("negative remaining shows zero", func(t *testing.T) {
		s := NewState(time.Minute)
		s.Remaining = -3 * time.Second
		assert.Equal(t, "00:00", Display(s).Clock())
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "distracted", StatusDistracted.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "unknown", Status(99).String())
}
