package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/clock"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/focus"
	"github.com/sadopc/tempo/internal/notify"
	"github.com/sadopc/tempo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	store    *store.Store
	clock    *clock.Fake
	notices  []string
	notifier *notify.Channel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return newFixtureWithStore(t, s)
}

func newFixtureWithStore(t *testing.T, s *store.Store) *fixture {
	t.Helper()
	f := &fixture{
		store:    s,
		clock:    clock.NewFake(epoch),
		notifier: notify.NewChannel(4),
	}
	f.svc = New(Options{
		Store:    s,
		Clock:    f.clock,
		Notifier: f.notifier,
		Warner:   WarnFunc(func(msg string) { f.notices = append(f.notices, msg) }),
		Location: time.UTC,
		Duration: 25 * time.Minute,
	})
	return f
}

type offlineBackend struct{}

func (offlineBackend) Get(context.Context, store.Kind, string) ([]byte, error) {
	return nil, errors.New("offline")
}
func (offlineBackend) Set(context.Context, store.Kind, string, []byte) error {
	return errors.New("offline")
}
func (offlineBackend) Ping(context.Context) error { return errors.New("offline") }
func (offlineBackend) Close() error               { return nil }

// parkingBackend holds the first stats write until release is closed.
type parkingBackend struct {
	*store.Memory
	held    atomic.Bool
	parked  chan struct{}
	release chan struct{}
}

func (b *parkingBackend) Set(ctx context.Context, kind store.Kind, key string, value []byte) error {
	if kind == store.KindStats && b.held.CompareAndSwap(false, true) {
		close(b.parked)
		<-b.release
	}
	return b.Memory.Set(ctx, kind, key, value)
}

func TestService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	work, err := f.svc.CreateCategory(ctx, "Work", "#ff0000")
	require.NoError(t, err)
	f.svc.Categories().Select(work.ID)

	require.NoError(t, f.svc.StartSelected(ctx, "quarterly report", 0))
	f.clock.Advance(300 * time.Second)
	require.NoError(t, f.svc.Timer().BeginDistraction())
	f.clock.Advance(60 * time.Second)
	require.NoError(t, f.svc.Timer().EndDistraction())
	f.clock.Advance(1140 * time.Second)

	sessions, err := f.svc.Sessions(ctx, "2026-05-04")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, work.ID, sessions[0].CategoryID)
	assert.Equal(t, "quarterly report", sessions[0].Description)
	assert.Equal(t, 1500.0, sessions[0].Duration)
	assert.Equal(t, 1440.0, sessions[0].EffectiveTime)

	// Stats were refreshed on write.
	cached, err := f.store.Stats(ctx, "2026-05-04")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 1500.0, cached.TotalTime)
	assert.Equal(t, 60.0, cached.DistractionTime)
	require.Len(t, cached.CategoryStats, 1)
	assert.Equal(t, 100.0, cached.CategoryStats[0].Percentage)

	require.Len(t, f.notifier.C(), 1)
	assert.Empty(t, f.notices)
	assert.Equal(t, focus.StatusIdle, f.svc.Timer().State().Status)
}

func TestService_StartSelected(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing selected", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.StartSelected(ctx, "", 0)
		assert.ErrorIs(t, err, focus.ErrNoCategorySelected)
		assert.Equal(t, focus.StatusIdle, f.svc.Timer().State().Status)
	})

	t.Run("unknown selection", func(t *testing.T) {
		f := newFixture(t)
		f.svc.Categories().Select("deleted")
		err := f.svc.StartSelected(ctx, "", 0)
		assert.ErrorIs(t, err, focus.ErrNoCategorySelected)
	})

	t.Run("storage unavailable is not a missing selection", func(t *testing.T) {
		f := newFixtureWithStore(t, store.Wrap(offlineBackend{}, store.Options{FailureThreshold: 100}))
		f.svc.Categories().Select("c1")

		err := f.svc.StartSelected(ctx, "", 0)
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.NotErrorIs(t, err, focus.ErrNoCategorySelected)
		assert.Equal(t, focus.StatusIdle, f.svc.Timer().State().Status)
		assert.Equal(t, []string{"Session could not be started (storage unavailable)"}, f.notices)
	})

	t.Run("custom duration", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.svc.CreateCategory(ctx, "Work", "")
		require.NoError(t, err)
		f.svc.Categories().Select(c.ID)

		require.NoError(t, f.svc.StartSelected(ctx, "", 90*time.Second))
		assert.Equal(t, 90*time.Second, f.svc.Timer().State().Remaining)
	})

	t.Run("resumes when paused", func(t *testing.T) {
		f := newFixture(t)
		c, err := f.svc.CreateCategory(ctx, "Work", "")
		require.NoError(t, err)
		f.svc.Categories().Select(c.ID)

		require.NoError(t, f.svc.StartSelected(ctx, "", 0))
		require.NoError(t, f.svc.Timer().Pause())
		f.svc.Categories().Select("")

		require.NoError(t, f.svc.StartSelected(ctx, "", 0))
		assert.Equal(t, focus.StatusRunning, f.svc.Timer().State().Status)
		assert.Equal(t, c.ID, f.svc.Timer().State().CategoryID)
	})
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sess := store.Session{
		ID:            "s1",
		CategoryID:    "C1",
		StartTime:     epoch,
		EndTime:       epoch.Add(time.Hour),
		Duration:      3600,
		Distractions:  []store.Distraction{},
		EffectiveTime: 3600,
	}

	require.NoError(t, f.svc.Record(ctx, sess))
	require.NoError(t, f.svc.Record(ctx, sess))

	sessions, err := f.svc.Sessions(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, []store.Session{sess}, sessions)

	st, err := f.svc.Stats(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, 3600.0, st.TotalTime)
}

func TestService_StatsLoadDoesNotOverwriteNewerSession(t *testing.T) {
	ctx := context.Background()
	backend := &parkingBackend{
		Memory:  store.NewMemoryBackend(),
		parked:  make(chan struct{}),
		release: make(chan struct{}),
	}
	s := store.Wrap(backend, store.DefaultOptions())
	t.Cleanup(func() { s.Close() })
	f := newFixtureWithStore(t, s)

	// A view loader computes the empty day and stalls before caching it.
	loaded := make(chan struct{})
	go func() {
		defer close(loaded)
		_, _ = f.svc.Stats(ctx, "2026-05-04")
	}()
	<-backend.parked

	recorded := make(chan error, 1)
	go func() {
		recorded <- f.svc.Record(ctx, store.Session{
			ID:            "s1",
			CategoryID:    "C1",
			StartTime:     epoch,
			EndTime:       epoch.Add(25 * time.Minute),
			Duration:      1500,
			EffectiveTime: 1500,
		})
	}()
	time.Sleep(50 * time.Millisecond)
	close(backend.release)

	<-loaded
	require.NoError(t, <-recorded)

	cached, err := f.store.Stats(ctx, "2026-05-04")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, 1500.0, cached.TotalTime)
}

func TestService_RefreshStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.PutCategories(ctx, []store.Category{{ID: "C1", Name: "Work"}}))

	// Written behind the service's back: the cache is stale until refreshed.
	_, err := f.store.UpsertSession(ctx, store.Session{ID: "s1", CategoryID: "C1", StartTime: epoch, Duration: 100, EffectiveTime: 100}, time.UTC)
	require.NoError(t, err)
	require.NoError(t, f.store.PutStats(ctx, store.DailyStats{Date: "2026-05-04", CategoryStats: []store.CategoryStats{}}))

	st, err := f.svc.Stats(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.TotalTime)

	st, err = f.svc.RefreshStats(ctx, "2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, 100.0, st.TotalTime)
}

func TestService_Ranges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i, id := range []string{"a", "b"} {
		start := epoch.AddDate(0, 0, i)
		require.NoError(t, f.svc.Record(ctx, store.Session{ID: id, CategoryID: "C1", StartTime: start, EndTime: start.Add(time.Minute), Duration: 60, EffectiveTime: 60}))
	}

	sessions, err := f.svc.SessionsRange(ctx, "2026-05-03", "2026-05-05")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].ID)
	assert.Equal(t, "b", sessions[1].ID)

	days, err := f.svc.StatsRange(ctx, "2026-05-04", "2026-05-05")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 60.0, days[1].TotalTime)
}

func TestService_Unavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixtureWithStore(t, store.Wrap(offlineBackend{}, store.Options{FailureThreshold: 100}))

	assert.False(t, f.svc.Available(ctx))

	list, err := f.svc.ListCategories(ctx)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Empty(t, list)

	_, err = f.svc.CreateCategory(ctx, "Work", "")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = f.svc.Record(ctx, store.Session{ID: "s1", StartTime: epoch})
	assert.ErrorIs(t, err, store.ErrUnavailable)

	st, err := f.svc.Stats(ctx, "2026-05-04")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, store.Day("2026-05-04"), st.Date)

	require.Len(t, f.notices, 4)
	assert.Equal(t, "Categories could not be loaded (storage unavailable)", f.notices[0])
	assert.Equal(t, "Session could not be saved (storage unavailable)", f.notices[2])
}

func TestService_ValidationErrorsAreNotWarned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateCategory(ctx, "Work", "")
	require.NoError(t, err)
	_, err = f.svc.CreateCategory(ctx, "WORK", "")
	assert.Error(t, err)
	assert.Empty(t, f.notices)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, degraded, err := OpenStore(ctx, &config.Config{StoreDriver: config.DriverMemory, BreakerFailures: 3}, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.False(t, degraded)
		assert.True(t, s.Available(ctx))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{StoreDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "tempo.db"), BreakerFailures: 3}
		s, degraded, err := OpenStore(ctx, cfg, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.False(t, degraded)
	})

	t.Run("unreachable redis degrades to memory", func(t *testing.T) {
		cfg := &config.Config{StoreDriver: config.DriverRedis, RedisURL: "redis://127.0.0.1:1/0", BreakerFailures: 3}
		s, degraded, err := OpenStore(ctx, cfg, nil)
		require.NoError(t, err)
		defer s.Close()
		assert.True(t, degraded)
		assert.True(t, s.Available(ctx))
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := OpenStore(ctx, &config.Config{StoreDriver: "etcd"}, nil)
		assert.Error(t, err)
	})
}
