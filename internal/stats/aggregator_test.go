package stats

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sadopc/tempo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = store.Day("2026-04-01")

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, nil), s
}

func session(id, categoryID string, startHour int, duration, distraction float64) store.Session {
	start := time.Date(2026, 4, 1, startHour, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(duration) * time.Second)
	sess := store.Session{
		ID:            id,
		CategoryID:    categoryID,
		StartTime:     start,
		EndTime:       end,
		Duration:      duration,
		Distractions:  []store.Distraction{},
		EffectiveTime: duration - distraction,
	}
	if distraction > 0 {
		dEnd := start.Add(time.Duration(distraction) * time.Second)
		sess.Distractions = append(sess.Distractions, store.Distraction{
			StartTime: start,
			EndTime:   &dEnd,
			Duration:  distraction,
		})
	}
	return sess
}

var twoCategories = []store.Category{
	{ID: "C1", Name: "Work", Color: "#ff0000"},
	{ID: "C2", Name: "Study", Color: "#00ff00"},
}

func seed(t *testing.T, s *store.Store, categories []store.Category, sessions ...store.Session) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.PutCategories(ctx, categories))
	for _, sess := range sessions {
		_, err := s.UpsertSession(ctx, sess, time.UTC)
		require.NoError(t, err)
	}
}

func TestReduce(t *testing.T) {
	t.Run("two categories sorted by total time", func(t *testing.T) {
		st := Reduce(day, []store.Session{
			session("a", "C1", 9, 1000, 0),
			session("b", "C2", 10, 2000, 500),
		}, twoCategories)

		assert.Equal(t, day, st.Date)
		assert.Equal(t, 3000.0, st.TotalTime)
		assert.Equal(t, 2500.0, st.EffectiveTime)
		assert.Equal(t, 500.0, st.DistractionTime)

		require.Len(t, st.CategoryStats, 2)
		assert.Equal(t, store.CategoryStats{
			CategoryID: "C2", Name: "Study", Color: "#00ff00",
			TotalTime: 2000, EffectiveTime: 1500, DistractionTime: 500, Percentage: 66.7,
		}, st.CategoryStats[0])
		assert.Equal(t, store.CategoryStats{
			CategoryID: "C1", Name: "Work", Color: "#ff0000",
			TotalTime: 1000, EffectiveTime: 1000, DistractionTime: 0, Percentage: 33.3,
		}, st.CategoryStats[1])
	})

	t.Run("no sessions", func(t *testing.T) {
		st := Reduce(day, nil, twoCategories)
		assert.Equal(t, Empty(day), st)
		assert.NotNil(t, st.CategoryStats)
	})

	t.Run("zero-time categories are omitted", func(t *testing.T) {
		st := Reduce(day, []store.Session{session("a", "C1", 9, 600, 0)}, twoCategories)
		require.Len(t, st.CategoryStats, 1)
		assert.Equal(t, "C1", st.CategoryStats[0].CategoryID)
		assert.Equal(t, 100.0, st.CategoryStats[0].Percentage)
	})

	t.Run("ties keep category order", func(t *testing.T) {
		st := Reduce(day, []store.Session{
			session("a", "C2", 9, 600, 0),
			session("b", "C1", 10, 600, 0),
		}, twoCategories)
		require.Len(t, st.CategoryStats, 2)
		assert.Equal(t, "C1", st.CategoryStats[0].CategoryID)
		assert.Equal(t, "C2", st.CategoryStats[1].CategoryID)
	})

	t.Run("unknown category counts toward totals only", func(t *testing.T) {
		st := Reduce(day, []store.Session{
			session("a", "C1", 9, 600, 0),
			session("b", "gone", 10, 600, 100),
		}, twoCategories)
		assert.Equal(t, 1200.0, st.TotalTime)
		assert.Equal(t, 100.0, st.DistractionTime)
		require.Len(t, st.CategoryStats, 1)
		assert.Equal(t, 50.0, st.CategoryStats[0].Percentage)
	})

	t.Run("percentages sum to about 100", func(t *testing.T) {
		categories := []store.Category{
			{ID: "A", Name: "A"}, {ID: "B", Name: "B"}, {ID: "C", Name: "C"},
		}
		st := Reduce(day, []store.Session{
			session("1", "A", 8, 1000, 0),
			session("2", "B", 9, 1000, 0),
			session("3", "C", 10, 1000, 0),
		}, categories)

		var sum float64
		for _, cs := range st.CategoryStats {
			sum += cs.Percentage
		}
		assert.LessOrEqual(t, math.Abs(sum-100), 0.1*float64(len(st.CategoryStats)))
	})
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(10, 0))
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 66.7, Percentage(2, 3))
	assert.Equal(t, 100.0, Percentage(5, 5))
}

func TestAggregator_Compute(t *testing.T) {
	ctx := context.Background()

	t.Run("reads sessions and categories", func(t *testing.T) {
		a, s := newTestAggregator(t)
		seed(t, s, twoCategories, session("a", "C1", 9, 1000, 0), session("b", "C2", 10, 2000, 500))

		st, err := a.Compute(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 3000.0, st.TotalTime)
		require.Len(t, st.CategoryStats, 2)
		assert.Equal(t, "C2", st.CategoryStats[0].CategoryID)
	})

	t.Run("idempotent", func(t *testing.T) {
		a, s := newTestAggregator(t)
		seed(t, s, twoCategories, session("a", "C1", 9, 1000, 0), session("b", "C2", 10, 2000, 500))

		first, err := a.Compute(ctx, day)
		require.NoError(t, err)
		second, err := a.Compute(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("does not write the cache", func(t *testing.T) {
		a, s := newTestAggregator(t)
		seed(t, s, twoCategories, session("a", "C1", 9, 1000, 0))

		_, err := a.Compute(ctx, day)
		require.NoError(t, err)
		cached, err := s.Stats(ctx, day)
		require.NoError(t, err)
		assert.Nil(t, cached)
	})
}

func TestAggregator_GetOrCompute(t *testing.T) {
	ctx := context.Background()
	a, s := newTestAggregator(t)
	seed(t, s, twoCategories, session("a", "C1", 9, 1000, 0))

	st, err := a.GetOrCompute(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, st.TotalTime)

	cached, err := s.Stats(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, st, *cached)

	// The cache wins until it is invalidated.
	_, err = s.UpsertSession(ctx, session("b", "C2", 10, 2000, 0), time.UTC)
	require.NoError(t, err)
	st, err = a.GetOrCompute(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, st.TotalTime)

	st, err = a.Invalidate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, st.TotalTime)

	st, err = a.GetOrCompute(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, st.TotalTime)
}

func TestAggregator_Range(t *testing.T) {
	ctx := context.Background()
	a, s := newTestAggregator(t)
	seed(t, s, twoCategories, session("a", "C1", 9, 1000, 0))

	days, err := a.Range(ctx, "2026-03-31", "2026-04-02")
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, store.Day("2026-03-31"), days[0].Date)
	assert.Equal(t, 0.0, days[0].TotalTime)
	assert.Equal(t, 1000.0, days[1].TotalTime)
	assert.Equal(t, store.Day("2026-04-02"), days[2].Date)
}

type downBackend struct{}

func (downBackend) Get(context.Context, store.Kind, string) ([]byte, error) {
	return nil, errors.New("offline")
}
func (downBackend) Set(context.Context, store.Kind, string, []byte) error {
	return errors.New("offline")
}
func (downBackend) Ping(context.Context) error { return errors.New("offline") }
func (downBackend) Close() error               { return nil }

func TestAggregator_Unavailable(t *testing.T) {
	a := New(store.Wrap(downBackend{}, store.Options{}), nil)

	st, err := a.GetOrCompute(context.Background(), day)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, Empty(day), st)
}
