// Package stats derives daily statistics from stored sessions and caches
// them in the store.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/sadopc/tempo/internal/store"
)

type Aggregator struct {
	store  *store.Store
	logger *slog.Logger
}

func New(s *store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: s, logger: logger}
}

// Compute builds the stats of day from its sessions and the category list.
// It does not touch the cache.
func (a *Aggregator) Compute(ctx context.Context, day store.Day) (store.DailyStats, error) {
	sessions, err := a.store.Sessions(ctx, day)
	if err != nil {
		return Empty(day), fmt.Errorf("compute stats: %w", err)
	}
	categories, err := a.store.Categories(ctx)
	if err != nil {
		return Empty(day), fmt.Errorf("compute stats: %w", err)
	}
	return Reduce(day, sessions, categories), nil
}

// GetOrCompute returns the cached stats of day, computing and caching them
// when absent. A failed cache write still returns the computed stats.
func (a *Aggregator) GetOrCompute(ctx context.Context, day store.Day) (store.DailyStats, error) {
	cached, err := a.store.Stats(ctx, day)
	if err != nil {
		return Empty(day), err
	}
	if cached != nil {
		return *cached, nil
	}
	return a.Invalidate(ctx, day)
}

// Invalidate recomputes the stats of day and overwrites the cache.
func (a *Aggregator) Invalidate(ctx context.Context, day store.Day) (store.DailyStats, error) {
	st, err := a.Compute(ctx, day)
	if err != nil {
		return st, err
	}
	if err := a.store.PutStats(ctx, st); err != nil {
		a.logger.Warn("stats cache write failed", "date", day.String(), "error", err)
		return st, err
	}
	return st, nil
}

// Range returns the stats of every day from..to inclusive. Days that fail
// to load are returned empty; the first error is reported.
func (a *Aggregator) Range(ctx context.Context, from, to store.Day) ([]store.DailyStats, error) {
	var firstErr error
	days := from.Span(to)
	out := make([]store.DailyStats, 0, len(days))
	for _, day := range days {
		st, err := a.GetOrCompute(ctx, day)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out = append(out, st)
	}
	return out, firstErr
}

// Empty is the stats of a day with no sessions.
func Empty(day store.Day) store.DailyStats {
	return store.DailyStats{Date: day, CategoryStats: []store.CategoryStats{}}
}

// Reduce aggregates sessions into DailyStats. Categories with no time are
// omitted and rows are ordered by descending total time, ties keeping the
// category list order. Sessions of unknown categories count toward the day
// totals only.
func Reduce(day store.Day, sessions []store.Session, categories []store.Category) store.DailyStats {
	st := Empty(day)

	type totals struct {
		total, effective, distraction float64
	}
	byCategory := make(map[string]*totals)

	for _, sess := range sessions {
		distraction := sess.DistractionTime()
		st.TotalTime += sess.Duration
		st.EffectiveTime += sess.EffectiveTime
		st.DistractionTime += distraction

		t, ok := byCategory[sess.CategoryID]
		if !ok {
			t = &totals{}
			byCategory[sess.CategoryID] = t
		}
		t.total += sess.Duration
		t.effective += sess.EffectiveTime
		t.distraction += distraction
	}

	for _, c := range categories {
		t, ok := byCategory[c.ID]
		if !ok || t.total <= 0 {
			continue
		}
		st.CategoryStats = append(st.CategoryStats, store.CategoryStats{
			CategoryID:      c.ID,
			Name:            c.Name,
			Color:           c.Color,
			TotalTime:       t.total,
			EffectiveTime:   t.effective,
			DistractionTime: t.distraction,
			Percentage:      Percentage(t.total, st.TotalTime),
		})
		// Guard against duplicate ids in the list.
		delete(byCategory, c.ID)
	}

	sort.SliceStable(st.CategoryStats, func(i, j int) bool {
		return st.CategoryStats[i].TotalTime > st.CategoryStats[j].TotalTime
	})
	return st
}

// Percentage returns part/total as a percentage rounded to one decimal, or
// 0 when total is 0.
func Percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(part/total*1000) / 10
}
