// Package tracker wires the store, category registry, stats aggregator and
// focus timer into the operations the UI and command line use.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/tempo/internal/category"
	"github.com/sadopc/tempo/internal/clock"
	"github.com/sadopc/tempo/internal/focus"
	"github.com/sadopc/tempo/internal/observability"
	"github.com/sadopc/tempo/internal/stats"
	"github.com/sadopc/tempo/internal/store"
)

// Warner shows a short-lived message to the user.
type Warner interface {
	Warn(msg string)
}

// WarnFunc adapts a function to Warner.
type WarnFunc func(msg string)

func (f WarnFunc) Warn(msg string) { f(msg) }

type Options struct {
	Store    *store.Store
	Clock    clock.Clock
	Notifier focus.Notifier
	Warner   Warner
	Logger   *slog.Logger
	// Location buckets sessions into days. Nil means local time.
	Location     *time.Location
	Duration     time.Duration
	TickInterval time.Duration
}

type Service struct {
	// statsMu orders session writes against stats cache writes made from
	// UI loader goroutines.
	statsMu sync.Mutex

	store      *store.Store
	categories *category.Registry
	stats      *stats.Aggregator
	timer      *focus.Timer
	loc        *time.Location
	logger     *slog.Logger
	warner     Warner
}

func New(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewLoop()
	}
	if opts.Warner == nil {
		opts.Warner = WarnFunc(func(string) {})
	}

	s := &Service{
		store:      opts.Store,
		categories: category.NewRegistry(opts.Store),
		stats:      stats.New(opts.Store, opts.Logger),
		loc:        opts.Location,
		logger:     opts.Logger,
		warner:     opts.Warner,
	}
	s.timer = focus.NewTimer(focus.Config{
		Duration:     opts.Duration,
		TickInterval: opts.TickInterval,
		Logger:       opts.Logger,
	}, opts.Clock, s, opts.Notifier)
	return s
}

func (s *Service) Timer() *focus.Timer {
	return s.timer
}

func (s *Service) Categories() *category.Registry {
	return s.categories
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Today is the current day in the service location.
func (s *Service) Today() store.Day {
	return store.Today(s.loc)
}

// StartSelected starts a session in the category selected in the registry.
// A zero duration uses the timer's configured length.
func (s *Service) StartSelected(ctx context.Context, description string, duration time.Duration) error {
	// A paused session resumes in its own category.
	if s.timer.State().Status == focus.StatusPaused {
		return s.timer.Resume()
	}
	id := s.categories.SelectedID()
	if id == "" {
		return focus.ErrNoCategorySelected
	}
	if _, ok := s.categories.Resolve(ctx, id); !ok {
		if !s.store.Available(ctx) {
			s.logger.Warn("start session failed", "category_id", id, "error", store.ErrUnavailable)
			s.warn("Session could not be started", store.ErrUnavailable)
			return fmt.Errorf("start session: %w", store.ErrUnavailable)
		}
		return focus.ErrNoCategorySelected
	}
	return s.timer.Start(id, description, duration)
}

// Persist implements focus.Persister.
func (s *Service) Persist(ctx context.Context, sess store.Session) error {
	return s.Record(ctx, sess)
}

// Record stores a session, replacing one with the same id, and refreshes
// the stats of its day.
func (s *Service) Record(ctx context.Context, sess store.Session) error {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	day, err := s.store.UpsertSession(ctx, sess, s.loc)
	if err != nil {
		s.logger.Error("save session failed", "session_id", sess.ID, "date", day.String(), "error", err)
		s.warn("Session could not be saved", err)
		return fmt.Errorf("record session: %w", err)
	}
	s.logger.Info("session saved",
		"session_id", sess.ID,
		"category_id", sess.CategoryID,
		"date", day.String(),
		"duration_s", sess.Duration,
	)

	if _, err := s.stats.Invalidate(ctx, day); err != nil {
		s.logger.Warn("refresh stats failed", "date", day.String(), "error", err)
		s.warn("Statistics could not be updated", err)
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// Sessions lists the sessions of day. On failure it returns an empty list.
func (s *Service) Sessions(ctx context.Context, day store.Day) ([]store.Session, error) {
	sessions, err := s.store.Sessions(ctx, day)
	if err != nil {
		s.logger.Warn("load sessions failed", "date", day.String(), "error", err)
		s.warn("Sessions could not be loaded", err)
	}
	return sessions, err
}

// Stats returns the stats of day, from the cache when present.
func (s *Service) Stats(ctx context.Context, day store.Day) (store.DailyStats, error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	st, err := s.stats.GetOrCompute(ctx, day)
	if err != nil {
		s.logger.Warn("load stats failed", "date", day.String(), "error", err)
		s.warn("Statistics could not be loaded", err)
	}
	return st, err
}

// RefreshStats recomputes the stats of day and overwrites the cache.
func (s *Service) RefreshStats(ctx context.Context, day store.Day) (store.DailyStats, error) {
	defer observability.LogDuration(s.logger, "refresh-stats", time.Now())
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	st, err := s.stats.Invalidate(ctx, day)
	if err != nil {
		s.logger.Warn("refresh stats failed", "date", day.String(), "error", err)
		s.warn("Statistics could not be updated", err)
	}
	return st, err
}

// StatsRange returns the stats of every day from..to inclusive.
func (s *Service) StatsRange(ctx context.Context, from, to store.Day) ([]store.DailyStats, error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	days, err := s.stats.Range(ctx, from, to)
	if err != nil {
		s.logger.Warn("load stats range failed", "from", from.String(), "to", to.String(), "error", err)
		s.warn("Statistics could not be loaded", err)
	}
	return days, err
}

// SessionsRange lists the sessions of every day from..to inclusive.
func (s *Service) SessionsRange(ctx context.Context, from, to store.Day) ([]store.Session, error) {
	var out []store.Session
	for _, day := range from.Span(to) {
		sessions, err := s.store.Sessions(ctx, day)
		if err != nil {
			s.logger.Warn("load sessions failed", "date", day.String(), "error", err)
			s.warn("Sessions could not be loaded", err)
			return out, err
		}
		out = append(out, sessions...)
	}
	return out, nil
}

// ListCategories returns the categories, warning when the store fails.
func (s *Service) ListCategories(ctx context.Context) ([]store.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Warn("load categories failed", "error", err)
		s.warn("Categories could not be loaded", err)
	}
	return list, err
}

// CreateCategory adds a category. Validation errors are returned as is;
// only storage failures are logged.
func (s *Service) CreateCategory(ctx context.Context, name, color string) (store.Category, error) {
	c, err := s.categories.Create(ctx, name, color)
	if errors.Is(err, store.ErrUnavailable) {
		s.logger.Error("create category failed", "name", name, "error", err)
		s.warn("Category could not be saved", err)
	}
	if err == nil {
		s.logger.Info("category created", "category_id", c.ID, "name", c.Name)
	}
	return c, err
}

// Available reports whether the durable store can be used.
func (s *Service) Available(ctx context.Context) bool {
	return s.store.Available(ctx)
}

func (s *Service) warn(msg string, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		msg += " (storage unavailable)"
	}
	s.warner.Warn(msg)
}
