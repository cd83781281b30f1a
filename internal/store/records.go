package store

import (
	"context"
	"fmt"
	"time"
)

const categoriesKey = "all"

// Categories returns the category list in insertion order.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if _, err := s.load(ctx, KindCategories, categoriesKey, &categories); err != nil {
		return []Category{}, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *Store) PutCategories(ctx context.Context, categories []Category) error {
	if categories == nil {
		categories = []Category{}
	}
	if err := s.save(ctx, KindCategories, categoriesKey, categories); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

// Sessions returns the sessions recorded for day, oldest write first.
func (s *Store) Sessions(ctx context.Context, day Day) ([]Session, error) {
	sessions := []Session{}
	if _, err := s.load(ctx, KindSessions, day.String(), &sessions); err != nil {
		return []Session{}, fmt.Errorf("list sessions %s: %w", day, err)
	}
	return sessions, nil
}

func (s *Store) PutSessions(ctx context.Context, day Day, sessions []Session) error {
	if sessions == nil {
		sessions = []Session{}
	}
	if err := s.save(ctx, KindSessions, day.String(), sessions); err != nil {
		return fmt.Errorf("save sessions %s: %w", day, err)
	}
	return nil
}

// UpsertSession writes sess into the bucket of its start day in loc,
// replacing a stored session with the same ID. It returns the bucket day.
func (s *Store) UpsertSession(ctx context.Context, sess Session, loc *time.Location) (Day, error) {
	day := DayOf(sess.StartTime, loc)
	sessions, err := s.Sessions(ctx, day)
	if err != nil {
		return day, err
	}

	replaced := false
	for i := range sessions {
		if sessions[i].ID == sess.ID {
			sessions[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, sess)
	}
	return day, s.PutSessions(ctx, day, sessions)
}

// Stats returns the cached stats of day, or nil when none are cached.
func (s *Store) Stats(ctx context.Context, day Day) (*DailyStats, error) {
	var st DailyStats
	found, err := s.load(ctx, KindStats, day.String(), &st)
	if err != nil {
		return nil, fmt.Errorf("get stats %s: %w", day, err)
	}
	if !found {
		return nil, nil
	}
	return &st, nil
}

func (s *Store) PutStats(ctx context.Context, st DailyStats) error {
	if err := s.save(ctx, KindStats, st.Date.String(), st); err != nil {
		return fmt.Errorf("save stats %s: %w", st.Date, err)
	}
	return nil
}
