package store

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar date (YYYY-MM-DD). Sessions and stats are bucketed by it.
type Day string

// DayOf returns the calendar day of t in loc. A nil loc means time.Local.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(dayLayout))
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) Day {
	return DayOf(time.Now(), loc)
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day(t.Format(dayLayout)), nil
}

// Time returns midnight of the day in loc.
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t, _ := time.ParseInLocation(dayLayout, string(d), loc)
	return t
}

// AddDays moves the day by n calendar days.
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(dayLayout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(dayLayout))
}

// Span returns every day from d to end inclusive. It is empty when end is
// before d.
func (d Day) Span(end Day) []Day {
	var days []Day
	for cur := d; cur <= end; cur = cur.AddDays(1) {
		days = append(days, cur)
		if len(days) > 3660 {
			break
		}
	}
	return days
}

func (d Day) String() string {
	return string(d)
}
