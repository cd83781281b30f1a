package store

import "time"

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Distraction is an interruption inside a session. EndTime is nil while it is
// still open; Duration is only meaningful once closed.
type Distraction struct {
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Duration  float64    `json:"duration"` // seconds
}

// Closed reports whether the interval has an end time.
func (d Distraction) Closed() bool {
	return d.EndTime != nil
}

type Session struct {
	ID            string        `json:"id"`
	CategoryID    string        `json:"categoryId"`
	Description   string        `json:"description"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      float64       `json:"duration"` // seconds
	Distractions  []Distraction `json:"distractions"`
	EffectiveTime float64       `json:"effectiveTime"` // seconds
}

// DistractionTime is the sum of all closed distraction durations.
func (s Session) DistractionTime() float64 {
	var total float64
	for _, d := range s.Distractions {
		total += d.Duration
	}
	return total
}

// DailyStats is derived from the sessions of one day and the category list.
// It is cached but never authoritative.
type DailyStats struct {
	Date            Day             `json:"date"`
	TotalTime       float64         `json:"totalTime"`
	EffectiveTime   float64         `json:"effectiveTime"`
	DistractionTime float64         `json:"distractionTime"`
	CategoryStats   []CategoryStats `json:"categoryStats"`
}

type CategoryStats struct {
	CategoryID      string  `json:"categoryId"`
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	TotalTime       float64 `json:"totalTime"`
	EffectiveTime   float64 `json:"effectiveTime"`
	DistractionTime float64 `json:"distractionTime"`
	Percentage      float64 `json:"percentage"`
}
