package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewCategories
	viewStats
)

var viewNames = []string{"Focus", "Categories", "Stats"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

type exportDoneMsg struct {
	path  string
	count int
}

// notice is an auto-dismissing status line.
type notice struct {
	text    string
	isError bool
	until   time.Time
}

func (n notice) expired(now time.Time) bool {
	return n.text != "" && !n.until.IsZero() && !now.Before(n.until)
}

// Warnings collects storage warnings raised outside the UI goroutine. The
// app shows them on its next tick.
type Warnings struct {
	ch chan string
}

func NewWarnings() *Warnings {
	return &Warnings{ch: make(chan string, 8)}
}

// Warn queues msg, dropping it when the queue is full.
func (w *Warnings) Warn(msg string) {
	select {
	case w.ch <- msg:
	default:
	}
}

// drain returns the most recent queued warning.
func (w *Warnings) drain() (string, bool) {
	var last string
	found := false
	for {
		select {
		case msg := <-w.ch:
			last, found = msg, true
		default:
			return last, found
		}
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs float64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(secs float64) string {
	return fmt.Sprintf("%.0fm", secs/60)
}
