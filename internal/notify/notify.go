// Package notify announces completed sessions. Every notifier returns
// immediately; delivery is best effort.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sadopc/tempo/internal/store"
)

// Notifier is called once for every completed session.
type Notifier interface {
	SessionCompleted(sess store.Session)
}

// Message is the user-facing completion text.
func Message(sess store.Session) string {
	focused := time.Duration(sess.EffectiveTime * float64(time.Second)).Round(time.Second)
	return fmt.Sprintf("Session complete! %s focused.", focused)
}

// Bell rings the terminal bell.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) SessionCompleted(store.Session) {
	if b.w != nil {
		_, _ = io.WriteString(b.w, "\a")
	}
}

// Log writes one structured record per session.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) SessionCompleted(sess store.Session) {
	l.logger.Info("session completed",
		"session_id", sess.ID,
		"category_id", sess.CategoryID,
		"duration_s", sess.Duration,
		"effective_s", sess.EffectiveTime,
		"distractions", len(sess.Distractions),
	)
}

// Channel hands sessions to a consumer. When the buffer is full the session
// is dropped.
type Channel struct {
	ch chan store.Session
}

func NewChannel(size int) *Channel {
	if size < 1 {
		size = 1
	}
	return &Channel{ch: make(chan store.Session, size)}
}

func (c *Channel) SessionCompleted(sess store.Session) {
	select {
	case c.ch <- sess:
	default:
	}
}

// C returns the receive side.
func (c *Channel) C() <-chan store.Session {
	return c.ch
}

// Multi fans out to several notifiers in order. Nil entries are skipped.
type Multi []Notifier

func (m Multi) SessionCompleted(sess store.Session) {
	for _, n := range m {
		if n != nil {
			n.SessionCompleted(sess)
		}
	}
}
