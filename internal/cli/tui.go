package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tempo/internal/clock"
	"github.com/sadopc/tempo/internal/focus"
	"github.com/sadopc/tempo/internal/notify"
	"github.com/sadopc/tempo/internal/tracker"
	"github.com/sadopc/tempo/internal/tui"
	"github.com/spf13/cobra"
)

// runTUI opens the interactive timer. Timer ticks are fired from the UI
// event loop, so the timer is only ever touched by one goroutine.
func runTUI(cmd *cobra.Command, e *env) error {
	loop := clock.NewLoop()
	completed := notify.NewChannel(4)
	warnings := tui.NewWarnings()

	notifier := notify.Multi{notify.NewLog(e.logger), completed}
	if e.cfg.Bell {
		notifier = append(notifier, notify.NewBell(cmd.OutOrStdout()))
	}

	svc := tracker.New(tracker.Options{
		Store:        e.store,
		Clock:        loop,
		Notifier:     notifier,
		Warner:       warnings,
		Logger:       e.logger,
		Location:     e.loc,
		Duration:     time.Duration(e.cfg.DefaultMinutes) * time.Minute,
		TickInterval: e.cfg.TickInterval,
	})

	app := tui.NewApp(tui.Options{
		Service:   svc,
		Pump:      loop.Pump,
		Completed: completed.C(),
		Warnings:  warnings,
		NoticeTTL: e.cfg.NoticeTTL,
		Degraded:  e.degraded,
	})

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("run timer: %w", err)
	}

	if st := svc.Timer().State(); st.Status != focus.StatusIdle {
		e.logger.Warn("quit with an unfinished session", "session_id", st.SessionID)
	}
	return nil
}
