package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/export"
	"github.com/sadopc/tempo/internal/focus"
	"github.com/sadopc/tempo/internal/notify"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tracker"
)

const exportDays = 30

// Options wires the app to the tracker.
type Options struct {
	Service *tracker.Service
	// Pump fires due timer ticks. It runs on every UI tick.
	Pump func() int
	// Completed delivers finished sessions for the completion notice.
	Completed <-chan store.Session
	Warnings  *Warnings
	NoticeTTL time.Duration
	ExportDir string
	Degraded  bool
}

// App is the root Bubble Tea model.
type App struct {
	svc    *tracker.Service
	opts   Options
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	focus      focusModel
	categories categoriesModel
	stats      statsModel

	help   help.Model
	notice notice
}

func NewApp(opts Options) App {
	h := help.New()
	h.ShowAll = false

	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 5 * time.Second
	}
	if opts.Warnings == nil {
		opts.Warnings = NewWarnings()
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}

	a := App{
		svc:        opts.Service,
		opts:       opts,
		activeView: viewFocus,
		focus:      newFocusModel(opts.Service),
		categories: newCategoriesModel(opts.Service),
		stats:      newStatsModel(opts.Service),
		help:       h,
	}
	if opts.Degraded {
		a.setNotice("Storage unavailable, sessions will not be kept", true)
	}
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.focus.Init(),
		a.categories.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.focus.setSize(a.width, contentHeight)
		a.categories.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewFocus
			return a, a.focus.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewCategories
			return a, a.categories.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, a.stats.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		if a.opts.Pump != nil {
			a.opts.Pump()
		}
		var cmd tea.Cmd
		a, cmd = a.drainEvents(time.Time(msg))
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.setNotice(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setNotice(fmt.Sprintf("Exported %d sessions to %s", msg.count, msg.path), false)
		a.exportPicking = false
		return a, nil
	}

	model, cmd := a.updateActiveView(msg)
	a = model.(App)
	if _, ok := msg.(tea.KeyMsg); ok && a.activeView == viewFocus {
		// A finish key completes the session synchronously.
		var drained tea.Cmd
		a, drained = a.drainEvents(time.Now())
		cmd = tea.Batch(cmd, drained)
	}
	return a, cmd
}

// drainEvents consumes completed sessions and queued warnings and expires
// the current notice.
func (a App) drainEvents(now time.Time) (App, tea.Cmd) {
	if a.notice.expired(now) {
		a.notice = notice{}
	}

	var cmds []tea.Cmd
drain:
	for {
		select {
		case sess := <-a.opts.Completed:
			a.setNotice(notify.Message(sess), false)
			cmds = append(cmds, a.focus.loadData())
			if a.activeView == viewStats {
				cmds = append(cmds, a.stats.refresh())
			}
		default:
			break drain
		}
	}

	// Warnings win over the completion notice.
	if msg, ok := a.opts.Warnings.drain(); ok {
		a.setNotice(msg, true)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) setNotice(text string, isError bool) {
	a.notice = notice{text: text, isError: isError, until: time.Now().Add(a.opts.NoticeTTL)}
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.(type) {
	case focusDataMsg:
		a.focus, cmd = a.focus.update(msg)
		return a, cmd
	case categoriesDataMsg:
		a.categories, cmd = a.categories.update(msg)
		return a, cmd
	case statsDataMsg:
		a.stats, cmd = a.stats.update(msg)
		return a, cmd
	}

	switch a.activeView {
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewCategories:
		a.categories, cmd = a.categories.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewFocus:
		return a.focus.capturing()
	case viewCategories:
		return a.categories.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewFocus:
		return a.focus.loadData()
	case viewCategories:
		return a.categories.refresh()
	case viewStats:
		return a.stats.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewFocus:
		content = a.focus.view()
	case viewCategories:
		content = a.categories.view()
	case viewStats:
		content = a.stats.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorBrand).Render("tempo")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.notice.text != "" {
		if a.notice.isError {
			status = errorStyle.Render(" " + a.notice.text)
		} else {
			status = successStyle.Render(" " + a.notice.text)
		}
	}

	// Countdown indicator while away from the focus view.
	timerInfo := ""
	if v := a.svc.Timer().Display(); a.activeView != viewFocus {
		switch v.Status {
		case focus.StatusRunning:
			timerInfo = successStyle.Render(" ● " + v.Clock())
		case focus.StatusDistracted:
			timerInfo = accentStyle.Render(" ◐ " + v.Clock())
		case focus.StatusPaused:
			timerInfo = warningStyle.Render(" ⏸ " + v.Clock())
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("Sessions of the last %d days", exportDays)))
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	svc, dir := a.svc, a.opts.ExportDir
	return func() tea.Msg {
		ctx := context.Background()
		to := svc.Today()
		from := to.AddDays(1 - exportDays)

		sessions, err := svc.SessionsRange(ctx, from, to)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		categories, _ := svc.ListCategories(ctx)
		index := export.Index(categories)

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("tempo-export-%s.csv", to))
			if err := export.ToCSV(sessions, index, svc.Location(), path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("tempo-export-%s.json", to))
			if err := export.ToJSON(sessions, index, svc.Location(), path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path, count: len(sessions)}
	}
}
