package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/focus"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tracker"
)

type focusModel struct {
	svc    *tracker.Service
	width  int
	height int

	categories []store.Category
	sessions   []store.Session
	today      store.DailyStats

	// Category picker
	picking      bool
	pickerCursor int
	startAfter   bool // start a session once a category is picked

	editing     bool
	description textinput.Model
}

type focusDataMsg struct {
	categories []store.Category
	sessions   []store.Session
	stats      store.DailyStats
}

func newFocusModel(svc *tracker.Service) focusModel {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 120
	ti.Width = 40

	return focusModel{
		svc:         svc,
		description: ti,
	}
}

func (f focusModel) Init() tea.Cmd {
	return f.loadData()
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
	f.description.Width = max(20, w-20)
}

func (f focusModel) loadData() tea.Cmd {
	svc := f.svc
	return func() tea.Msg {
		ctx := context.Background()
		day := svc.Today()
		categories, _ := svc.ListCategories(ctx)
		sessions, _ := svc.Sessions(ctx, day)
		st, _ := svc.Stats(ctx, day)
		return focusDataMsg{categories: categories, sessions: sessions, stats: st}
	}
}

// capturing reports whether the view consumes every key press.
func (f focusModel) capturing() bool {
	return f.picking || f.editing
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	if f.editing {
		return f.updateDescription(msg)
	}

	switch msg := msg.(type) {
	case focusDataMsg:
		f.categories = msg.categories
		f.sessions = msg.sessions
		f.today = msg.stats
		if f.pickerCursor >= len(f.categories) {
			f.pickerCursor = max(0, len(f.categories)-1)
		}
		return f, nil

	case tea.KeyMsg:
		if f.picking {
			return f.updatePicker(msg)
		}
		return f.updateKeys(msg)
	}
	return f, nil
}

func (f focusModel) updateKeys(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	t := f.svc.Timer()
	controls := t.Display().Controls

	var err error
	switch {
	case key.Matches(msg, keys.Start):
		if controls.Start {
			return f.start()
		}
	case key.Matches(msg, keys.Pause):
		if controls.Pause || controls.Resume {
			err = t.TogglePause()
		}
	case key.Matches(msg, keys.Distraction):
		if controls.Distraction {
			err = t.ToggleDistraction()
		}
	case key.Matches(msg, keys.Finish):
		if controls.Complete {
			err = t.Complete()
		}
	case key.Matches(msg, keys.Reset):
		if controls.Reset {
			err = t.Reset()
			if err == nil {
				return f, status("Session discarded", false)
			}
		}
	case key.Matches(msg, keys.Longer):
		return f.adjustDuration(1)
	case key.Matches(msg, keys.Shorter):
		return f.adjustDuration(-1)
	case key.Matches(msg, keys.Category):
		return f.openPicker(false)
	case key.Matches(msg, keys.Describe):
		if !controls.EditDuration {
			return f, status("Description is fixed once a session starts", true)
		}
		f.editing = true
		return f, f.description.Focus()
	}

	if err != nil {
		return f, status(fmt.Sprintf("Timer error: %v", err), true)
	}
	return f, nil
}

func (f focusModel) start() (focusModel, tea.Cmd) {
	err := f.svc.StartSelected(context.Background(), strings.TrimSpace(f.description.Value()), 0)
	switch {
	case errors.Is(err, focus.ErrNoCategorySelected):
		return f.openPicker(true)
	case errors.Is(err, store.ErrUnavailable):
		return f, status("Storage unavailable, session not started", true)
	case err != nil:
		return f, status(fmt.Sprintf("Timer error: %v", err), true)
	}
	f.description.Reset()
	return f, nil
}

func (f focusModel) openPicker(startAfter bool) (focusModel, tea.Cmd) {
	if len(f.categories) == 0 {
		return f, status("No categories yet. Press 2 to create one.", true)
	}
	f.picking = true
	f.startAfter = startAfter
	if i := slices.IndexFunc(f.categories, func(c store.Category) bool {
		return c.ID == f.svc.Categories().SelectedID()
	}); i >= 0 {
		f.pickerCursor = i
	}
	return f, nil
}

func (f focusModel) adjustDuration(delta int) (focusModel, tea.Cmd) {
	t := f.svc.Timer()
	if !t.Display().Controls.EditDuration {
		return f, nil
	}
	_, clamped, err := t.SetDuration(t.Minutes() + delta)
	if err != nil {
		return f, status(fmt.Sprintf("Timer error: %v", err), true)
	}
	if clamped {
		return f, status(fmt.Sprintf("Session length must be between %d and %d minutes", focus.MinMinutes, focus.MaxMinutes), true)
	}
	return f, nil
}

func (f focusModel) updatePicker(msg tea.KeyMsg) (focusModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if f.pickerCursor > 0 {
			f.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if f.pickerCursor < len(f.categories)-1 {
			f.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		f.picking = false
		if f.pickerCursor >= len(f.categories) {
			return f, nil
		}
		f.svc.Categories().Select(f.categories[f.pickerCursor].ID)
		if f.startAfter {
			f.startAfter = false
			return f.start()
		}
	case key.Matches(msg, keys.Back):
		f.picking = false
		f.startAfter = false
	}
	return f, nil
}

func (f focusModel) updateDescription(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter", "esc":
			f.editing = false
			f.description.Blur()
			return f, nil
		}
	}

	var cmd tea.Cmd
	f.description, cmd = f.description.Update(msg)
	return f, cmd
}

func (f focusModel) category(id string) (store.Category, bool) {
	i := slices.IndexFunc(f.categories, func(c store.Category) bool { return c.ID == id })
	if i < 0 {
		return store.Category{}, false
	}
	return f.categories[i], true
}

func (f focusModel) view() string {
	if f.width < 20 {
		return "Terminal too small"
	}

	contentWidth := f.width - 4

	timerPanel := f.renderTimerPanel(contentWidth)
	summaryPanel := f.renderSummaryPanel(contentWidth)

	var bottomPanel string
	if f.picking {
		bottomPanel = f.renderCategoryPicker(contentWidth)
	} else {
		bottomPanel = f.renderSessionsPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, summaryPanel, bottomPanel)
}

func (f focusModel) renderTimerPanel(w int) string {
	t := f.svc.Timer()
	v := t.Display()
	st := t.State()

	lines := []string{
		countdownStyle(v.Status, w-6).Render(v.Clock()),
		indicator(v.Status),
		f.renderCategoryLine(st),
	}

	switch {
	case f.editing:
		lines = append(lines, f.description.View())
	case st.Status == focus.StatusIdle:
		if desc := strings.TrimSpace(f.description.Value()); desc != "" {
			lines = append(lines, mutedStyle.Render(desc))
		}
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Session length: %d min  (+/-)", t.Minutes())))
	default:
		if st.Description != "" {
			lines = append(lines, mutedStyle.Render(st.Description))
		}
		count := len(st.Distractions)
		if st.Open != nil {
			count++
		}
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Distractions: %d", count)))
	}

	lines = append(lines, "", renderControls(v.Controls))

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	if v.Status == focus.StatusIdle {
		return panelStyle.Width(w).Render(content)
	}
	return activePanelStyle.Width(w).Render(content)
}

func (f focusModel) renderCategoryLine(st focus.State) string {
	id := st.CategoryID
	if st.Status == focus.StatusIdle {
		id = f.svc.Categories().SelectedID()
	}
	c, ok := f.category(id)
	if !ok {
		return mutedStyle.Render("No category selected (c)")
	}
	return colorDot(c.Color) + " " + highlightStyle.Render(c.Name)
}

func renderControls(c focus.Controls) string {
	var parts []string
	if c.Start {
		if c.Resume {
			parts = append(parts, "s: resume")
		} else {
			parts = append(parts, "s: start")
		}
	}
	if c.Pause {
		parts = append(parts, "space: pause")
	}
	if c.Distraction {
		parts = append(parts, "d: distraction")
	}
	if c.Complete {
		parts = append(parts, "f: finish")
	}
	if c.Reset {
		parts = append(parts, "r: reset")
	}
	if c.EditDuration {
		parts = append(parts, "c: category", "i: description")
	}
	return mutedStyle.Render(strings.Join(parts, "  "))
}

func (f focusModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatSeconds(f.today.TotalTime))
	header := fmt.Sprintf("%s  %s  %s  %s", title, total,
		successStyle.Render("focused "+formatSeconds(f.today.EffectiveTime)),
		accentStyle.Render("distracted "+formatSeconds(f.today.DistractionTime)),
	)

	if len(f.today.CategoryStats) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			header,
			mutedStyle.Render("No sessions today"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, header)
	for _, c := range f.today.CategoryStats {
		rows = append(rows, fmt.Sprintf("  %s %-20s %s  %5.1f%%",
			colorDot(c.Color), c.Name, formatSeconds(c.TotalTime), c.Percentage,
		))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (f focusModel) renderSessionsPanel(w int) string {
	title := titleStyle.Render("Sessions")
	if len(f.sessions) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	loc := f.svc.Location()
	var rows []string
	rows = append(rows, title)
	// Most recent first.
	for i := len(f.sessions) - 1; i >= 0; i-- {
		s := f.sessions[i]
		name := "?"
		if c, ok := f.category(s.CategoryID); ok {
			name = c.Name
		}
		row := fmt.Sprintf("  ✓ %s  %-16s %s  %s",
			s.StartTime.In(loc).Format("15:04"),
			name,
			formatSeconds(s.Duration),
			mutedStyle.Render(fmt.Sprintf("focused %s, %d distractions", formatMinutes(s.EffectiveTime), len(s.Distractions))),
		)
		if s.Description != "" {
			row += mutedStyle.Render("  " + s.Description)
		}
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (f focusModel) renderCategoryPicker(w int) string {
	title := titleStyle.Render("Select Category")

	var rows []string
	rows = append(rows, title)
	for i, c := range f.categories {
		cursor := "  "
		style := normalItemStyle
		if i == f.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+colorDot(c.Color)+style.Render(" "+c.Name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
