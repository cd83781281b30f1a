package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/category"
	"github.com/sadopc/tempo/internal/focus"
)

var (
	colorBrand     = lipgloss.Color(category.DefaultColor)
	colorFocus     = lipgloss.Color("#2EC4B6")
	colorPaused    = lipgloss.Color("#F4A261")
	colorDistract  = lipgloss.Color("#E76F51")
	colorDanger    = lipgloss.Color("#D62828")
	colorText      = lipgloss.Color("#D8DEE9")
	colorDim       = lipgloss.Color("#6B7280")
	colorBorder    = lipgloss.Color("#3B4252")
	colorHighlight = lipgloss.Color("#88C0D0")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBrand).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorBrand).
			Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
	activePanelStyle = panelStyle.BorderForeground(colorBrand)

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	accentStyle    = lipgloss.NewStyle().Foreground(colorDistract)
	successStyle   = lipgloss.NewStyle().Foreground(colorFocus)
	warningStyle   = lipgloss.NewStyle().Foreground(colorPaused)
	errorStyle     = lipgloss.NewStyle().Foreground(colorDanger)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorDim)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	normalItemStyle   = lipgloss.NewStyle().Foreground(colorText)
)

// statusLook is how the countdown and its indicator render for a status.
type statusLook struct {
	color lipgloss.Color
	label string
}

var statusLooks = map[focus.Status]statusLook{
	focus.StatusIdle:       {colorBrand, "■  READY"},
	focus.StatusRunning:    {colorFocus, "●  FOCUSING"},
	focus.StatusDistracted: {colorDistract, "◐  DISTRACTED"},
	focus.StatusPaused:     {colorPaused, "⏸  PAUSED"},
}

func lookFor(s focus.Status) statusLook {
	if l, ok := statusLooks[s]; ok {
		return l
	}
	return statusLooks[focus.StatusIdle]
}

// countdownStyle is the big centered clock, colored by status.
func countdownStyle(s focus.Status, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lookFor(s).color).
		Align(lipgloss.Center).
		Width(width)
}

// indicator renders the status label. Idle uses the dim color.
func indicator(s focus.Status) string {
	l := lookFor(s)
	if s == focus.StatusIdle {
		return mutedStyle.Render(l.label)
	}
	return lipgloss.NewStyle().Foreground(l.color).Render(l.label)
}

// colorDot renders a bullet in a category color.
func colorDot(color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
