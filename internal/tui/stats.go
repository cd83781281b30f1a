package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tracker"
)

type statsMode int

const (
	statsDay statsMode = iota
	statsWeek
)

func (m statsMode) span() int {
	if m == statsWeek {
		return 7
	}
	return 1
}

type statsModel struct {
	svc    *tracker.Service
	width  int
	height int

	mode   statsMode
	offset int // days back from today (0 = today)
	days   []store.DailyStats

	chart barchart.Model
}

func newStatsModel(svc *tracker.Service) statsModel {
	return statsModel{
		svc:   svc,
		chart: barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildChart()
}

type statsDataMsg struct {
	mode   statsMode
	offset int
	days   []store.DailyStats
}

func (s statsModel) refresh() tea.Cmd {
	return s.load(false)
}

// load fetches the stats of the visible range. With recompute set every day
// is rebuilt from its sessions and the cache overwritten.
func (s statsModel) load(recompute bool) tea.Cmd {
	svc, mode, offset := s.svc, s.mode, s.offset
	from, to := s.dateRange()
	return func() tea.Msg {
		ctx := context.Background()
		var days []store.DailyStats
		if recompute {
			for _, day := range from.Span(to) {
				st, _ := svc.RefreshStats(ctx, day)
				days = append(days, st)
			}
		} else {
			days, _ = svc.StatsRange(ctx, from, to)
		}
		return statsDataMsg{mode: mode, offset: offset, days: days}
	}
}

func (s statsModel) dateRange() (store.Day, store.Day) {
	end := s.svc.Today().AddDays(-s.offset)
	return end.AddDays(1 - s.mode.span()), end
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		// Drop responses for a range that is no longer shown.
		if msg.mode != s.mode || msg.offset != s.offset {
			return s, nil
		}
		s.days = msg.days
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			s.offset += s.mode.span()
			return s, s.refresh()
		case key.Matches(msg, keys.Right):
			s.offset = max(0, s.offset-s.mode.span())
			return s, s.refresh()
		case key.Matches(msg, keys.Mode):
			if s.mode == statsDay {
				s.mode = statsWeek
			} else {
				s.mode = statsDay
			}
			s.offset = 0
			return s, s.refresh()
		case key.Matches(msg, keys.Refresh):
			return s, tea.Batch(s.load(true), status("Statistics recomputed", false))
		}
	}
	return s, nil
}

func (s *statsModel) buildChart() {
	chartWidth := max(20, s.width-8)
	chartHeight := 12
	if s.height > 30 {
		chartHeight = 16
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	switch s.mode {
	case statsWeek:
		loc := s.svc.Location()
		for _, day := range s.days {
			var values []barchart.BarValue
			for _, c := range day.CategoryStats {
				values = append(values, barchart.BarValue{
					Name:  c.Name,
					Value: c.TotalTime / 60,
					Style: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)),
				})
			}
			if len(values) == 0 {
				values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorBorder)}}
			}
			bars = append(bars, barchart.BarData{
				Label:  day.Date.Time(loc).Format("Mon 02"),
				Values: values,
			})
		}
	default:
		for _, day := range s.days {
			for _, c := range day.CategoryStats {
				bars = append(bars, barchart.BarData{
					Label: truncate(c.Name, 10),
					Values: []barchart.BarValue{{
						Name:  c.Name,
						Value: c.TotalTime / 60,
						Style: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)),
					}},
				})
			}
		}
	}

	if len(bars) == 0 {
		return
	}
	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) totals() (total, effective, distraction float64) {
	for _, d := range s.days {
		total += d.TotalTime
		effective += d.EffectiveTime
		distraction += d.DistractionTime
	}
	return total, effective, distraction
}

func (s statsModel) view() string {
	w := s.width - 4

	dayTab := inactiveTabStyle.Render("Day")
	weekTab := inactiveTabStyle.Render("Week")
	if s.mode == statsDay {
		dayTab = activeTabStyle.Render("Day")
	} else {
		weekTab = activeTabStyle.Render("Week")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dayTab, weekTab)

	loc := s.svc.Location()
	from, to := s.dateRange()
	label := to.Time(loc).Format("Mon Jan 02, 2006")
	if s.mode == statsWeek {
		label = fmt.Sprintf("%s to %s", from.Time(loc).Format("Jan 02"), to.Time(loc).Format("Jan 02, 2006"))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", modeTabs, "  ", mutedStyle.Render(label),
	)

	total, effective, distraction := s.totals()
	summary := fmt.Sprintf("  Total %s  %s  %s",
		highlightStyle.Render(formatSeconds(total)),
		successStyle.Render("focused "+formatSeconds(effective)),
		accentStyle.Render("distracted "+formatSeconds(distraction)),
	)

	var table string
	if s.mode == statsWeek {
		table = s.renderWeekTable(w)
	} else {
		table = s.renderDayTable(w)
	}

	nav := mutedStyle.Render("  ←/→: navigate  m: day/week  u: recompute")

	parts := []string{header, "", summary, ""}
	if total > 0 {
		parts = append(parts, s.chart.View(), "", s.renderLegend(), "")
	}
	parts = append(parts, table, "", nav)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (s statsModel) renderDayTable(w int) string {
	if len(s.days) == 0 || len(s.days[0].CategoryStats) == 0 {
		return mutedStyle.Render("  No sessions on this day")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %10s %10s %10s %7s", "Category", "Total", "Focused", "Distracted", "Share")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 63))))

	for _, c := range s.days[0].CategoryStats {
		rows = append(rows, fmt.Sprintf("  %s %-20s %10s %10s %10s %6.1f%%",
			colorDot(c.Color), truncate(c.Name, 20),
			formatSeconds(c.TotalTime), formatSeconds(c.EffectiveTime), formatSeconds(c.DistractionTime),
			c.Percentage,
		))
	}
	return strings.Join(rows, "\n")
}

func (s statsModel) renderWeekTable(w int) string {
	if total, _, _ := s.totals(); total == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s %10s", "Date", "Total", "Focused", "Distracted")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 45))))

	for _, d := range s.days {
		rows = append(rows, fmt.Sprintf("  %-12s %10s %10s %10s",
			d.Date.String(), formatSeconds(d.TotalTime), formatSeconds(d.EffectiveTime), formatSeconds(d.DistractionTime),
		))
	}
	return strings.Join(rows, "\n")
}

func (s statsModel) renderLegend() string {
	seen := make(map[string]bool)
	var items []string
	for _, d := range s.days {
		for _, c := range d.CategoryStats {
			if seen[c.CategoryID] {
				continue
			}
			seen[c.CategoryID] = true
			items = append(items, fmt.Sprintf("%s %s", colorDot(c.Color), c.Name))
		}
	}
	if len(items) == 0 {
		return ""
	}
	return "  " + strings.Join(items, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
