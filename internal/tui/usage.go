package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tooldb/internal/store"
)

const recentSessions = 8

type usageModel struct {
	store  *store.Store
	width  int
	height int

	totals   []store.ToolUsage
	sessions []store.UsageSession
	offset   int // first tool shown in the chart

	chart barchart.Model
}

func newUsageModel(s *store.Store) usageModel {
	return usageModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (u *usageModel) setSize(w, h int) {
	u.width = w
	u.height = h
}

type usageDataMsg struct {
	totals   []store.ToolUsage
	sessions []store.UsageSession
}

func (u usageModel) refresh() tea.Cmd {
	return func() tea.Msg {
		totals, _ := u.store.UsageTotals()
		sessions, _ := u.store.ListUsage(store.UsageFilter{Limit: recentSessions})
		return usageDataMsg{totals: totals, sessions: sessions}
	}
}

// barsPerPage is how many tools fit in the chart at the current width.
func (u usageModel) barsPerPage() int {
	return max(1, (u.width-8)/6)
}

func (u usageModel) update(msg tea.Msg) (usageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case usageDataMsg:
		u.totals = msg.totals
		u.sessions = msg.sessions
		if u.offset >= len(u.totals) {
			u.offset = 0
		}
		u.buildChart()
		return u, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			u.offset = max(0, u.offset-u.barsPerPage())
			u.buildChart()
		case key.Matches(msg, keys.Right):
			if u.offset+u.barsPerPage() < len(u.totals) {
				u.offset += u.barsPerPage()
			}
			u.buildChart()
		}
	}
	return u, nil
}

func (u *usageModel) buildChart() {
	chartWidth := u.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if u.height > 30 {
		chartHeight = 16
	}

	u.chart = barchart.New(chartWidth, chartHeight)

	end := min(len(u.totals), u.offset+u.barsPerPage())
	var bars []barchart.BarData
	for _, t := range u.totals[u.offset:end] {
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if t.Sessions == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: fmt.Sprintf("T%d", t.Tool),
			Values: []barchart.BarValue{{
				Name:  fmt.Sprintf("T%d", t.Tool),
				Value: t.Minutes,
				Style: style,
			}},
		})
	}

	u.chart.PushAll(bars)
	u.chart.Draw()
}

func (u usageModel) view() string {
	w := u.width - 4

	var total float64
	for _, t := range u.totals {
		total += t.Minutes
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Spindle Time"), "  ",
		highlightStyle.Render(formatMinutes(total)), "  ",
		mutedStyle.Render(fmt.Sprintf("%d tools", len(u.totals))),
	)

	if len(u.totals) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header, "", mutedStyle.Render("  No tools yet"),
		))
	}

	nav := mutedStyle.Render("  ←/→: page tools  r: reload")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", u.chart.View(), "", u.renderSessions(w), "", nav,
		),
	)
}

func (u usageModel) renderSessions(w int) string {
	if len(u.sessions) == 0 {
		return mutedStyle.Render("  No spindle sessions recorded")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-6s %-18s %-18s %10s", "Tool", "Start", "End", "Duration")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 56))))

	for _, s := range u.sessions {
		rows = append(rows, fmt.Sprintf("  %-6s %-18s %-18s %10s",
			fmt.Sprintf("T%d", s.Tool),
			s.StartTime.Local().Format("Jan 02 15:04:05"),
			s.EndTime.Local().Format("Jan 02 15:04:05"),
			formatSeconds(s.Seconds),
		))
	}
	return strings.Join(rows, "\n")
}
