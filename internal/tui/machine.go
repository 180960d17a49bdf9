package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tooldb/internal/registry"
	"github.com/sadopc/tooldb/internal/store"
)

// machineModel stands in for the controller status feed: it loads tools,
// starts and stops program runs and homes the axes, and shows the usage
// timer.
type machineModel struct {
	reg    *registry.Registry
	store  *store.Store
	width  int
	height int

	settings []store.Setting

	// Tool picker state
	picking      bool
	pickerCursor int
}

func newMachineModel(reg *registry.Registry, s *store.Store) machineModel {
	return machineModel{reg: reg, store: s}
}

func (m machineModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *machineModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type machineDataMsg struct {
	settings []store.Setting
}

func (m machineModel) loadData() tea.Cmd {
	return func() tea.Msg {
		settings, _ := m.store.GetAllSettings()
		return machineDataMsg{settings: settings}
	}
}

func (m machineModel) update(msg tea.Msg) (machineModel, tea.Cmd) {
	switch msg := msg.(type) {
	case machineDataMsg:
		m.settings = msg.settings
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}

		timer := m.reg.Timer()
		switch {
		case key.Matches(msg, keys.Load):
			if len(m.reg.ToolNumbers()) == 0 {
				return m, statusCmd("Tool table is empty", true)
			}
			m.picking = true
			m.pickerCursor = 0
			return m, nil

		case key.Matches(msg, keys.Unload):
			return m.send(registry.ToolChanged{Tool: 0}, "Spindle empty")

		case key.Matches(msg, keys.Start):
			if timer.AutoRun() {
				return m, nil
			}
			return m.send(registry.RunStateChanged{Running: true, Auto: true}, "Program running")

		case key.Matches(msg, keys.Stop):
			if !timer.AutoRun() {
				return m, nil
			}
			return m.send(registry.RunStateChanged{Running: false, Auto: true}, "Program stopped")

		case key.Matches(msg, keys.Home):
			homed := !m.reg.Homed()
			text := "Machine unhomed"
			if homed {
				text = "All axes homed"
			}
			return m.send(registry.AxesHomed{Homed: homed}, text)
		}
	}
	return m, nil
}

func (m machineModel) updatePicker(msg tea.KeyMsg) (machineModel, tea.Cmd) {
	tools := m.reg.ToolNumbers()
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickerCursor < len(tools)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.picking = false
		if m.pickerCursor < len(tools) {
			tool := tools[m.pickerCursor]
			return m.send(registry.ToolChanged{Tool: tool}, fmt.Sprintf("T%d loaded", tool))
		}
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

func (m machineModel) send(ev registry.Event, text string) (machineModel, tea.Cmd) {
	m.reg.Handle(ev)
	return m, tea.Batch(m.loadData(), statusCmd(text, false))
}

func (m machineModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}

	contentWidth := m.width - 4

	timerPanel := m.renderTimerPanel(contentWidth)
	statePanel := m.renderStatePanel(contentWidth)

	var bottomPanel string
	if m.picking {
		bottomPanel = m.renderToolPicker(contentWidth)
	} else {
		bottomPanel = m.renderSettingsPanel(contentWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, statePanel, bottomPanel)
}

func (m machineModel) renderTimerPanel(w int) string {
	timer := m.reg.Timer()
	timeStr := formatDuration(timer.Elapsed())

	toolLine := mutedStyle.Render("Spindle empty. Press t to load a tool")
	if tool := timer.Tool(); tool != 0 {
		toolLine = highlightStyle.Render(fmt.Sprintf("T%d", tool))
		if off, ok := m.reg.Offset(tool); ok {
			toolLine += mutedStyle.Render(" / " + off.Comment)
		}
	}

	if timer.Running() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			timerRunningStyle.Width(w-6).Render(timeStr),
			successStyle.Render("●  CUTTING"),
			toolLine,
		)
		return activePanelStyle.Width(w).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		timerStyle.Width(w-6).Render(timeStr),
		mutedStyle.Render("■  IDLE"),
		toolLine,
	)
	return panelStyle.Width(w).Render(content)
}

func onOff(b bool, on, off string) string {
	if b {
		return successStyle.Render(on)
	}
	return warningStyle.Render(off)
}

func (m machineModel) renderStatePanel(w int) string {
	timer := m.reg.Timer()
	rows := []string{
		titleStyle.Render("Machine"),
		fmt.Sprintf("  %-14s %s", "Program", onOff(timer.AutoRun(), "running", "stopped")),
		fmt.Sprintf("  %-14s %s", "Axes", onOff(m.reg.Homed(), "homed", "not homed")),
		fmt.Sprintf("  %-14s %s", "Edit mode", onOff(m.reg.EditMode(), "on", "off")),
		"",
		mutedStyle.Render("  t: load  u: unload  s: cycle start  x: cycle stop  o: home"),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m machineModel) renderSettingsPanel(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Preferences"))
	for _, s := range m.settings {
		label := lipgloss.NewStyle().Width(16).Render(s.Key)
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(s.Value)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  m: metric/inch  w: edit mode"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m machineModel) renderToolPicker(w int) string {
	title := titleStyle.Render("Load Tool")

	var rows []string
	rows = append(rows, title)
	for i, tool := range m.reg.ToolNumbers() {
		cursor := "  "
		style := normalItemStyle
		if i == m.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		comment := ""
		if off, ok := m.reg.Offset(tool); ok {
			comment = off.Comment
		}
		rows = append(rows, style.Render(fmt.Sprintf("%sT%-3d %s", cursor, tool, comment)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: load  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
