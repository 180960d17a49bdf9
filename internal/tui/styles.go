package tui

import "github.com/charmbracelet/lipgloss"

// Shop palette: amber for the machine, steel greys for the tables.
var (
	colorPrimary   = lipgloss.Color("#F5A524")
	colorSpindle   = lipgloss.Color("#4FD1C5")
	colorDim       = lipgloss.Color("#7A8290")
	colorOK        = lipgloss.Color("#48BB78")
	colorCaution   = lipgloss.Color("#ECC94B")
	colorFault     = lipgloss.Color("#F56565")
	colorInk       = lipgloss.Color("#111318")
	colorText      = lipgloss.Color("#D8DEE9")
	colorSubtle    = lipgloss.Color("#3B4252")
	colorSelection = lipgloss.Color("#81A1C1")
)

// fg is a plain style with a foreground color.
func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	framed = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)

	panelStyle       = framed.BorderForeground(colorSubtle)
	activePanelStyle = framed.BorderForeground(colorPrimary)

	activeTabStyle = fg(colorPrimary).Bold(true).Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary)
	inactiveTabStyle = fg(colorDim).Padding(0, 2)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorDim).Padding(0, 1)

	// Spindle clock on the machine view; green while accumulating.
	timerStyle        = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorOK)

	cellCursorStyle = fg(colorInk).Background(colorSelection)
	spindleRowStyle = fg(colorSpindle)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorText)

	titleStyle     = fg(colorText).Bold(true)
	mutedStyle     = fg(colorDim)
	highlightStyle = fg(colorSelection)
	successStyle   = fg(colorOK)
	warningStyle   = fg(colorCaution)
	errorStyle     = fg(colorFault)
)
