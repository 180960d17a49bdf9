package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tooldb/internal/export"
	"github.com/sadopc/tooldb/internal/registry"
	"github.com/sadopc/tooldb/internal/store"
)

// Options configures the App.
type Options struct {
	// Axes lists the offset columns shown, e.g. X Y Z.
	Axes []string
	// Heartbeat is the status poll interval that drives the usage timer.
	Heartbeat time.Duration
	// ExportDir defaults to the home directory.
	ExportDir string
}

var exportFormats = []string{"Offsets CSV", "Tools CSV", "Usage CSV", "JSON"}

// App is the root Bubble Tea model. Every registry call happens inside
// Update, which makes the Bubble Tea loop the registry's control thread.
type App struct {
	reg       *registry.Registry
	store     *store.Store
	heartbeat time.Duration
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	offsets offsetsModel
	tools   toolsModel
	usage   usageModel
	machine machineModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(reg *registry.Registry, s *store.Store, opts Options) App {
	h := help.New()
	h.ShowAll = false

	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 100 * time.Millisecond
	}
	if len(opts.Axes) == 0 {
		opts.Axes = []string{"X", "Y", "Z"}
	}
	if opts.ExportDir == "" {
		opts.ExportDir, _ = os.UserHomeDir()
	}

	return App{
		reg:        reg,
		store:      s,
		heartbeat:  opts.Heartbeat,
		exportDir:  opts.ExportDir,
		activeView: viewOffsets,
		offsets:    newOffsetsModel(reg, opts.Axes),
		tools:      newToolsModel(reg),
		usage:      newUsageModel(s),
		machine:    newMachineModel(reg, s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.machine.Init(),
		a.tickCmd(),
	)
}

func (a App) tickCmd() tea.Cmd {
	return tea.Tick(a.heartbeat, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.offsets.setSize(a.width, contentHeight)
		a.tools.setSize(a.width, contentHeight)
		a.usage.setSize(a.width, contentHeight)
		a.machine.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
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
		case key.Matches(msg, keys.Metric):
			a.reg.SetMetric(!a.reg.Metric())
			return a, a.machine.loadData()
		case key.Matches(msg, keys.EditMode):
			a.reg.SetEditMode(!a.reg.EditMode())
			return a, a.machine.loadData()
		case key.Matches(msg, keys.Refresh):
			rep := a.reg.Refresh()
			return a, tea.Batch(reportCmd("Tool table reloaded", rep), a.refreshCurrentView())
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewOffsets
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTools
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewUsage
			return a, a.usage.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewMachine
			return a, a.machine.loadData()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		a.reg.Handle(registry.Heartbeat{})
		return a, a.tickCmd()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case usageDataMsg:
		var cmd tea.Cmd
		a.usage, cmd = a.usage.update(msg)
		return a, cmd

	case machineDataMsg:
		var cmd tea.Cmd
		a.machine, cmd = a.machine.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewOffsets:
		a.offsets, cmd = a.offsets.update(msg)
	case viewTools:
		a.tools, cmd = a.tools.update(msg)
	case viewUsage:
		a.usage, cmd = a.usage.update(msg)
	case viewMachine:
		a.machine, cmd = a.machine.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewOffsets:
		return a.offsets.formActive()
	case viewTools:
		return a.tools.formActive()
	case viewMachine:
		return a.machine.picking
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewUsage:
		return a.usage.refresh()
	case viewMachine:
		return a.machine.loadData()
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
	case viewOffsets:
		content = a.offsets.view()
	case viewTools:
		content = a.tools.view()
	case viewUsage:
		content = a.usage.view()
	case viewMachine:
		content = a.machine.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
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

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tooldb")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		}
	}

	// Spindle indicator in footer
	timerInfo := ""
	if t := a.reg.Timer(); t.Running() {
		timerInfo = successStyle.Render(fmt.Sprintf(" ● T%d %s", t.Tool(), formatDuration(t.Elapsed())))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
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
		if a.exportCursor < len(exportFormats)-1 {
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

// doExport snapshots the registry on the Update goroutine; only the file
// writing runs in the command.
func (a App) doExport(format int) tea.Cmd {
	offsets := a.reg.Offsets()
	meta := a.reg.Tools()
	batch := a.reg.Batch()
	s := a.store
	dateStr := time.Now().Format("2006-01-02")

	return func() tea.Msg {
		var path string
		var err error
		switch format {
		case 0:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tooldb-offsets-%s.csv", dateStr))
			err = export.OffsetsToCSV(offsets, path)
		case 1:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tooldb-tools-%s.csv", dateStr))
			err = export.ToolsToCSV(meta, path)
		case 2:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tooldb-usage-%s.csv", dateStr))
			sessions, lerr := s.ListUsage(store.UsageFilter{})
			if lerr != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", lerr), isError: true}
			}
			err = export.UsageToCSV(sessions, path)
		default:
			path = filepath.Join(a.exportDir, fmt.Sprintf("tooldb-export-%s.json", dateStr))
			err = export.ToJSON(batch, meta, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s error: %v", exportFormats[format], err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
