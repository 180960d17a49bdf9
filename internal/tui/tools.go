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

const iconField = "ICON"

type toolsModel struct {
	reg    *registry.Registry
	width  int
	height int

	grid grid
	edit editForm
}

func newToolsModel(reg *registry.Registry) toolsModel {
	return toolsModel{
		reg:  reg,
		grid: newGrid(reg.ToolLayout(), "TOOL", "TIME", "RPM", "CPT", "LENGTH", "FLUTES", "FEED", "MFG", "ICON"),
	}
}

func (t *toolsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t toolsModel) formActive() bool { return t.edit.active() }

func (t toolsModel) update(msg tea.Msg) (toolsModel, tea.Cmd) {
	if t.edit.active() {
		return t.updateForm(msg)
	}

	meta := t.reg.Tools()
	t.grid.clamp(len(meta))

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	if t.grid.move(km, len(meta)) {
		return t, nil
	}

	switch {
	case key.Matches(km, keys.Enter):
		if t.grid.cursor >= len(meta) {
			return t, nil
		}
		m := meta[t.grid.cursor]
		col := t.grid.column()
		if col.Kind == store.KindReadOnly {
			return t, statusCmd(col.Name+" is read-only", true)
		}
		if !t.reg.Editable() {
			return t, statusCmd(notEditableText, true)
		}
		current := rawValue(m.Values()[t.grid.cols[t.grid.col]])
		t.edit = newEditForm(fmt.Sprintf("T%d tool data", m.Tool), m.Tool, col.Name, current, func(s string) error {
			_, err := col.Parse(s)
			return err
		})
		return t, t.edit.form.Init()

	case key.Matches(km, keys.Icon):
		checked := t.reg.ListCheckedToolNumbers()
		if len(checked) == 0 {
			return t, statusCmd("Check a tool on the Offsets tab first", true)
		}
		icon, _ := t.reg.ToolIcon(checked[0])
		t.edit = newEditForm(fmt.Sprintf("T%d icon", checked[0]), checked[0], iconField, icon, nil)
		return t, t.edit.form.Init()
	}
	return t, nil
}

func (t toolsModel) updateForm(msg tea.Msg) (toolsModel, tea.Cmd) {
	edit, cmd, done := t.edit.update(msg)
	if !done {
		t.edit = edit
		return t, cmd
	}
	t.edit = editForm{}

	var err error
	if edit.field == iconField {
		err = t.reg.SetToolIcon(strings.TrimSpace(*edit.value))
	} else {
		err = t.reg.EditTool(edit.tool, edit.field, *edit.value)
	}
	if err != nil {
		return t, errorCmd("Edit", err)
	}
	return t, statusCmd(fmt.Sprintf("T%d %s = %s", edit.tool, edit.field, *edit.value), false)
}

func (t toolsModel) view() string {
	w := t.width - 4
	if t.edit.active() {
		return t.edit.view(w)
	}

	title := titleStyle.Render("Tool Data")
	meta := t.reg.Tools()
	if len(meta) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tools yet."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := make([][]any, len(meta))
	for i, m := range meta {
		rows[i] = m.Values()
	}
	spindle := t.reg.Timer().Tool()
	table := t.grid.render(rows,
		func(col string, v any) string { return t.reg.DisplayValue(t.reg.ToolLayout(), col, v) },
		func(row int) bool { return spindle != 0 && meta[row].Tool == spindle },
	)

	var lines []string
	lines = append(lines, title+"  "+lockIndicator(t.reg), "", table, "")
	lines = append(lines, mutedStyle.Render("  enter: edit  i: icon of checked tool  ←/→: column  TIME is in minutes"))
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}
