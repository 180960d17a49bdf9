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

type offsetsModel struct {
	reg    *registry.Registry
	width  int
	height int

	grid grid
	edit editForm
}

// newOffsetsModel shows the offsets columns for the configured axes only.
func newOffsetsModel(reg *registry.Registry, axes []string) offsetsModel {
	names := []string{"Chk", "Tool", "Pocket"}
	names = append(names, axes...)
	names = append(names, "Diameter", "I", "J", "Q", "Comment")
	return offsetsModel{
		reg:  reg,
		grid: newGrid(reg.OffsetLayout(), names...),
	}
}

func (o *offsetsModel) setSize(w, h int) {
	o.width = w
	o.height = h
}

func (o offsetsModel) formActive() bool { return o.edit.active() }

func (o offsetsModel) selectedTool() (int, bool) {
	offsets := o.reg.Offsets()
	if o.grid.cursor >= len(offsets) {
		return 0, false
	}
	return offsets[o.grid.cursor].Tool, true
}

func (o offsetsModel) update(msg tea.Msg) (offsetsModel, tea.Cmd) {
	if o.edit.active() {
		return o.updateForm(msg)
	}

	rows := len(o.reg.Offsets())
	o.grid.clamp(rows)

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return o, nil
	}
	if o.grid.move(km, rows) {
		return o, nil
	}

	switch {
	case key.Matches(km, keys.Enter):
		return o.startEdit()
	case key.Matches(km, keys.Check):
		tool, ok := o.selectedTool()
		if !ok {
			return o, nil
		}
		off, _ := o.reg.Offset(tool)
		if err := o.reg.SetChecked(tool, !off.Checked); err != nil {
			return o, errorCmd("Check", err)
		}
	case key.Matches(km, keys.Add):
		if !o.reg.Editable() {
			return o, statusCmd(notEditableText, true)
		}
		n, rep, err := o.reg.AddNextTool()
		if err != nil {
			return o, errorCmd("Add tool", err)
		}
		if row, ok := o.reg.FindRowByToolNumber(n); ok {
			o.grid.cursor = row
		}
		return o, reportCmd(fmt.Sprintf("Added T%d", n), rep)
	case key.Matches(km, keys.Delete):
		tool, ok := o.selectedTool()
		if !ok {
			return o, nil
		}
		if !o.reg.Editable() {
			return o, statusCmd(notEditableText, true)
		}
		rep, err := o.reg.DeleteTools(tool)
		if err != nil {
			return o, errorCmd("Delete tool", err)
		}
		o.grid.clamp(len(o.reg.Offsets()))
		return o, reportCmd(fmt.Sprintf("Deleted T%d", tool), rep)
	}
	return o, nil
}

const notEditableText = "Table is locked: turn on edit mode (w) and home the machine"

func (o offsetsModel) startEdit() (offsetsModel, tea.Cmd) {
	tool, ok := o.selectedTool()
	if !ok {
		return o, nil
	}
	col := o.grid.column()
	switch {
	case col.Kind == store.KindBoolExclusive:
		off, _ := o.reg.Offset(tool)
		if err := o.reg.SetChecked(tool, !off.Checked); err != nil {
			return o, errorCmd("Check", err)
		}
		return o, nil
	case col.Kind == store.KindReadOnly:
		return o, statusCmd(col.Name+" is read-only", true)
	case !o.reg.Editable():
		return o, statusCmd(notEditableText, true)
	}

	off, _ := o.reg.Offset(tool)
	current := rawValue(off.Values()[o.grid.cols[o.grid.col]])
	o.edit = newEditForm(fmt.Sprintf("T%d offsets", tool), tool, col.Name, current, func(s string) error {
		_, err := col.Parse(s)
		return err
	})
	return o, o.edit.form.Init()
}

func (o offsetsModel) updateForm(msg tea.Msg) (offsetsModel, tea.Cmd) {
	edit, cmd, done := o.edit.update(msg)
	if !done {
		o.edit = edit
		return o, cmd
	}
	o.edit = editForm{}
	if err := o.reg.EditOffset(edit.tool, edit.field, *edit.value); err != nil {
		return o, errorCmd("Edit", err)
	}
	return o, statusCmd(fmt.Sprintf("T%d %s = %s", edit.tool, edit.field, *edit.value), false)
}

func (o offsetsModel) view() string {
	w := o.width - 4
	if o.edit.active() {
		return o.edit.view(w)
	}

	title := titleStyle.Render("Tool Offsets")
	offsets := o.reg.Offsets()
	if len(offsets) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Tool table is empty. Press a to add a tool."),
		)
		return panelStyle.Width(w).Render(content)
	}

	rows := make([][]any, len(offsets))
	for i, off := range offsets {
		rows[i] = off.Values()
	}
	current, loaded := o.reg.CurrentRow()
	table := o.grid.render(rows,
		func(col string, v any) string { return o.reg.DisplayValue(o.reg.OffsetLayout(), col, v) },
		func(row int) bool { return loaded && row == current },
	)

	var lines []string
	lines = append(lines, title+"  "+lockIndicator(o.reg), "", table, "")
	lines = append(lines, mutedStyle.Render("  enter: edit  space: check  a: add  d: delete  ←/→: column"))
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func lockIndicator(reg *registry.Registry) string {
	units := "mm"
	if !reg.Metric() {
		units = "in"
	}
	if reg.Editable() {
		return successStyle.Render("EDIT") + mutedStyle.Render(" "+units)
	}
	return warningStyle.Render("LOCKED") + mutedStyle.Render(" "+units)
}

// reportCmd turns a reconcile report into a status line.
func reportCmd(prefix string, rep registry.ReconcileReport) tea.Cmd {
	if err := rep.Err(); err != nil {
		return statusCmd(fmt.Sprintf("%s with %d store errors: %s", prefix, len(rep.Failed), firstLine(err)), true)
	}
	return statusCmd(prefix, false)
}

func firstLine(err error) string {
	s := err.Error()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
