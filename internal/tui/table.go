package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tooldb/internal/store"
)

// grid is a row/column cursor over one of the registry tables.
type grid struct {
	layout *store.Layout
	cols   []int // visible layout columns
	cursor int
	col    int
}

func newGrid(l *store.Layout, names ...string) grid {
	g := grid{layout: l}
	for _, n := range names {
		if i, ok := l.Index(n); ok {
			g.cols = append(g.cols, i)
		}
	}
	return g
}

// move handles cursor keys and reports whether msg was consumed.
func (g *grid) move(msg tea.KeyMsg, rows int) bool {
	switch {
	case key.Matches(msg, keys.Up):
		if g.cursor > 0 {
			g.cursor--
		}
	case key.Matches(msg, keys.Down):
		if g.cursor < rows-1 {
			g.cursor++
		}
	case key.Matches(msg, keys.Left):
		if g.col > 0 {
			g.col--
		}
	case key.Matches(msg, keys.Right):
		if g.col < len(g.cols)-1 {
			g.col++
		}
	default:
		return false
	}
	return true
}

func (g *grid) clamp(rows int) {
	if g.cursor >= rows {
		g.cursor = max(0, rows-1)
	}
}

// column returns the layout column under the cursor.
func (g grid) column() store.Column {
	return g.layout.Columns[g.cols[g.col]]
}

func columnWidth(c store.Column) int {
	switch c.Kind {
	case store.KindText:
		return 20
	case store.KindBoolExclusive:
		return 4
	case store.KindFloatBounded:
		return 11
	}
	return max(6, len(c.Name)+1)
}

// render draws rows (in layout column order) with the cell cursor. mark
// decorates a row, for instance the tool in the spindle.
func (g grid) render(rows [][]any, display func(col string, v any) string, mark func(row int) bool) string {
	var b strings.Builder

	var head []string
	for _, ci := range g.cols {
		c := g.layout.Columns[ci]
		head = append(head, fmt.Sprintf("%-*s", columnWidth(c), c.Name))
	}
	b.WriteString(mutedStyle.Render("  " + strings.Join(head, " ")))

	for r, row := range rows {
		b.WriteString("\n")
		prefix := "  "
		style := normalItemStyle
		if mark != nil && mark(r) {
			prefix = "● "
			style = spindleRowStyle
		}
		if r == g.cursor {
			prefix = "> "
			style = selectedItemStyle
		}
		b.WriteString(style.Render(prefix))
		for i, ci := range g.cols {
			c := g.layout.Columns[ci]
			w := columnWidth(c)
			text := display(c.Name, row[ci])
			if len(text) > w {
				text = text[:w-1] + "…"
			}
			cell := fmt.Sprintf("%-*s", w, text)
			if r == g.cursor && i == g.col {
				b.WriteString(cellCursorStyle.Render(cell))
			} else {
				b.WriteString(style.Render(cell))
			}
			b.WriteString(" ")
		}
	}
	return b.String()
}

// editForm prompts for one value. The pointer survives value copies of the
// owning model.
type editForm struct {
	form  *huh.Form
	value *string
	title string
	tool  int
	field string
}

func newEditForm(title string, tool int, field, current string, validate func(string) error) editForm {
	v := current
	f := editForm{value: &v, title: title, tool: tool, field: field}
	input := huh.NewInput().Title(field).Value(f.value)
	if validate != nil {
		input = input.Validate(validate)
	}
	f.form = huh.NewForm(huh.NewGroup(input)).WithShowHelp(true).WithShowErrors(true)
	return f
}

func (f editForm) active() bool { return f.form != nil }

// update forwards msg to the form. done is true when the form was submitted;
// esc cancels and clears the form.
func (f editForm) update(msg tea.Msg) (editForm, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			return editForm{}, nil, false
		}
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	if f.form.State == huh.StateCompleted {
		return f, nil, true
	}
	return f, cmd, false
}

func (f editForm) view(width int) string {
	title := titleStyle.Render(f.title)
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", f.form.View()),
	)
}
