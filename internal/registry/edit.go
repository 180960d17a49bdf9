package registry

import (
	"fmt"

	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
)

// EditOffset applies operator input to one field of tool's offsets row.
// Tool renumbers the tool in both tables, Chk goes through SetChecked, and
// every other field is written as is. Controller fields are pushed back to
// the source afterwards.
func (r *Registry) EditOffset(tool int, field, value string) error {
	col, ok := r.offsetLayout.Column(field)
	if !ok {
		return fmt.Errorf("offsets %q: %w", field, ErrUnknownField)
	}
	row, ok := r.FindRowByToolNumber(tool)
	if !ok {
		return fmt.Errorf("tool %d: %w", tool, store.ErrNotFound)
	}
	v, err := col.Parse(value)
	if err != nil {
		return err
	}
	if col.Kind == store.KindBoolExclusive {
		return r.SetChecked(tool, v.(bool))
	}
	if !r.Editable() {
		return ErrNotEditable
	}

	if col.Name == "Tool" {
		err = r.renumber(tool, v.(int))
	} else {
		err = r.store.SetOffsetField(r.offsets[row].ID, col.Name, v)
	}
	if err != nil {
		r.log.Error("edit offset failed", "tool", tool, "field", field, "err", err)
		return err
	}
	if err := r.reload(); err != nil {
		return err
	}
	r.dataChanged()
	return nil
}

func (r *Registry) renumber(from, to int) error {
	if from == to {
		return nil
	}
	if _, taken := r.rows[to]; taken {
		return fmt.Errorf("tool %d already exists: %w", to, ErrInvalidValue)
	}
	if err := r.store.RenumberTool(from, to); err != nil {
		return err
	}
	delete(r.known, from)
	r.known[to] = struct{}{}
	if r.timer.Tool() == from {
		r.timer.tool = to
	}
	return nil
}

// EditTool applies operator input to one field of tool's metadata row.
func (r *Registry) EditTool(tool int, field, value string) error {
	col, ok := r.toolLayout.Column(field)
	if !ok {
		return fmt.Errorf("tools %q: %w", field, ErrUnknownField)
	}
	if col.Kind == store.KindReadOnly {
		return fmt.Errorf("tools %q: %w", field, ErrNotEditable)
	}
	if !r.Editable() {
		return ErrNotEditable
	}
	v, err := col.Parse(value)
	if err != nil {
		return err
	}
	if err := r.store.SetMetaField(tool, col.Name, v); err != nil {
		r.log.Error("edit tool failed", "tool", tool, "field", field, "err", err)
		return err
	}
	return r.reload()
}

// dataChanged pushes the table to the controller and re-reads it.
func (r *Registry) dataChanged() {
	if r.Save() {
		r.Refresh()
	}
}

// Save pushes every row to the source. Failures are logged and reported as
// false; the registry is left as is.
func (r *Registry) Save() bool {
	r.log.Debug("saving tool table")
	if err := r.source.SaveToolList(r.Records()); err != nil {
		r.log.Error("save tool table failed", "tools", len(r.offsets), "err", err)
		return false
	}
	return true
}

// Load replaces the source's table with records and reconciles.
func (r *Registry) Load(records []tooltable.Record) (ReconcileReport, error) {
	if err := r.source.SaveToolList(records); err != nil {
		return ReconcileReport{}, fmt.Errorf("load tool table: %w", err)
	}
	return r.Refresh(), nil
}

// AddTool adds a blank tool to the source and reconciles.
func (r *Registry) AddTool(tool int) (ReconcileReport, error) {
	r.log.Debug("add tool", "tool", tool)
	if err := r.source.AddTool(tooltable.New(tool)); err != nil {
		r.log.Error("add tool failed", "tool", tool, "err", err)
		return ReconcileReport{}, err
	}
	return r.Refresh(), nil
}

// AddNextTool adds a tool at NextAvailableToolNumber.
func (r *Registry) AddNextTool() (int, ReconcileReport, error) {
	n, err := r.NextAvailableToolNumber()
	if err != nil {
		return 0, ReconcileReport{}, err
	}
	rep, err := r.AddTool(n)
	return n, rep, err
}

// DeleteTools removes tools from the source and reconciles.
func (r *Registry) DeleteTools(tools ...int) (ReconcileReport, error) {
	r.log.Debug("delete tools", "tools", tools)
	if err := r.source.DeleteTools(tools...); err != nil {
		r.log.Error("delete tools failed", "tools", tools, "err", err)
		return ReconcileReport{}, err
	}
	return r.Refresh(), nil
}
