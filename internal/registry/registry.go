// Package registry keeps the offsets and tool metadata tables consistent with
// the controller's authoritative tool table and tracks spindle time per tool.
//
// A Registry is driven from a single control goroutine: reconciliation,
// edits and events must not interleave. It is not safe for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
)

// MaxToolNumbers is the size of the tool number space searched by
// NextAvailableToolNumber.
const MaxToolNumbers = 100

var (
	ErrToolTableFull = errors.New("all tool numbers in use")
	ErrNotEditable   = errors.New("table is not editable")
	ErrUnknownField  = errors.New("unknown field")
	ErrInvalidValue  = store.ErrInvalidValue
)

// Source is the controller-side tool table, the ground truth for
// reconciliation.
type Source interface {
	GetToolList() ([]tooltable.Record, error)
	SaveToolList([]tooltable.Record) error
	AddTool(tooltable.Record) error
	DeleteTools(tools ...int) error
}

// Options configures a Registry.
type Options struct {
	Logger *log.Logger
	// OffsetLayout and ToolLayout default to store.OffsetLayout and
	// store.ToolLayout.
	OffsetLayout *store.Layout
	ToolLayout   *store.Layout
	// Now defaults to time.Now.
	Now func() time.Time
}

type Registry struct {
	store  *store.Store
	source Source
	log    *log.Logger
	now    func() time.Time

	offsetLayout *store.Layout
	toolLayout   *store.Layout

	offsets []store.ToolOffset
	meta    []store.ToolMeta
	rows    map[int]int // tool number -> row index
	known   map[int]struct{}

	timer *UsageTimer

	homed    bool
	editMode bool
	metric   bool
}

// New loads the registry from s. Call Refresh to reconcile against src.
func New(s *store.Store, src Source, opts Options) (*Registry, error) {
	if src == nil {
		return nil, errors.New("registry: nil source")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OffsetLayout == nil {
		opts.OffsetLayout = store.OffsetLayout
	}
	if opts.ToolLayout == nil {
		opts.ToolLayout = store.ToolLayout
	}
	r := &Registry{
		store:        s,
		source:       src,
		log:          opts.Logger,
		now:          opts.Now,
		offsetLayout: opts.OffsetLayout,
		toolLayout:   opts.ToolLayout,
		editMode:     s.GetBool("edit_mode", false),
		metric:       s.GetBool("metric_display", true),
	}
	r.timer = newUsageTimer(s, r.log, r.now)
	if err := r.reload(); err != nil {
		return nil, err
	}
	r.known = make(map[int]struct{}, len(r.offsets))
	for _, o := range r.offsets {
		r.known[o.Tool] = struct{}{}
	}
	return r, nil
}

// reload refreshes the row cache from the store.
func (r *Registry) reload() error {
	offsets, err := r.store.ListOffsets()
	if err != nil {
		return fmt.Errorf("reload offsets: %w", err)
	}
	meta, err := r.store.ListMeta()
	if err != nil {
		return fmt.Errorf("reload tools: %w", err)
	}
	r.offsets = offsets
	r.meta = meta
	r.rows = make(map[int]int, len(offsets))
	for i, o := range offsets {
		if _, dup := r.rows[o.Tool]; !dup {
			r.rows[o.Tool] = i
		}
	}
	return nil
}

// FindRowByToolNumber returns the offsets row index of tool. ok is false
// when the tool has no row.
func (r *Registry) FindRowByToolNumber(tool int) (row int, ok bool) {
	row, ok = r.rows[tool]
	return row, ok
}

// NextAvailableToolNumber returns the lowest tool number in 0..99 that is not
// in the known set.
func (r *Registry) NextAvailableToolNumber() (int, error) {
	for n := 0; n < MaxToolNumbers; n++ {
		if _, used := r.known[n]; !used {
			return n, nil
		}
	}
	return 0, ErrToolTableFull
}

// ListCheckedToolNumbers returns the tool numbers of all checked rows.
func (r *Registry) ListCheckedToolNumbers() []int {
	var checked []int
	for _, o := range r.offsets {
		if o.Checked {
			checked = append(checked, o.Tool)
		}
	}
	return checked
}

// ToolNumbers returns the known tool numbers in ascending order.
func (r *Registry) ToolNumbers() []int {
	tools := make([]int, 0, len(r.known))
	for n := range r.known {
		tools = append(tools, n)
	}
	slices.Sort(tools)
	return tools
}

// Offsets returns a copy of the offsets rows in row order.
func (r *Registry) Offsets() []store.ToolOffset {
	return slices.Clone(r.offsets)
}

// Tools returns a copy of the tool metadata rows in row order.
func (r *Registry) Tools() []store.ToolMeta {
	return slices.Clone(r.meta)
}

// Offset returns the offsets row of tool.
func (r *Registry) Offset(tool int) (store.ToolOffset, bool) {
	row, ok := r.rows[tool]
	if !ok {
		return store.ToolOffset{}, false
	}
	return r.offsets[row], true
}

// Meta returns the tool metadata row of tool.
func (r *Registry) Meta(tool int) (store.ToolMeta, bool) {
	for _, m := range r.meta {
		if m.Tool == tool {
			return m, true
		}
	}
	return store.ToolMeta{}, false
}

// ToolIcon returns the icon reference of tool.
func (r *Registry) ToolIcon(tool int) (string, bool) {
	m, ok := r.Meta(tool)
	if !ok || m.Icon == "" {
		return "", false
	}
	return m.Icon, true
}

// MaxZ returns the tool length of tool.
func (r *Registry) MaxZ(tool int) (float64, bool) {
	m, ok := r.Meta(tool)
	if !ok {
		return 0, false
	}
	return m.Length, true
}

// OffsetLayout returns the column layout of the offsets table.
func (r *Registry) OffsetLayout() *store.Layout { return r.offsetLayout }

// ToolLayout returns the column layout of the tools table.
func (r *Registry) ToolLayout() *store.Layout { return r.toolLayout }

// Batch returns the offsets rows as positional values, the format pushed to
// the controller and written by exports.
func (r *Registry) Batch() [][]any {
	batch := make([][]any, 0, len(r.offsets))
	for _, o := range r.offsets {
		batch = append(batch, o.Record().Row())
	}
	return batch
}

// Records returns the controller-side fields of every row.
func (r *Registry) Records() []tooltable.Record {
	records := make([]tooltable.Record, 0, len(r.offsets))
	for _, o := range r.offsets {
		records = append(records, o.Record())
	}
	return records
}

// SetChecked sets the check mark of tool. Checking a tool unchecks every
// other row in the same transaction.
func (r *Registry) SetChecked(tool int, checked bool) error {
	if _, ok := r.rows[tool]; !ok {
		return fmt.Errorf("tool %d: %w", tool, store.ErrNotFound)
	}
	var err error
	if checked {
		err = r.store.CheckExclusive(tool)
	} else {
		err = r.store.Uncheck(tool)
	}
	if err != nil {
		r.log.Error("set checked failed", "tool", tool, "checked", checked, "err", err)
		return err
	}
	return r.reload()
}

// SetToolIcon stores icon on the checked tool. It does nothing when no tool
// is checked.
func (r *Registry) SetToolIcon(icon string) error {
	checked := r.ListCheckedToolNumbers()
	if len(checked) == 0 {
		return nil
	}
	if err := r.store.SetMetaField(checked[0], "ICON", icon); err != nil {
		r.log.Error("set tool icon failed", "tool", checked[0], "err", err)
		return err
	}
	return r.reload()
}

// SetEditMode enables or disables operator edits.
func (r *Registry) SetEditMode(on bool) {
	r.editMode = on
	if err := r.store.SetBool("edit_mode", on); err != nil {
		r.log.Warn("persist edit mode", "err", err)
	}
}

// EditMode reports whether edit mode is on.
func (r *Registry) EditMode() bool { return r.editMode }

// Homed reports whether the controller last reported all axes homed.
func (r *Registry) Homed() bool { return r.homed }

// Editable reports whether operator edits are accepted.
func (r *Registry) Editable() bool { return r.editMode && r.homed }

// SetMetric selects metric (3 decimals) or imperial (4 decimals) display.
func (r *Registry) SetMetric(on bool) {
	r.metric = on
	if err := r.store.SetBool("metric_display", on); err != nil {
		r.log.Warn("persist metric display", "err", err)
	}
}

// Metric reports the display unit mode.
func (r *Registry) Metric() bool { return r.metric }

// DisplayValue formats v for column col of layout l.
func (r *Registry) DisplayValue(l *store.Layout, field string, v any) string {
	col, _ := l.Column(field)
	if col.Name == "TIME" {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%.3f", f)
		}
	}
	return col.Format(v, r.metric)
}

// Timer returns the usage timer.
func (r *Registry) Timer() *UsageTimer { return r.timer }

// CurrentRow returns the row of the tool in the spindle.
func (r *Registry) CurrentRow() (int, bool) {
	if r.timer.Tool() == 0 {
		return 0, false
	}
	return r.FindRowByToolNumber(r.timer.Tool())
}
