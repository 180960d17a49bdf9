package store

import (
	"time"

	"github.com/sadopc/tooldb/internal/tooltable"
)

// ToolOffset is a row of the offsets table.
type ToolOffset struct {
	ID       int64
	Checked  bool
	Tool     int
	Pocket   int
	Offsets  [9]float64 // X Y Z A B C U V W
	Diameter float64
	I        float64
	J        float64
	Q        int
	Comment  string
}

// Record returns the controller-side fields of the row.
func (o ToolOffset) Record() tooltable.Record {
	return tooltable.Record{
		Tool:     o.Tool,
		Pocket:   o.Pocket,
		Offsets:  o.Offsets,
		Diameter: o.Diameter,
		I:        o.I,
		J:        o.J,
		Q:        o.Q,
		Comment:  o.Comment,
	}
}

// Values returns the row in OffsetLayout column order.
func (o ToolOffset) Values() []any {
	return append([]any{o.ID, o.Checked}, o.Record().Row()...)
}

// ToolMeta is a row of the tools table. ID equals the paired ToolOffset.ID.
type ToolMeta struct {
	ID     int64
	Tool   int
	Time   float64 // cumulative minutes
	RPM    int
	CPT    float64 // chip load per tooth
	Length float64
	Flutes int
	Feed   int
	MFG    string
	Icon   string
}

// Values returns the row in ToolLayout column order.
func (m ToolMeta) Values() []any {
	return []any{m.ID, m.Tool, m.Time, m.RPM, m.CPT, m.Length, m.Flutes, m.Feed, m.MFG, m.Icon}
}

// UsageSession is one committed stretch of spindle time for a tool.
type UsageSession struct {
	ID        int64
	Tool      int
	StartTime time.Time
	EndTime   time.Time
	Seconds   int64
}

// UsageFilter is used to filter usage sessions in queries.
type UsageFilter struct {
	Tool  *int
	Limit int
}

// ToolUsage aggregates usage per tool.
type ToolUsage struct {
	Tool     int
	Minutes  float64
	Sessions int
}

type Setting struct {
	Key   string
	Value string
}
