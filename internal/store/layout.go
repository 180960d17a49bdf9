package store

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidValue is returned when an edit value fails to parse or is out of
// range for its column.
var ErrInvalidValue = errors.New("invalid value")

// FieldKind selects how a column is edited and validated.
type FieldKind int

const (
	KindReadOnly FieldKind = iota
	KindIntBounded
	KindFloatBounded
	KindText
	KindBoolExclusive
)

// Column describes one table column.
type Column struct {
	Name     string
	Kind     FieldKind
	Min, Max float64
	Decimals int
}

// Layout is the ordered column list of a table.
type Layout struct {
	Table   string
	Columns []Column
	index   map[string]int
}

func newLayout(table string, cols ...Column) *Layout {
	l := &Layout{Table: table, Columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		l.index[c.Name] = i
	}
	return l
}

// Index returns the position of the named column.
func (l *Layout) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

// Column returns the named column.
func (l *Layout) Column(name string) (Column, bool) {
	i, ok := l.index[name]
	if !ok {
		return Column{}, false
	}
	return l.Columns[i], true
}

// Names returns the column names in order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		names[i] = c.Name
	}
	return names
}

func intCol(name string, lo, hi float64) Column {
	return Column{Name: name, Kind: KindIntBounded, Min: lo, Max: hi}
}

func floatCol(name string) Column {
	return Column{Name: name, Kind: KindFloatBounded, Min: -99999, Max: 99999, Decimals: 4}
}

func readOnly(name string) Column {
	return Column{Name: name, Kind: KindReadOnly}
}

// OffsetLayout describes the offsets table.
var OffsetLayout = newLayout("offsets",
	readOnly("idn"),
	Column{Name: "Chk", Kind: KindBoolExclusive},
	intCol("Tool", 0, 100),
	intCol("Pocket", 0, 100),
	floatCol("X"), floatCol("Y"), floatCol("Z"),
	floatCol("A"), floatCol("B"), floatCol("C"),
	floatCol("U"), floatCol("V"), floatCol("W"),
	floatCol("Diameter"),
	floatCol("I"), floatCol("J"),
	intCol("Q", 0, 9),
	Column{Name: "Comment", Kind: KindText},
)

// ToolLayout describes the tools table.
var ToolLayout = newLayout("tools",
	readOnly("idn"),
	readOnly("TOOL"),
	Column{Name: "TIME", Kind: KindReadOnly, Decimals: 3},
	intCol("RPM", 0, 24000),
	Column{Name: "CPT", Kind: KindFloatBounded, Min: 0, Max: 99999, Decimals: 3},
	Column{Name: "LENGTH", Kind: KindFloatBounded, Min: 0, Max: 99999, Decimals: 3},
	intCol("FLUTES", 0, 8),
	intCol("FEED", 0, 6000),
	Column{Name: "MFG", Kind: KindText},
	readOnly("ICON"),
)

// Parse converts operator input into the column's Go value: int, float64,
// string or bool depending on Kind.
func (c Column) Parse(s string) (any, error) {
	s = strings.TrimSpace(s)
	switch c.Kind {
	case KindIntBounded:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a whole number: %w", c.Name, s, ErrInvalidValue)
		}
		if float64(n) < c.Min || float64(n) > c.Max {
			return nil, fmt.Errorf("%s: %d outside %g..%g: %w", c.Name, n, c.Min, c.Max, ErrInvalidValue)
		}
		return n, nil
	case KindFloatBounded:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return nil, fmt.Errorf("%s: %q is not a number: %w", c.Name, s, ErrInvalidValue)
		}
		if f < c.Min || f > c.Max {
			return nil, fmt.Errorf("%s: %g outside %g..%g: %w", c.Name, f, c.Min, c.Max, ErrInvalidValue)
		}
		p := math.Pow(10, float64(c.Decimals))
		return math.Round(f*p) / p, nil
	case KindText:
		return s, nil
	case KindBoolExclusive:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not true/false: %w", c.Name, s, ErrInvalidValue)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%s is read-only: %w", c.Name, ErrInvalidValue)
}

// Format renders v for display. Floats get 3 decimals in metric mode and 4
// otherwise.
func (c Column) Format(v any, metric bool) string {
	switch x := v.(type) {
	case float64:
		if metric {
			return strconv.FormatFloat(x, 'f', 3, 64)
		}
		return strconv.FormatFloat(x, 'f', 4, 64)
	case bool:
		if x {
			return "[x]"
		}
		return "[ ]"
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
