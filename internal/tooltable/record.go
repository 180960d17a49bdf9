// Package tooltable holds the controller-side view of the tool table: the
// Record type exchanged with the motion controller, the positional row codec
// used for batch save/export, and tool table sources.
package tooltable

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Axes lists the offset axes in column order.
var Axes = [9]string{"X", "Y", "Z", "A", "B", "C", "U", "V", "W"}

// DefaultComment is given to tools that arrive without one.
const DefaultComment = "New tool"

// RowLen is the number of positional values in a batch row.
const RowLen = 16

// Record is one entry of the authoritative tool table.
type Record struct {
	Tool     int
	Pocket   int
	Offsets  [9]float64 // X Y Z A B C U V W
	Diameter float64
	I        float64
	J        float64
	Q        int
	Comment  string
}

// New returns a blank record for tool number tno, stored in the pocket of the
// same number.
func New(tno int) Record {
	return Record{Tool: tno, Pocket: tno, Comment: DefaultComment}
}

// Normalized fills defaults a stored row would receive.
func (r Record) Normalized() Record {
	if r.Comment == "" {
		r.Comment = DefaultComment
	}
	return r
}

// Row returns the record as positional values:
// Tool, Pocket, X..W, Diameter, I, J, Q, Comment.
func (r Record) Row() []any {
	row := make([]any, 0, RowLen)
	row = append(row, r.Tool, r.Pocket)
	for _, v := range r.Offsets {
		row = append(row, v)
	}
	row = append(row, r.Diameter, r.I, r.J, r.Q, r.Comment)
	return row
}

// FromRow decodes a positional row produced by Row. Numbers may arrive as any
// Go numeric type, json.Number or numeric strings.
func FromRow(row []any) (Record, error) {
	var r Record
	if len(row) != RowLen {
		return r, fmt.Errorf("row has %d values, want %d", len(row), RowLen)
	}
	var err error
	if r.Tool, err = toInt(row[0]); err != nil {
		return r, fmt.Errorf("tool: %w", err)
	}
	if r.Pocket, err = toInt(row[1]); err != nil {
		return r, fmt.Errorf("pocket: %w", err)
	}
	for i := range r.Offsets {
		if r.Offsets[i], err = toFloat(row[2+i]); err != nil {
			return r, fmt.Errorf("%s: %w", Axes[i], err)
		}
	}
	if r.Diameter, err = toFloat(row[11]); err != nil {
		return r, fmt.Errorf("diameter: %w", err)
	}
	if r.I, err = toFloat(row[12]); err != nil {
		return r, fmt.Errorf("I: %w", err)
	}
	if r.J, err = toFloat(row[13]); err != nil {
		return r, fmt.Errorf("J: %w", err)
	}
	if r.Q, err = toInt(row[14]); err != nil {
		return r, fmt.Errorf("Q: %w", err)
	}
	switch c := row[15].(type) {
	case string:
		r.Comment = c
	case nil:
	default:
		r.Comment = fmt.Sprint(c)
	}
	return r, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(n)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}
