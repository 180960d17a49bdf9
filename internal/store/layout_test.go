package store

import (
	"errors"
	"testing"
)

func TestLayoutIndex(t *testing.T) {
	if i, ok := OffsetLayout.Index("Tool"); !ok || i != 2 {
		t.Fatalf("Tool index = %d, %v", i, ok)
	}
	if i, ok := OffsetLayout.Index("Comment"); !ok || i != 17 {
		t.Fatalf("Comment index = %d, %v", i, ok)
	}
	if i, ok := ToolLayout.Index("ICON"); !ok || i != 9 {
		t.Fatalf("ICON index = %d, %v", i, ok)
	}
	if _, ok := ToolLayout.Index("nope"); ok {
		t.Fatal("unknown column should not be found")
	}
}

func TestValuesMatchLayout(t *testing.T) {
	o := ToolOffset{ID: 1, Tool: 2, Comment: "c"}
	if got := len(o.Values()); got != len(OffsetLayout.Columns) {
		t.Fatalf("offset values %d, columns %d", got, len(OffsetLayout.Columns))
	}
	m := ToolMeta{ID: 1}
	if got := len(m.Values()); got != len(ToolLayout.Columns) {
		t.Fatalf("tool values %d, columns %d", got, len(ToolLayout.Columns))
	}
	i, _ := OffsetLayout.Index("Comment")
	if o.Values()[i] != "c" {
		t.Fatal("Comment not at its layout index")
	}
}

func TestColumnParse(t *testing.T) {
	tests := []struct {
		table *Layout
		col   string
		in    string
		want  any
		err   bool
	}{
		{OffsetLayout, "Tool", "12", 12, false},
		{OffsetLayout, "Tool", "101", nil, true},
		{OffsetLayout, "Pocket", "-1", nil, true},
		{OffsetLayout, "Z", " 1.23456 ", 1.2346, false},
		{OffsetLayout, "Z", "abc", nil, true},
		{OffsetLayout, "X", "100000", nil, true},
		{OffsetLayout, "Chk", "true", true, false},
		{OffsetLayout, "Comment", " drill ", "drill", false},
		{OffsetLayout, "idn", "1", nil, true},
		{ToolLayout, "RPM", "24000", 24000, false},
		{ToolLayout, "RPM", "24001", nil, true},
		{ToolLayout, "FLUTES", "9", nil, true},
		{ToolLayout, "FEED", "6000", 6000, false},
		{ToolLayout, "CPT", "0.0125", 0.013, false},
		{ToolLayout, "TIME", "1", nil, true},
	}
	for _, tt := range tests {
		col, ok := tt.table.Column(tt.col)
		if !ok {
			t.Fatalf("no column %s", tt.col)
		}
		got, err := col.Parse(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("%s(%q): expected ErrInvalidValue, got %v", tt.col, tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s(%q): %v", tt.col, tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s(%q) = %v, want %v", tt.col, tt.in, got, tt.want)
		}
	}
}

func TestColumnFormat(t *testing.T) {
	c, _ := OffsetLayout.Column("Z")
	if got := c.Format(1.5, true); got != "1.500" {
		t.Fatalf("metric = %q", got)
	}
	if got := c.Format(1.5, false); got != "1.5000" {
		t.Fatalf("imperial = %q", got)
	}
	if got := c.Format(7, true); got != "7" {
		t.Fatalf("int = %q", got)
	}
	if got := c.Format(true, true); got != "[x]" {
		t.Fatalf("bool = %q", got)
	}
}
