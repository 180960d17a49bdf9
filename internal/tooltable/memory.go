package tooltable

import (
	"fmt"
	"slices"
)

// Memory is an in-process tool table. It is the authoritative source when no
// controller tool table file is configured.
type Memory struct {
	records []Record
}

// NewMemory returns a table holding a copy of records.
func NewMemory(records ...Record) *Memory {
	return &Memory{records: slices.Clone(records)}
}

func (m *Memory) GetToolList() ([]Record, error) {
	return slices.Clone(m.records), nil
}

func (m *Memory) SaveToolList(records []Record) error {
	m.records = slices.Clone(records)
	return nil
}

func (m *Memory) AddTool(r Record) error {
	for _, existing := range m.records {
		if existing.Tool == r.Tool {
			return fmt.Errorf("add tool %d: %w", r.Tool, ErrDuplicateTool)
		}
	}
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) DeleteTools(tools ...int) error {
	m.records = slices.DeleteFunc(m.records, func(r Record) bool {
		return slices.Contains(tools, r.Tool)
	})
	return nil
}
