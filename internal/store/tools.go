package store

import (
	"database/sql"
	"errors"
	"fmt"
)

const toolColumns = `idn, TOOL, TIME, RPM, CPT, LENGTH, FLUTES, FEED, MFG, ICON`

func scanMeta(row scanner) (ToolMeta, error) {
	var m ToolMeta
	err := row.Scan(&m.ID, &m.Tool, &m.Time, &m.RPM, &m.CPT, &m.Length, &m.Flutes, &m.Feed, &m.MFG, &m.Icon)
	return m, err
}

// InsertMeta adds the tools row paired with offsets row id.
func (s *Store) InsertMeta(id int64, tool int) error {
	_, err := s.db.Exec(`INSERT INTO tools (idn, TOOL, TIME) VALUES (?, ?, 0.0)`, id, tool)
	if err != nil {
		return fmt.Errorf("insert tool meta %d: %w", tool, err)
	}
	return nil
}

// DeleteMeta removes a tools row by idn.
func (s *Store) DeleteMeta(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM tools WHERE idn = ?`, id); err != nil {
		return fmt.Errorf("delete tool meta %d: %w", id, err)
	}
	return nil
}

// ListMeta returns every tools row in idn order.
func (s *Store) ListMeta() ([]ToolMeta, error) {
	rows, err := s.db.Query(`SELECT ` + toolColumns + ` FROM tools ORDER BY idn`)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	var tools []ToolMeta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, m)
	}
	return tools, rows.Err()
}

// GetMetaByTool returns the tools row for a tool number.
func (s *Store) GetMetaByTool(tool int) (*ToolMeta, error) {
	m, err := scanMeta(s.db.QueryRow(
		`SELECT `+toolColumns+` FROM tools WHERE TOOL = ? ORDER BY idn LIMIT 1`, tool,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tool meta %d: %w", tool, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tool meta %d: %w", tool, err)
	}
	return &m, nil
}

// SetMetaField writes a single column of the tools row for tool. ICON may be
// written here; idn, TOOL and TIME have dedicated paths.
func (s *Store) SetMetaField(tool int, column string, value any) error {
	col, ok := ToolLayout.Column(column)
	if !ok || (col.Kind == KindReadOnly && col.Name != "ICON") {
		return fmt.Errorf("tools column %q: %w", column, ErrInvalidValue)
	}
	res, err := s.db.Exec(`UPDATE tools SET `+col.Name+` = ? WHERE TOOL = ?`, value, tool)
	if err != nil {
		return fmt.Errorf("set tool %d %s: %w", tool, column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set tool %d %s: %w", tool, column, ErrNotFound)
	}
	return nil
}

// SetToolTime stores the cumulative minutes for tool. ok is false when the
// tool has no row.
func (s *Store) SetToolTime(tool int, minutes float64) (ok bool, err error) {
	res, err := s.db.Exec(`UPDATE tools SET TIME = ? WHERE TOOL = ?`, minutes, tool)
	if err != nil {
		return false, fmt.Errorf("set time for tool %d: %w", tool, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
