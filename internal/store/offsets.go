package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sadopc/tooldb/internal/tooltable"
)

const offsetColumns = `idn, Chk, Tool, Pocket, X, Y, Z, A, B, C, U, V, W, Diameter, I, J, Q, Comment`

type scanner interface {
	Scan(dest ...any) error
}

func scanOffset(row scanner) (ToolOffset, error) {
	var o ToolOffset
	var chk int
	err := row.Scan(&o.ID, &chk, &o.Tool, &o.Pocket,
		&o.Offsets[0], &o.Offsets[1], &o.Offsets[2], &o.Offsets[3], &o.Offsets[4],
		&o.Offsets[5], &o.Offsets[6], &o.Offsets[7], &o.Offsets[8],
		&o.Diameter, &o.I, &o.J, &o.Q, &o.Comment)
	o.Checked = chk == 1
	return o, err
}

func recordArgs(r tooltable.Record) []any {
	args := []any{r.Tool, r.Pocket}
	for _, v := range r.Offsets {
		args = append(args, v)
	}
	return append(args, r.Diameter, r.I, r.J, r.Q, r.Comment)
}

// InsertOffset adds an offsets row for r and returns its idn.
func (s *Store) InsertOffset(r tooltable.Record) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO offsets (Tool, Pocket, X, Y, Z, A, B, C, U, V, W, Diameter, I, J, Q, Comment)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recordArgs(r)...,
	)
	if err != nil {
		return 0, fmt.Errorf("insert offset for tool %d: %w", r.Tool, err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// UpdateOffset overwrites every controller field of row id. Chk is untouched.
func (s *Store) UpdateOffset(id int64, r tooltable.Record) error {
	args := append(recordArgs(r), id)
	_, err := s.db.Exec(
		`UPDATE offsets SET Tool = ?, Pocket = ?, X = ?, Y = ?, Z = ?, A = ?, B = ?, C = ?,
		 U = ?, V = ?, W = ?, Diameter = ?, I = ?, J = ?, Q = ?, Comment = ? WHERE idn = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update offset %d: %w", id, err)
	}
	return nil
}

// SetOffsetField writes a single column of row id. column must be an editable
// OffsetLayout column.
func (s *Store) SetOffsetField(id int64, column string, value any) error {
	col, ok := OffsetLayout.Column(column)
	if !ok || col.Kind == KindReadOnly || col.Kind == KindBoolExclusive {
		return fmt.Errorf("offsets column %q: %w", column, ErrInvalidValue)
	}
	_, err := s.db.Exec(`UPDATE offsets SET `+col.Name+` = ? WHERE idn = ?`, value, id)
	if err != nil {
		return fmt.Errorf("set offset %d %s: %w", id, column, err)
	}
	return nil
}

// ListOffsets returns every offsets row in idn order.
func (s *Store) ListOffsets() ([]ToolOffset, error) {
	rows, err := s.db.Query(`SELECT ` + offsetColumns + ` FROM offsets ORDER BY idn`)
	if err != nil {
		return nil, fmt.Errorf("list offsets: %w", err)
	}
	defer rows.Close()

	var offsets []ToolOffset
	for rows.Next() {
		o, err := scanOffset(rows)
		if err != nil {
			return nil, err
		}
		offsets = append(offsets, o)
	}
	return offsets, rows.Err()
}

// GetOffsetByTool returns the offsets row for a tool number.
func (s *Store) GetOffsetByTool(tool int) (*ToolOffset, error) {
	o, err := scanOffset(s.db.QueryRow(
		`SELECT `+offsetColumns+` FROM offsets WHERE Tool = ? ORDER BY idn LIMIT 1`, tool,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("offset for tool %d: %w", tool, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get offset for tool %d: %w", tool, err)
	}
	return &o, nil
}

// DeleteToolRows removes the offsets row id and its paired tools row.
func (s *Store) DeleteToolRows(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete rows %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM offsets WHERE idn = ?`, id); err != nil {
		return fmt.Errorf("delete offset %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM tools WHERE idn = ?`, id); err != nil {
		return fmt.Errorf("delete tool %d: %w", id, err)
	}
	return tx.Commit()
}

// CheckExclusive clears Chk on every row and sets it on the rows of tool, in
// one transaction.
func (s *Store) CheckExclusive(tool int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("check tool %d: %w", tool, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE offsets SET Chk = 0 WHERE Chk != 0`); err != nil {
		return fmt.Errorf("uncheck all: %w", err)
	}
	res, err := tx.Exec(`UPDATE offsets SET Chk = 1 WHERE Tool = ?`, tool)
	if err != nil {
		return fmt.Errorf("check tool %d: %w", tool, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("check tool %d: %w", tool, ErrNotFound)
	}
	return tx.Commit()
}

// Uncheck clears Chk for tool.
func (s *Store) Uncheck(tool int) error {
	_, err := s.db.Exec(`UPDATE offsets SET Chk = 0 WHERE Tool = ?`, tool)
	if err != nil {
		return fmt.Errorf("uncheck tool %d: %w", tool, err)
	}
	return nil
}

// ListChecked returns the tool numbers of checked rows in idn order.
func (s *Store) ListChecked() ([]int, error) {
	rows, err := s.db.Query(`SELECT Tool FROM offsets WHERE Chk = 1 ORDER BY idn`)
	if err != nil {
		return nil, fmt.Errorf("list checked: %w", err)
	}
	defer rows.Close()

	var tools []int
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

// RenumberTool moves a tool to a new number in both tables.
func (s *Store) RenumberTool(from, to int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("renumber tool %d: %w", from, err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE offsets SET Tool = ? WHERE Tool = ?`, to, from)
	if err != nil {
		return fmt.Errorf("renumber offset %d: %w", from, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("renumber tool %d: %w", from, ErrNotFound)
	}
	if _, err := tx.Exec(`UPDATE tools SET TOOL = ? WHERE TOOL = ?`, to, from); err != nil {
		return fmt.Errorf("renumber tool meta %d: %w", from, err)
	}
	if _, err := tx.Exec(`UPDATE tool_usage SET tool = ? WHERE tool = ?`, to, from); err != nil {
		return fmt.Errorf("renumber usage %d: %w", from, err)
	}
	return tx.Commit()
}
