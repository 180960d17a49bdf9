package store

import (
	"fmt"
	"time"
)

// RecordUsage appends a closed usage session for tool.
func (s *Store) RecordUsage(tool int, start, end time.Time, seconds int64) (*UsageSession, error) {
	res, err := s.db.Exec(
		`INSERT INTO tool_usage (tool, start_time, end_time, seconds) VALUES (?, ?, ?, ?)`,
		tool, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), seconds,
	)
	if err != nil {
		return nil, fmt.Errorf("record usage for tool %d: %w", tool, err)
	}
	id, _ := res.LastInsertId()
	return &UsageSession{
		ID:        id,
		Tool:      tool,
		StartTime: start.UTC().Truncate(time.Second),
		EndTime:   end.UTC().Truncate(time.Second),
		Seconds:   seconds,
	}, nil
}

func (s *Store) ListUsage(f UsageFilter) ([]UsageSession, error) {
	query := `SELECT id, tool, start_time, end_time, seconds FROM tool_usage WHERE 1=1`
	var args []any

	if f.Tool != nil {
		query += ` AND tool = ?`
		args = append(args, *f.Tool)
	}
	query += ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var sessions []UsageSession
	for rows.Next() {
		var u UsageSession
		var start, end string
		if err := rows.Scan(&u.ID, &u.Tool, &start, &end, &u.Seconds); err != nil {
			return nil, err
		}
		u.StartTime, _ = time.Parse(time.RFC3339, start)
		u.EndTime, _ = time.Parse(time.RFC3339, end)
		sessions = append(sessions, u)
	}
	return sessions, rows.Err()
}

// UsageTotals returns cumulative minutes and session counts for every tool
// in the tools table, ordered by tool number.
func (s *Store) UsageTotals() ([]ToolUsage, error) {
	rows, err := s.db.Query(`
		SELECT t.TOOL, t.TIME, COUNT(u.id)
		FROM tools t
		LEFT JOIN tool_usage u ON u.tool = t.TOOL
		GROUP BY t.idn
		ORDER BY t.TOOL`)
	if err != nil {
		return nil, fmt.Errorf("usage totals: %w", err)
	}
	defer rows.Close()

	var totals []ToolUsage
	for rows.Next() {
		var tu ToolUsage
		if err := rows.Scan(&tu.Tool, &tu.Minutes, &tu.Sessions); err != nil {
			return nil, err
		}
		totals = append(totals, tu)
	}
	return totals, rows.Err()
}
