package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tooldb/internal/store"
)

// OffsetsToCSV writes the offsets table, one row per tool, with the column
// names of store.OffsetLayout. The surrogate idn is left out.
func OffsetsToCSV(offsets []store.ToolOffset, path string) error {
	rows := make([][]any, 0, len(offsets))
	for _, o := range offsets {
		rows = append(rows, o.Values()[1:])
	}
	return writeCSV(path, store.OffsetLayout.Names()[1:], rows)
}

// ToolsToCSV writes the tool metadata table. The surrogate idn is left out.
func ToolsToCSV(meta []store.ToolMeta, path string) error {
	rows := make([][]any, 0, len(meta))
	for _, m := range meta {
		rows = append(rows, m.Values()[1:])
	}
	return writeCSV(path, store.ToolLayout.Names()[1:], rows)
}

// UsageToCSV writes committed spindle sessions.
func UsageToCSV(sessions []store.UsageSession, path string) error {
	rows := make([][]any, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []any{
			s.ID,
			s.Tool,
			s.StartTime.Local().Format(time.RFC3339),
			s.EndTime.Local().Format(time.RFC3339),
			s.Seconds,
			formatDuration(s.Seconds),
		})
	}
	return writeCSV(path, []string{"ID", "Tool", "Start", "End", "Duration (s)", "Duration"}, rows)
}

func writeCSV(path string, header []string, rows [][]any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
