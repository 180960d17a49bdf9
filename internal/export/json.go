package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Offsets    [][]any    `json:"offsets"`
	Tools      []jsonTool `json:"tools"`
}

type jsonTool struct {
	Tool    int     `json:"tool"`
	Minutes float64 `json:"time_minutes"`
	RPM     int     `json:"rpm"`
	CPT     float64 `json:"cpt"`
	Length  float64 `json:"length"`
	Flutes  int     `json:"flutes"`
	Feed    int     `json:"feed"`
	MFG     string  `json:"mfg,omitempty"`
	Icon    string  `json:"icon,omitempty"`
}

// ToJSON writes batch (positional offsets rows as produced by
// tooltable.Record.Row) and the tool metadata to path.
func ToJSON(batch [][]any, meta []store.ToolMeta, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(batch),
		Offsets:    batch,
		Tools:      make([]jsonTool, 0, len(meta)),
	}
	if export.Offsets == nil {
		export.Offsets = [][]any{}
	}

	for _, m := range meta {
		export.Tools = append(export.Tools, jsonTool{
			Tool:    m.Tool,
			Minutes: m.Time,
			RPM:     m.RPM,
			CPT:     m.CPT,
			Length:  m.Length,
			Flutes:  m.Flutes,
			Feed:    m.Feed,
			MFG:     m.MFG,
			Icon:    m.Icon,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// ImportJSON reads the offsets batch of a file written by ToJSON. Tool
// metadata in the file is ignored.
func ImportJSON(path string) ([]tooltable.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}

	var doc struct {
		Offsets [][]any `json:"offsets"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	records := make([]tooltable.Record, 0, len(doc.Offsets))
	for i, row := range doc.Offsets {
		rec, err := tooltable.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("offsets row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
