package tooltable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// ErrDuplicateTool is returned when adding a tool number that already exists.
var ErrDuplicateTool = errors.New("tool number already in table")

// File is a tool table stored in the controller's text format, one tool per
// line:
//
//	T1 P1 Z+0.511 D0.125 ;1/8 end mill
type File struct {
	Path string
}

// NewFile returns a source backed by the tool table at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// GetToolList reads the table. A missing file is an error wrapping
// os.ErrNotExist so callers never mistake it for an empty table.
func (f *File) GetToolList() ([]Record, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open tool table: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// readForWrite is GetToolList for the mutating calls, which create the file
// when it does not exist yet.
func (f *File) readForWrite() ([]Record, error) {
	records, err := f.GetToolList()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

// SaveToolList replaces the table contents with records, in order.
func (f *File) SaveToolList(records []Record) error {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(FormatLine(r))
		b.WriteByte('\n')
	}
	return writeAtomic(f.Path, []byte(b.String()))
}

// AddTool appends r to the table.
func (f *File) AddTool(r Record) error {
	records, err := f.readForWrite()
	if err != nil {
		return err
	}
	for _, existing := range records {
		if existing.Tool == r.Tool {
			return fmt.Errorf("add tool %d: %w", r.Tool, ErrDuplicateTool)
		}
	}
	return f.SaveToolList(append(records, r))
}

// DeleteTools removes every listed tool number. Unknown numbers are ignored.
func (f *File) DeleteTools(tools ...int) error {
	records, err := f.readForWrite()
	if err != nil {
		return err
	}
	records = slices.DeleteFunc(records, func(r Record) bool {
		return slices.Contains(tools, r.Tool)
	})
	return f.SaveToolList(records)
}

// Parse reads tool table lines. Blank and comment-only lines are skipped.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		rec, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if ok {
			records = append(records, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tool table: %w", err)
	}
	return records, nil
}

// ParseLine decodes one line. ok is false for lines without a tool word.
func ParseLine(line string) (rec Record, ok bool, err error) {
	body, comment, _ := strings.Cut(line, ";")
	rec.Comment = strings.TrimSpace(comment)
	words := strings.Fields(body)
	if len(words) == 0 {
		return rec, false, nil
	}
	seenTool := false
	for _, w := range words {
		letter := strings.ToUpper(w[:1])
		val := w[1:]
		switch letter {
		case "T", "P", "Q":
			n, err := strconv.Atoi(strings.TrimPrefix(val, "+"))
			if err != nil {
				return rec, false, fmt.Errorf("word %q: %w", w, err)
			}
			switch letter {
			case "T":
				rec.Tool = n
				seenTool = true
			case "P":
				rec.Pocket = n
			case "Q":
				rec.Q = n
			}
		default:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return rec, false, fmt.Errorf("word %q: %w", w, err)
			}
			if i := slices.Index(Axes[:], letter); i >= 0 {
				rec.Offsets[i] = f
				continue
			}
			switch letter {
			case "D":
				rec.Diameter = f
			case "I":
				rec.I = f
			case "J":
				rec.J = f
			default:
				return rec, false, fmt.Errorf("unknown word %q", w)
			}
		}
	}
	if !seenTool {
		return rec, false, fmt.Errorf("missing tool number")
	}
	return rec, true, nil
}

// commentBreaks flattens line breaks so a comment stays on its tool's line.
var commentBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FormatLine encodes r. Zero offsets are omitted.
func FormatLine(r Record) string {
	parts := []string{"T" + strconv.Itoa(r.Tool), "P" + strconv.Itoa(r.Pocket)}
	for i, v := range r.Offsets {
		if v != 0 {
			parts = append(parts, Axes[i]+formatSigned(v))
		}
	}
	if r.Diameter != 0 {
		parts = append(parts, "D"+strconv.FormatFloat(r.Diameter, 'f', -1, 64))
	}
	if r.I != 0 {
		parts = append(parts, "I"+formatSigned(r.I))
	}
	if r.J != 0 {
		parts = append(parts, "J"+formatSigned(r.J))
	}
	if r.Q != 0 {
		parts = append(parts, "Q"+strconv.Itoa(r.Q))
	}
	line := strings.Join(parts, " ")
	if r.Comment != "" {
		line += " ;" + commentBreaks.Replace(r.Comment)
	}
	return line
}

func formatSigned(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create tool table directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tooltable-*")
	if err != nil {
		return fmt.Errorf("create temp tool table: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write tool table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tool table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace tool table: %w", err)
	}
	return nil
}
