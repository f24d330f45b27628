package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Columns names the source headers the extractor reads.
type Columns struct {
	Levels [3]string
	GridX  string
	GridY  string
}

// DefaultColumns returns the headers of the KMA grid spreadsheet.
func DefaultColumns() Columns {
	return Columns{
		Levels: [3]string{"1단계", "2단계", "3단계"},
		GridX:  "격자 X",
		GridY:  "격자 Y",
	}
}

// Required lists every header in sheet-independent order: levels 1-3, X, Y.
func (c Columns) Required() []string {
	return []string{c.Levels[0], c.Levels[1], c.Levels[2], c.GridX, c.GridY}
}

// Cell is a single spreadsheet value. Valid is false for blank or missing cells.
type Cell struct {
	Value string
	Valid bool
}

// TextCell wraps a raw cell value; the empty string counts as blank.
func TextCell(s string) Cell {
	return Cell{Value: s, Valid: s != ""}
}

// Row is one data row of the source sheet.
type Row struct {
	Line   int // 1-based sheet row number, header is line 1
	Levels [3]Cell
	GridX  Cell
	GridY  Cell
}

// RegionKey joins the non-blank level names with a single space and trims the
// result. Whitespace inside a name is preserved.
func (r Row) RegionKey() string {
	names := make([]string, 0, len(r.Levels))
	for _, c := range r.Levels {
		if c.Valid {
			names = append(names, c.Value)
		}
	}
	return strings.TrimSpace(strings.Join(names, " "))
}

// GridCoordinate is a KMA forecast grid cell.
type GridCoordinate struct {
	NX int `json:"nx"`
	NY int `json:"ny"`
}

// Entry is one region and its grid cell.
type Entry struct {
	Region string         `json:"region"`
	Coord  GridCoordinate `json:"coord"`
}

// RegionMap maps region keys to grid cells. Iteration follows the order in
// which keys were first set; overwriting a key keeps its position.
type RegionMap struct {
	keys   []string
	coords map[string]GridCoordinate
}

// NewRegionMap returns an empty map.
func NewRegionMap() *RegionMap {
	return &RegionMap{coords: make(map[string]GridCoordinate)}
}

// Set stores coord under key and reports whether an earlier value was replaced.
func (m *RegionMap) Set(key string, coord GridCoordinate) bool {
	if m.coords == nil {
		m.coords = make(map[string]GridCoordinate)
	}
	if _, ok := m.coords[key]; ok {
		m.coords[key] = coord
		return true
	}
	m.keys = append(m.keys, key)
	m.coords[key] = coord
	return false
}

func (m *RegionMap) Get(key string) (GridCoordinate, bool) {
	c, ok := m.coords[key]
	return c, ok
}

func (m *RegionMap) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in map order.
func (m *RegionMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entries returns the map contents in map order.
func (m *RegionMap) Entries() []Entry {
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Region: k, Coord: m.coords[k]}
	}
	return out
}

// MarshalJSON encodes the map as a JSON object in map order. HTML characters
// in keys are left as-is.
func (m *RegionMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, fmt.Errorf("encode region key: %w", err)
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(m.coords[k]); err != nil {
			return nil, fmt.Errorf("encode grid coordinate %q: %w", k, err)
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the document.
// Repeated keys follow Set semantics.
func (m *RegionMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode region map: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode region map: expected object, got %v", tok)
	}

	fresh := NewRegionMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode region map: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode region map: expected key, got %v", tok)
		}
		var coord GridCoordinate
		if err := dec.Decode(&coord); err != nil {
			return fmt.Errorf("decode region map %q: %w", key, err)
		}
		fresh.Set(key, coord)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode region map: %w", err)
	}

	*m = *fresh
	return nil
}

// Snapshot is a finished map handed to publishers. Document holds the exact
// bytes written to the output file.
type Snapshot struct {
	RunID       string
	ExtractedAt time.Time
	Map         *RegionMap
	Document    []byte
}
