// Package jsonfile persists a region map as an indented JSON document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// newFileMode is applied to an output file the writer creates. An existing
// file keeps its mode.
const newFileMode os.FileMode = 0o644

// Writer writes the map to a fixed path.
// It implements pipeline.MapWriter.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// WriteMap encodes m and replaces the output file in one rename, so readers
// never observe a partial document.
func (w *Writer) WriteMap(_ context.Context, m *domain.RegionMap) ([]byte, error) {
	data, err := Encode(m)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(w.path)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := atomic.WriteFile(w.path, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("write %s: %w: %w", w.path, domain.ErrFileAccess, err)
	}
	if created {
		if err := os.Chmod(w.path, newFileMode); err != nil {
			return nil, fmt.Errorf("chmod %s: %w: %w", w.path, domain.ErrFileAccess, err)
		}
	}
	return data, nil
}

// Encode renders m with two-space indentation, non-ASCII text unescaped and no
// trailing newline.
func Encode(m *domain.RegionMap) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encode region map: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Load reads a map previously written by Writer.
func Load(path string) (*domain.RegionMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, domain.ErrFileAccess, err)
	}
	m := domain.NewRegionMap()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}
