package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BuildStats summarizes one pass over the source rows.
type BuildStats struct {
	Rows       int
	Skipped    int      // rows with an empty region key
	Duplicates []string // keys overwritten by a later row, once per overwrite
}

// BuildRegionMap folds rows into a RegionMap in source order. Rows with an
// empty region key are skipped before their grid cells are looked at. The
// first unconvertible grid value aborts the build.
func BuildRegionMap(rows []Row) (*RegionMap, BuildStats, error) {
	m := NewRegionMap()
	stats := BuildStats{Rows: len(rows)}

	for _, row := range rows {
		key := row.RegionKey()
		if key == "" {
			stats.Skipped++
			continue
		}

		coord, err := ParseGridCoordinate(row)
		if err != nil {
			return nil, stats, err
		}

		if m.Set(key, coord) {
			stats.Duplicates = append(stats.Duplicates, key)
		}
	}

	return m, stats, nil
}

// ParseGridCoordinate converts a row's grid cells.
func ParseGridCoordinate(row Row) (GridCoordinate, error) {
	nx, err := ParseGridValue(row.GridX)
	if err != nil {
		return GridCoordinate{}, fmt.Errorf("line %d grid x: %w", row.Line, err)
	}
	ny, err := ParseGridValue(row.GridY)
	if err != nil {
		return GridCoordinate{}, fmt.Errorf("line %d grid y: %w", row.Line, err)
	}
	return GridCoordinate{NX: nx, NY: ny}, nil
}

// ParseGridValue converts a numeric cell to int, truncating toward zero.
// Blank cells, non-numeric text, NaN, infinities and values outside the int
// range fail with ErrTypeConversion.
func ParseGridValue(c Cell) (int, error) {
	if !c.Valid {
		return 0, fmt.Errorf("%w: blank cell", ErrTypeConversion)
	}

	s := strings.TrimSpace(c.Value)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrTypeConversion, c.Value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrTypeConversion, c.Value)
	}

	v = math.Trunc(v)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %q out of range", ErrTypeConversion, c.Value)
	}
	return int(v), nil
}
