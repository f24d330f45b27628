// Package xlsx reads the KMA grid spreadsheet into domain rows.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// Reader loads the first sheet of a workbook.
// It implements pipeline.RowExtractor.
type Reader struct {
	path    string
	columns domain.Columns
	logger  *slog.Logger
}

// NewReader creates a Reader for the workbook at path.
func NewReader(path string, columns domain.Columns, logger *slog.Logger) *Reader {
	return &Reader{path: path, columns: columns, logger: logger}
}

// ExtractRows reads every data row of the first sheet. The header row is
// validated before any data row is touched; a missing header fails the whole
// read with domain.ErrSchema.
func (r *Reader) ExtractRows(ctx context.Context) ([]domain.Row, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", r.path, domain.ErrFileAccess, err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s has no sheets: %w", r.path, domain.ErrSchema)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w: %w", sheet, domain.ErrFileAccess, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty: %w", sheet, domain.ErrSchema)
	}

	idx, err := headerIndex(rows[0], r.columns)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, domain.Row{
			Line: i + 2,
			Levels: [3]domain.Cell{
				cellAt(cells, idx.levels[0]),
				cellAt(cells, idx.levels[1]),
				cellAt(cells, idx.levels[2]),
			},
			GridX: cellAt(cells, idx.gridX),
			GridY: cellAt(cells, idx.gridY),
		})
	}

	r.logger.Debug("sheet read", "path", r.path, "sheet", sheet, "rows", len(out))
	return out, nil
}

type columnIndex struct {
	levels [3]int
	gridX  int
	gridY  int
}

// headerIndex locates each required header. The first occurrence wins when a
// header repeats.
func headerIndex(header []string, cols domain.Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	var missing []string
	lookup := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		levels: [3]int{lookup(cols.Levels[0]), lookup(cols.Levels[1]), lookup(cols.Levels[2])},
		gridX:  lookup(cols.GridX),
		gridY:  lookup(cols.GridY),
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("missing columns %s: %w", strings.Join(quoteAll(missing), ", "), domain.ErrSchema)
	}
	return idx, nil
}

// cellAt returns the cell at column i. GetRows trims trailing empty cells, so
// an index past the end is a blank cell.
func cellAt(cells []string, i int) domain.Cell {
	if i >= len(cells) {
		return domain.Cell{}
	}
	return domain.TextCell(cells[i])
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
