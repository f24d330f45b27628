package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// build folds rows into a map. Every overwritten key is logged so a reviewer
// can spot source rows that collapse onto the same region name.
func (p *Pipeline) build(rows []domain.Row, logger *slog.Logger) (*domain.RegionMap, domain.BuildStats, error) {
	m, stats, err := domain.BuildRegionMap(rows)
	if err != nil {
		return nil, stats, err
	}

	p.metrics.RowsSkipped.Add(float64(stats.Skipped))
	p.metrics.DuplicateKeys.Add(float64(len(stats.Duplicates)))
	for _, key := range stats.Duplicates {
		logger.Warn("duplicate region key, keeping last row", "region", key)
	}

	logger.Debug("map built", "rows", stats.Rows, "entries", m.Len(), "skipped", stats.Skipped)
	return m, stats, nil
}
