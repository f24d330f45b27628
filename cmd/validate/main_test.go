package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nxny-map-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/nxny-map-etl/internal/config"
	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

var header = []string{"1단계", "2단계", "3단계", "격자 X", "격자 Y"}

func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "grid.xlsx")
	require.NoError(t, xlsx.WriteFixture(xlsxPath, header, [][]any{
		{"서울특별시", nil, nil, 60, 127},
		{"서울특별시", "종로구", nil, 60, 127},
		{nil, nil, nil, nil, nil},
		{"서울특별시", nil, nil, 61, 127},
	}))

	m := domain.NewRegionMap()
	m.Set("서울특별시", domain.GridCoordinate{NX: 61, NY: 127})
	m.Set("서울특별시 종로구", domain.GridCoordinate{NX: 60, NY: 127})
	jsonPath := filepath.Join(dir, "nxny_map.json")
	_, err := jsonfile.NewWriter(jsonPath).WriteMap(context.Background(), m)
	require.NoError(t, err)
	return xlsxPath, jsonPath
}

func TestRun_AllPhasesPass(t *testing.T) {
	xlsxPath, jsonPath := fixture(t)
	var out bytes.Buffer

	code := run(xlsxPath, jsonPath, domain.DefaultColumns(), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "Rows: 4 sheet, 1 skipped, 1 duplicates; entries: 2 JSON")
}

func TestRun_CoordinateMismatch(t *testing.T) {
	xlsxPath, jsonPath := fixture(t)
	m := domain.NewRegionMap()
	m.Set("서울특별시", domain.GridCoordinate{NX: 60, NY: 127})
	m.Set("서울특별시 종로구", domain.GridCoordinate{NX: 60, NY: 127})
	_, err := jsonfile.NewWriter(jsonPath).WriteMap(context.Background(), m)
	require.NoError(t, err)
	var out bytes.Buffer

	code := run(xlsxPath, jsonPath, domain.DefaultColumns(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Phase 3: Round-trip")
	assert.Contains(t, out.String(), `"서울특별시": json`)
}

func TestRun_MissingEntryFailsCounts(t *testing.T) {
	xlsxPath, jsonPath := fixture(t)
	m := domain.NewRegionMap()
	m.Set("서울특별시", domain.GridCoordinate{NX: 61, NY: 127})
	_, err := jsonfile.NewWriter(jsonPath).WriteMap(context.Background(), m)
	require.NoError(t, err)
	var out bytes.Buffer

	code := run(xlsxPath, jsonPath, domain.DefaultColumns(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "json has 1 entries")
}

func TestRun_CompactJSONFailsByteCheck(t *testing.T) {
	xlsxPath, jsonPath := fixture(t)
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"서울특별시":{"nx":61,"ny":127},"서울특별시 종로구":{"nx":60,"ny":127}}`), 0o600))
	var out bytes.Buffer

	code := run(xlsxPath, jsonPath, domain.DefaultColumns(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "json bytes differ")
}

func TestRun_SchemaFailureSkipsLaterPhases(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "grid.xlsx")
	require.NoError(t, xlsx.WriteFixture(xlsxPath, []string{"1단계", "격자 X"}, nil))
	jsonPath := filepath.Join(dir, "nxny_map.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o600))
	var out bytes.Buffer

	code := run(xlsxPath, jsonPath, domain.DefaultColumns(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "schema error")
	assert.NotContains(t, out.String(), "Phase 2")
}

func TestRun_ColumnsFromEnvironment(t *testing.T) {
	t.Setenv("NXNY_COLUMN_LEVEL1", "sido")
	t.Setenv("NXNY_COLUMN_LEVEL2", "sigungu")
	t.Setenv("NXNY_COLUMN_LEVEL3", "dong")
	t.Setenv("NXNY_COLUMN_GRID_X", "nx")
	t.Setenv("NXNY_COLUMN_GRID_Y", "ny")

	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "custom.xlsx")
	require.NoError(t, xlsx.WriteFixture(xlsxPath, []string{"sido", "sigungu", "dong", "nx", "ny"}, [][]any{
		{"부산광역시", "해운대구", "우동", 99, 75},
	}))
	m := domain.NewRegionMap()
	m.Set("부산광역시 해운대구 우동", domain.GridCoordinate{NX: 99, NY: 75})
	jsonPath := filepath.Join(dir, "nxny_map.json")
	_, err := jsonfile.NewWriter(jsonPath).WriteMap(context.Background(), m)
	require.NoError(t, err)

	var out bytes.Buffer
	code := run(xlsxPath, jsonPath, config.LoadColumns(), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestValidateKeys_GridBounds(t *testing.T) {
	m := domain.NewRegionMap()
	m.Set("바다", domain.GridCoordinate{NX: 0, NY: 300})

	p := validateKeys(m)

	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "nx 0")
	assert.Contains(t, p.errors[1], "ny 300")
}
