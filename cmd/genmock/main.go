// Command genmock writes a sample KMA grid workbook and, optionally, the map
// the extractor is expected to produce from it. Grid cells are computed from
// each region's centroid with the same projection the lookup server uses, so
// the fixture stays consistent with /v1/grid?lat=..&lon=.. answers.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out testdata/grid_sample.xlsx \
//	  -expected testdata/grid_sample.json
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/nxny-map-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

var header = []string{
	"구분", "행정구역코드", "1단계", "2단계", "3단계", "격자 X", "격자 Y", "경도(초/100)", "위도(초/100)",
}

type sample struct {
	code     string
	levels   [3]string
	lat, lon float64
}

var samples = []sample{
	{"1100000000", [3]string{"서울특별시"}, 37.5635694, 126.9800083},
	{"1111000000", [3]string{"서울특별시", "종로구"}, 37.57037778, 126.9816417},
	{"1111051500", [3]string{"서울특별시", "종로구", "청운효자동"}, 37.58415, 126.9706},
	{"1114000000", [3]string{"서울특별시", "중구"}, 37.56100278, 126.9996417},
	{"1168064000", [3]string{"서울특별시", "강남구", "역삼1동"}, 37.49526, 127.03325},
	{"2600000000", [3]string{"부산광역시"}, 35.17701944, 129.0769528},
	{"2635000000", [3]string{"부산광역시", "해운대구"}, 35.16001944, 129.1658083},
	{"2635051000", [3]string{"부산광역시", "해운대구", "우동"}, 35.16336, 129.15961},
	{"2711000000", [3]string{"대구광역시", "중구"}, 35.86656, 128.59378},
	{"3611000000", [3]string{"세종특별자치시"}, 36.4800121, 127.2890691},
	{"5011000000", [3]string{"제주특별자치도", "제주시"}, 33.49631111, 126.5332083},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the sample workbook")
	expected := flag.String("expected", "", "optional output path for the expected region map JSON")
	withEdgeCases := flag.Bool("edge-cases", true, "append a blank row and a duplicate region row")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rows := make([][]any, 0, len(samples)+2)
	for _, s := range samples {
		rows = append(rows, sampleRow(s))
	}
	if *withEdgeCases {
		// A row with no region names is skipped by the extractor.
		rows = append(rows, []any{"kor", "9999999999", nil, nil, nil, 1, 1, nil, nil})
		// A repeated region overwrites the earlier cell.
		dup := samples[0]
		dup.lat, dup.lon = 37.5665, 126.9780
		rows = append(rows, sampleRow(dup))
	}

	if err := xlsx.WriteFixture(*out, header, rows); err != nil {
		return err
	}
	log.Printf("wrote %d rows to %s", len(rows), *out)

	if *expected == "" {
		return nil
	}
	return writeExpected(*expected, rows)
}

func sampleRow(s sample) []any {
	coord := domain.LatLonToGrid(s.lat, s.lon)
	row := []any{"kor", s.code, nil, nil, nil, coord.NX, coord.NY, s.lon, s.lat}
	for i, name := range s.levels {
		if name != "" {
			row[2+i] = name
		}
	}
	return row
}

// writeExpected runs the generated rows through the real build so the
// fixture matches pipeline behavior.
func writeExpected(path string, rows [][]any) error {
	domainRows := make([]domain.Row, len(rows))
	for i, r := range rows {
		domainRows[i] = domain.Row{
			Line:   i + 2,
			Levels: [3]domain.Cell{cell(r[2]), cell(r[3]), cell(r[4])},
			GridX:  cell(r[5]),
			GridY:  cell(r[6]),
		}
	}

	m, stats, err := domain.BuildRegionMap(domainRows)
	if err != nil {
		return err
	}
	data, err := jsonfile.Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixture output
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %d entries to %s (skipped %d, duplicates %d)", m.Len(), path, stats.Skipped, len(stats.Duplicates))
	return nil
}

func cell(v any) domain.Cell {
	if v == nil {
		return domain.Cell{}
	}
	return domain.TextCell(fmt.Sprint(v))
}
