// Command validate checks an extracted region map against the workbook it was
// built from. It re-reads the sheet with the production reader, rebuilds the
// map, and compares schema, key shape, content and counts phase by phase.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -xlsx "격자_위경도(2411).xlsx" \
//	  -json nxny_map.json
//
// Column headers are read from the NXNY_COLUMN_* variables (and .env) the
// same way the extractor reads them.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/nxny-map-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/nxny-map-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/nxny-map-etl/internal/config"
	"github.com/couchcryptid/nxny-map-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// sources holds everything loaded before the phases run.
type sources struct {
	rows     []domain.Row
	rebuilt  *domain.RegionMap
	stats    domain.BuildStats
	buildErr error
	doc      []byte
	loaded   *domain.RegionMap
}

func main() {
	xlsxPath := flag.String("xlsx", "", "path to the source workbook")
	jsonPath := flag.String("json", "", "path to the extracted region map")
	flag.Parse()

	if *xlsxPath == "" || *jsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()
	os.Exit(run(*xlsxPath, *jsonPath, config.LoadColumns(), os.Stdout))
}

func run(xlsxPath, jsonPath string, cols domain.Columns, out io.Writer) int {
	fmt.Fprintln(out, "=== Region Map Integrity Validation ===")
	fmt.Fprintln(out)

	src, schema := load(xlsxPath, jsonPath, cols)
	phases := []*phase{schema}
	if schema.passed() {
		phases = append(phases,
			validateKeys(src.loaded),
			validateRoundTrip(src),
			validateCounts(src),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	if src.loaded != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Rows: %d sheet, %d skipped, %d duplicates; entries: %d JSON\n",
			len(src.rows), src.stats.Skipped, len(src.stats.Duplicates), src.loaded.Len())
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// load reads both inputs. Failures here are reported as the schema phase so
// later phases never run on partial data.
func load(xlsxPath, jsonPath string, cols domain.Columns) (sources, *phase) {
	p := &phase{name: "Phase 1: Schema"}
	var src sources

	reader := xlsx.NewReader(xlsxPath, cols, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rows, err := reader.ExtractRows(context.Background())
	if err != nil {
		p.errorf("workbook: %v", err)
	}
	src.rows = rows

	doc, err := os.ReadFile(jsonPath)
	if err != nil {
		p.errorf("json: %v", err)
		return src, p
	}
	src.doc = doc

	loaded, err := jsonfile.Load(jsonPath)
	if err != nil {
		p.errorf("json: %v", err)
		return src, p
	}
	src.loaded = loaded

	if p.passed() {
		src.rebuilt, src.stats, src.buildErr = domain.BuildRegionMap(src.rows)
		if src.buildErr != nil {
			p.errorf("rebuild: %v", src.buildErr)
		}
	}
	return src, p
}

// ── Validation phases ──

func validateKeys(m *domain.RegionMap) *phase {
	p := &phase{name: "Phase 2: Key invariants"}
	for _, e := range m.Entries() {
		switch {
		case e.Region == "":
			p.errorf("empty region key")
		case strings.TrimSpace(e.Region) != e.Region:
			p.errorf("%q: surrounding whitespace", e.Region)
		}
		if e.Coord.NX < 1 || e.Coord.NX > domain.GridMaxNX {
			p.errorf("%q: nx %d outside 1..%d", e.Region, e.Coord.NX, domain.GridMaxNX)
		}
		if e.Coord.NY < 1 || e.Coord.NY > domain.GridMaxNY {
			p.errorf("%q: ny %d outside 1..%d", e.Region, e.Coord.NY, domain.GridMaxNY)
		}
	}
	return p
}

func validateRoundTrip(src sources) *phase {
	p := &phase{name: "Phase 3: Round-trip"}

	want := src.rebuilt.Entries()
	got := src.loaded.Entries()
	for i := 0; i < len(want) && i < len(got); i++ {
		if want[i].Region != got[i].Region {
			p.errorf("entry %d: key %q, sheet order expects %q", i, got[i].Region, want[i].Region)
			continue
		}
		if want[i].Coord != got[i].Coord {
			p.errorf("%q: json %+v, sheet %+v", got[i].Region, got[i].Coord, want[i].Coord)
		}
	}

	encoded, err := jsonfile.Encode(src.rebuilt)
	if err != nil {
		p.errorf("encode rebuilt map: %v", err)
		return p
	}
	if !bytes.Equal(encoded, src.doc) {
		p.errorf("json bytes differ from a fresh encoding of the sheet (%d vs %d bytes)", len(src.doc), len(encoded))
	}
	return p
}

func validateCounts(src sources) *phase {
	p := &phase{name: "Phase 4: Count parity"}

	expected := len(src.rows) - src.stats.Skipped - len(src.stats.Duplicates)
	if src.loaded.Len() != expected {
		p.errorf("json has %d entries, sheet rows minus skipped and duplicates is %d", src.loaded.Len(), expected)
	}
	if src.rebuilt.Len() != src.loaded.Len() {
		p.errorf("json has %d entries, rebuilt map has %d", src.loaded.Len(), src.rebuilt.Len())
	}
	if len(src.rows) > 0 && src.loaded.Len() == 0 {
		p.errorf("sheet has rows but json is empty")
	}
	return p
}
