// Package domain models the KMA (Korea Meteorological Administration) region
// grid lookup: administrative region names mapped to short-range forecast grid
// cells.
//
// # Data Source
//
// The KMA publishes the forecast grid as a spreadsheet alongside the
// short-range forecast API guide ("격자_위경도(YYMM).xlsx"). Its first sheet
// carries one row per administrative unit:
//
//	구분 | 행정구역코드 | 1단계 | 2단계 | 3단계 | 격자 X | 격자 Y | 경도(시) | ...
//	kor  | 2729062800  | 대구광역시 | 달서구 | 도원동 | 88 | 89 | 128 | ...
//
// Levels are coarse to fine: 1단계 is the province or metropolitan city,
// 2단계 the city/county/district, 3단계 the town or neighborhood. Rows for a
// province itself leave 2단계 and 3단계 blank.
//
// # Region Keys
//
// A region key is the non-blank level names joined with a single space and
// trimmed, e.g. "대구광역시 달서구 도원동". Keys are not unique in the source;
// when two rows produce the same key the later row wins while the key keeps
// its first position in the map. See [RegionMap.Set].
//
// # Grid Coordinates
//
// nx/ny are integer cell indices on the KMA DFS Lambert conformal conic grid
// (5 km cells, origin cell (43, 136) at 38°N 126°E). [LatLonToGrid] reproduces
// the projection for points that are not in the spreadsheet.
package domain
