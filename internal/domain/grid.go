package domain

import (
	"errors"
	"math"
)

// KMA DFS grid parameters.
const (
	earthRadiusKM = 6371.00877
	gridSpacingKM = 5.0
	stdParallel1  = 30.0
	stdParallel2  = 60.0
	originLon     = 126.0
	originLat     = 38.0
	originX       = 43
	originY       = 136
)

// Extent of the KMA forecast grid. Cells are numbered from 1.
const (
	GridMaxNX = 149
	GridMaxNY = 253
)

var (
	degToRad = math.Pi / 180.0

	lccRe    = earthRadiusKM / gridSpacingKM
	lccOlon  = originLon * degToRad
	lccSn    = lambertN()
	lccSf    = math.Pow(math.Tan(math.Pi*0.25+stdParallel1*degToRad*0.5), lccSn) * math.Cos(stdParallel1*degToRad) / lccSn
	lccRo    = lccRe * lccSf / math.Pow(math.Tan(math.Pi*0.25+originLat*degToRad*0.5), lccSn)
	errRange = errors.New("coordinate out of range")
)

func lambertN() float64 {
	s1 := stdParallel1 * degToRad
	s2 := stdParallel2 * degToRad
	return math.Log(math.Cos(s1)/math.Cos(s2)) /
		math.Log(math.Tan(math.Pi*0.25+s2*0.5)/math.Tan(math.Pi*0.25+s1*0.5))
}

// ValidateLatLon rejects non-finite and out-of-range WGS-84 coordinates.
func ValidateLatLon(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return errRange
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errRange
	}
	return nil
}

// OnGrid reports whether c lies inside the forecast grid.
func (c GridCoordinate) OnGrid() bool {
	return c.NX >= 1 && c.NX <= GridMaxNX && c.NY >= 1 && c.NY <= GridMaxNY
}

// LatLonToGrid projects a WGS-84 point onto the KMA forecast grid.
func LatLonToGrid(lat, lon float64) GridCoordinate {
	ra := lccRe * lccSf / math.Pow(math.Tan(math.Pi*0.25+lat*degToRad*0.5), lccSn)

	theta := lon*degToRad - lccOlon
	if theta > math.Pi {
		theta -= 2.0 * math.Pi
	}
	if theta < -math.Pi {
		theta += 2.0 * math.Pi
	}
	theta *= lccSn

	return GridCoordinate{
		NX: int(math.Floor(ra*math.Sin(theta) + originX + 0.5)),
		NY: int(math.Floor(lccRo - ra*math.Cos(theta) + originY + 0.5)),
	}
}
