package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder turns free-text addresses into coordinates.
type Geocoder interface {
	// ForwardGeocode returns the best match for query. A zero result with a
	// nil error means nothing was found.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
