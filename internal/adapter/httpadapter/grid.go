package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
)

const (
	matchLatLon  = "latlon"
	matchGeocode = "geocode"
	matchNone    = "none"
)

// gridResponse is the body of a successful lookup.
type gridResponse struct {
	Query   string   `json:"query,omitempty"`
	Region  string   `json:"region,omitempty"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	NX      int      `json:"nx"`
	NY      int      `json:"ny"`
	Match   string   `json:"match"`
}

type errorResponse struct {
	Error       string   `json:"error"`
	Query       string   `json:"query,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// gridHandler answers GET /v1/grid?region=... and GET /v1/grid?lat=..&lon=..
type gridHandler struct {
	catalog  *Catalog
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func (h *gridHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region := strings.TrimSpace(q.Get("region"))
	latStr, lonStr := q.Get("lat"), q.Get("lon")

	switch {
	case region != "":
		h.byRegion(w, r, region)
	case latStr != "" || lonStr != "":
		h.byLatLon(w, latStr, lonStr)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "region or lat/lon is required"})
	}
}

func (h *gridHandler) byLatLon(w http.ResponseWriter, latStr, lonStr string) {
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "lat and lon must both be numbers"})
		return
	}
	if err := domain.ValidateLatLon(lat, lon); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	coord := domain.LatLonToGrid(lat, lon)
	if !coord.OnGrid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "coordinate is outside the forecast grid"})
		return
	}
	h.metrics.Lookups.WithLabelValues(matchLatLon).Inc()
	writeJSON(w, http.StatusOK, gridResponse{Lat: &lat, Lon: &lon, NX: coord.NX, NY: coord.NY, Match: matchLatLon})
}

func (h *gridHandler) byRegion(w http.ResponseWriter, r *http.Request, query string) {
	resolver := h.catalog.Resolver()
	if resolver == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "region map not loaded"})
		return
	}

	res := resolver.Resolve(query)
	if res.Found() {
		h.metrics.Lookups.WithLabelValues(res.Match).Inc()
		writeJSON(w, http.StatusOK, gridResponse{
			Query:  query,
			Region: res.Region,
			NX:     res.Coord.NX,
			NY:     res.Coord.NY,
			Match:  res.Match,
		})
		return
	}

	if h.geocoder != nil {
		geo, err := h.geocoder.ForwardGeocode(r.Context(), query)
		switch {
		case err != nil:
			h.logger.Warn("geocode fallback failed", "query", query, "error", err)
		case geo.FormattedAddress != "" && domain.ValidateLatLon(geo.Lat, geo.Lon) == nil:
			coord := domain.LatLonToGrid(geo.Lat, geo.Lon)
			if !coord.OnGrid() {
				h.logger.Info("geocoded point is off the forecast grid", "query", query, "address", geo.FormattedAddress)
				break
			}
			h.metrics.Lookups.WithLabelValues(matchGeocode).Inc()
			writeJSON(w, http.StatusOK, gridResponse{
				Query:   query,
				Address: geo.FormattedAddress,
				Lat:     &geo.Lat,
				Lon:     &geo.Lon,
				NX:      coord.NX,
				NY:      coord.NY,
				Match:   matchGeocode,
			})
			return
		}
	}

	h.metrics.Lookups.WithLabelValues(matchNone).Inc()
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:       "region not found",
		Query:       query,
		Suggestions: res.Suggestions,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v) //nolint:errcheck // best-effort response body
}
