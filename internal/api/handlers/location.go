package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/randytsao24/ctaglass/internal/models"
)

const (
	defaultRadius = 800  // ~0.5 mile in meters
	maxRadius     = 8000 // ~5 miles
	minRadius     = 50
	defaultLimit  = 5
	maxLimit      = 20
)

var errBadCoordinates = errors.New("lat and lng must be valid WGS84 coordinates")

type LocationHandler struct {
	stations StationDirectory
}

func NewLocationHandler(stations StationDirectory) *LocationHandler {
	return &LocationHandler{stations: stations}
}

// GetStations lists every station, or those serving any of ?routes=
func (h *LocationHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	routes := parseListQueryParam(r, "routes")

	stations := h.stations.All()
	if len(routes) > 0 {
		stations = h.stations.ForRoutes(routes)
	}
	if stations == nil {
		stations = []models.Station{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"routes":   routes,
		"stations": stations,
		"count":    len(stations),
	})
}

// GetNearestStation returns the single closest station to a point
func (h *LocationHandler) GetNearestStation(w http.ResponseWriter, r *http.Request) {
	point, err := parseCoordinates(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid coordinates",
			"message": err.Error(),
		})
		return
	}

	station, found := h.stations.Nearest(point)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "No stations loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"location": point,
		"station":  station,
	})
}

// GetNearbyStations returns stations within ?radius= meters of a point
func (h *LocationHandler) GetNearbyStations(w http.ResponseWriter, r *http.Request) {
	point, err := parseCoordinates(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid coordinates",
			"message": err.Error(),
		})
		return
	}

	radius := parseIntQueryParam(r, "radius", defaultRadius, minRadius, maxRadius)
	stations := h.stations.FindNearby(point, float64(radius))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"location":      point,
		"radius_meters": radius,
		"stations":      stations,
		"count":         len(stations),
	})
}

// GetClosestStations returns the N closest stations to a point
func (h *LocationHandler) GetClosestStations(w http.ResponseWriter, r *http.Request) {
	point, err := parseCoordinates(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid coordinates",
			"message": err.Error(),
		})
		return
	}

	limit := parseIntQueryParam(r, "limit", defaultLimit, 1, maxLimit)
	stations := h.stations.FindClosest(point, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"location": point,
		"stations": stations,
		"count":    len(stations),
	})
}

// SearchStations looks a station up by name
func (h *LocationHandler) SearchStations(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	station, found := h.stations.ByName(name)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "Station not found",
			"message": "No station matches " + strconv.Quote(name),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"query":   name,
		"station": station,
	})
}

// GetLocationInfo returns service info
func (h *LocationHandler) GetLocationInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"service":     "CTA 'L' station lookup",
		"description": "Find nearby train stations by coordinates, route or name",
		"coverage": map[string]any{
			"stations": h.stations.Count(),
		},
		"defaults": map[string]any{
			"radius_meters": defaultRadius,
			"limit":         defaultLimit,
		},
	})
}

func parseCoordinates(r *http.Request) (models.Coordinate, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		return models.Coordinate{}, errBadCoordinates
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		return models.Coordinate{}, errBadCoordinates
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.Coordinate{}, errBadCoordinates
	}
	return models.Coordinate{Lat: lat, Lng: lng}, nil
}
