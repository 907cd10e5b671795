package handlers

import (
	"net/http"

	"github.com/randytsao24/ctaglass/internal/narration"
)

type TransitHandler struct {
	trains   TrainProvider
	buses    BusProvider
	alerts   AlertProvider
	runs     RunTracker
	stations StationDirectory
	narrator Narrator
}

func NewTransitHandler(trains TrainProvider, buses BusProvider, alerts AlertProvider, runs RunTracker, stations StationDirectory, narrator Narrator) *TransitHandler {
	return &TransitHandler{
		trains:   trains,
		buses:    buses,
		alerts:   alerts,
		runs:     runs,
		stations: stations,
		narrator: narrator,
	}
}

// GetTrainArrivals returns arrivals for a station map id
func (h *TransitHandler) GetTrainArrivals(w http.ResponseWriter, r *http.Request) {
	mapID := r.PathValue("mapId")

	arrivals, err := h.trains.FetchArrivals(r.Context(), mapID)
	if err != nil {
		writeError(w, r, "Failed to fetch arrivals", err)
		return
	}

	body := map[string]any{
		"success":  true,
		"map_id":   mapID,
		"arrivals": arrivals,
		"count":    len(arrivals),
	}
	if station, ok := h.stations.ByMapID(mapID); ok {
		body["station"] = station
		body["station_name"] = station.DisplayName()
	}
	writeJSON(w, http.StatusOK, body)
}

// FollowTrain returns the upcoming stops of a run, records the run in the
// recent history and narrates the stops two at a time
func (h *TransitHandler) FollowTrain(w http.ResponseWriter, r *http.Request) {
	run := r.PathValue("run")

	stops, err := h.trains.FetchFollowThisTrain(r.Context(), run)
	if err != nil {
		writeError(w, r, "Failed to follow train", err)
		return
	}

	recent := h.runs.Remember(r.Context(), run)

	body := map[string]any{
		"success":     true,
		"run":         run,
		"stops":       stops,
		"count":       len(stops),
		"recent_runs": recent,
	}
	if len(stops) > 0 {
		body["narration"] = h.narrator.SpeakSequence(narration.StopSummaries(stops), narration.StopListPacing)
	}
	writeJSON(w, http.StatusOK, body)
}

// GetActiveRuns returns runs seen in service at the probe stations
func (h *TransitHandler) GetActiveRuns(w http.ResponseWriter, r *http.Request) {
	active, err := h.runs.ActiveRuns(r.Context())
	if err != nil {
		writeError(w, r, "Failed to discover active runs", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"runs":    active,
		"count":   len(active),
	})
}

// GetRecentRuns returns the recently followed runs, most recent first
func (h *TransitHandler) GetRecentRuns(w http.ResponseWriter, r *http.Request) {
	recent := h.runs.Recent()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"runs":    recent,
		"count":   len(recent),
	})
}

// GetBusPredictions returns predictions for a bus stop, optionally ?route=
func (h *TransitHandler) GetBusPredictions(w http.ResponseWriter, r *http.Request) {
	stopID := r.PathValue("stopId")
	route := r.URL.Query().Get("route")

	arrivals, err := h.buses.FetchPredictions(r.Context(), stopID, route)
	if err != nil {
		writeError(w, r, "Failed to fetch bus predictions", err)
		return
	}

	body := map[string]any{
		"success":  true,
		"stop_id":  stopID,
		"arrivals": arrivals,
		"count":    len(arrivals),
	}
	if route != "" {
		body["route"] = route
	}
	writeJSON(w, http.StatusOK, body)
}

// GetServiceAlerts returns active service alerts, optionally filtered by route
func (h *TransitHandler) GetServiceAlerts(w http.ResponseWriter, r *http.Request) {
	routes := parseListQueryParam(r, "routes")

	alerts, err := h.alerts.GetAlerts(r.Context(), routes)
	if err != nil {
		writeError(w, r, "Failed to fetch service alerts", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"alerts":  alerts,
		"count":   len(alerts),
	})
}
