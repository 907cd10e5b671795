package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "ctaglass",
		"description": "CTA train and bus arrivals narrated to smart glasses",
		"version":     version,
		"endpoints": map[string]string{
			"GET /api":                        "API information",
			"GET /health":                     "Health check",
			"GET /transit/stations":           "Stations, optionally filtered by ?routes=Red,Blue",
			"GET /transit/stations/nearest":   "Nearest station to ?lat=&lng=",
			"GET /transit/stations/closest":   "Closest stations to ?lat=&lng=&limit=",
			"GET /transit/stations/search":    "Station lookup by ?name=",
			"GET /transit/train/station/{id}": "Train arrivals at a station map id",
			"GET /transit/train/follow/{run}": "Upcoming stops of a run, narrated to the glasses",
			"GET /transit/train/runs/active":  "Runs currently in service",
			"GET /transit/train/runs/recent":  "Recently followed runs",
			"GET /transit/bus/stop/{stopId}":  "Bus predictions at a stop, optionally ?route=",
			"GET /transit/alerts":             "Active service alerts, optionally ?routes=",
			"GET /wearable/status":            "Glasses link state",
			"POST /wearable/pair":             "Start pairing the glasses",
			"POST /wearable/disconnect":       "Disconnect the glasses",
			"POST /wearable/skip":             "Continue without pairing",
			"POST /narration/speak":           "Speak {\"text\": ...} now",
			"POST /narration/guide":           "Narrate the glasses guide",
			"POST /narration/run/{run}":       "Fetch a run and speak its itinerary",
			"POST /narration/alerts":          "Speak active service alerts",
			"POST /narration/map":             "Announce the station nearest ?lat=&lng=",
			"POST /narration/cancel":          "Stop the running narration",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check the /api endpoint for available routes",
	})
}
