// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

const version = "1.0.0"

type HealthHandler struct {
	startTime time.Time
	glasses   Wearable
}

func NewHealthHandler(glasses Wearable) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), glasses: glasses}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
		"uptime":    time.Since(h.startTime).String(),
		"glasses":   h.glasses.Status().State,
	})
}
