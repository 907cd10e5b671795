package handlers

import (
	"net/http"
)

type WearableHandler struct {
	glasses Wearable
}

func NewWearableHandler(glasses Wearable) *WearableHandler {
	return &WearableHandler{glasses: glasses}
}

func (h *WearableHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  h.glasses.Status(),
	})
}

// Pair starts a handshake. The response carries the state right after the
// request was accepted; poll the status for the outcome.
func (h *WearableHandler) Pair(w http.ResponseWriter, r *http.Request) {
	if err := h.glasses.StartPairing(r.Context()); err != nil {
		writeError(w, r, "Failed to start pairing", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"status":  h.glasses.Status(),
	})
}

func (h *WearableHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.glasses.Disconnect(r.Context()); err != nil {
		writeError(w, r, "Failed to disconnect", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  h.glasses.Status(),
	})
}

// ContinueWithoutPairing treats the glasses as connected without a handshake
func (h *WearableHandler) ContinueWithoutPairing(w http.ResponseWriter, r *http.Request) {
	if err := h.glasses.ContinueWithoutPairing(r.Context()); err != nil {
		writeError(w, r, "Failed to skip pairing", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"status":  h.glasses.Status(),
	})
}
