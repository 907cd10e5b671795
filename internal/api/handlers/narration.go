package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/randytsao24/ctaglass/internal/models"
	"github.com/randytsao24/ctaglass/internal/narration"
)

const maxSpeakBody = 16 << 10

var validate = validator.New()

type speakRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type NarrationHandler struct {
	narrator Narrator
	glasses  Wearable
	trains   TrainProvider
	alerts   AlertProvider
	stations StationDirectory
}

func NewNarrationHandler(narrator Narrator, glasses Wearable, trains TrainProvider, alerts AlertProvider, stations StationDirectory) *NarrationHandler {
	return &NarrationHandler{
		narrator: narrator,
		glasses:  glasses,
		trains:   trains,
		alerts:   alerts,
		stations: stations,
	}
}

// Speak hands {"text": ...} to the glasses
func (h *NarrationHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSpeakBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid request body",
			"message": "text is required and at most 2000 characters",
		})
		return
	}

	h.speak(w, req.Text)
}

// Guide narrates the glasses walkthrough one step at a time
func (h *NarrationHandler) Guide(w http.ResponseWriter, r *http.Request) {
	seq := h.narrator.SpeakSequence(narration.GuideSteps, narration.InstructionPacing)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"narration": seq,
		"delivered": h.glasses.Status().Paired,
	})
}

// SpeakRun fetches a run and speaks its whole itinerary as one utterance
func (h *NarrationHandler) SpeakRun(w http.ResponseWriter, r *http.Request) {
	run := r.PathValue("run")

	stops, err := h.trains.FetchFollowThisTrain(r.Context(), run)
	if err != nil {
		writeError(w, r, "Failed to follow train", err)
		return
	}

	h.speak(w, narration.RunItinerary(run, stops))
}

// SpeakAlerts reads the active alert headers, optionally ?routes=
func (h *NarrationHandler) SpeakAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.GetAlerts(r.Context(), parseListQueryParam(r, "routes"))
	if err != nil {
		writeError(w, r, "Failed to fetch service alerts", err)
		return
	}

	h.speak(w, narration.AlertsBulletin(alerts))
}

// AnnounceMap names the station nearest ?lat=&lng=. Without coordinates
// the generic map prompt is spoken.
func (h *NarrationHandler) AnnounceMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("lat") && !q.Has("lng") {
		h.speak(w, narration.MapAnnouncement(nil))
		return
	}

	point, err := parseCoordinates(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Invalid coordinates",
			"message": err.Error(),
		})
		return
	}

	var station *models.Station
	if nearest, ok := h.stations.Nearest(point); ok {
		station = &nearest.Station
	}
	h.speak(w, narration.MapAnnouncement(station))
}

// Cancel stops the running sequence
func (h *NarrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"cancelled": h.narrator.Cancel(),
	})
}

// speak reports whether the text reached the glasses; it is dropped while
// they are not connected
func (h *NarrationHandler) speak(w http.ResponseWriter, text string) {
	delivered := h.glasses.Status().Paired
	h.narrator.Speak(text)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"text":      text,
		"delivered": delivered,
	})
}
