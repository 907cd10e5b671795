package narration

import (
	"strings"

	"github.com/randytsao24/ctaglass/internal/models"
	"github.com/randytsao24/ctaglass/internal/transit"
)

// GuideSteps is the glasses walkthrough, read with InstructionPacing
var GuideSteps = []string{
	"Welcome to CTA Transit Assistant. Use your glasses for everything.",
	"Schedules shows train arrivals. Tap a station or use your phone to pick.",
	"Follow This Train lists stops for a run number. Tap any stop to hear it.",
	"Safety Recording captures POV video from your glasses. Saves to your phone.",
	"Operator mode reads service alerts and schedules to your glasses.",
	"Tap any arrival or stop to hear it. Or use the app on your phone.",
}

const (
	mapFallback    = "Map view ready. Select a station to hear arrivals and directions on your glasses."
	noAlertsNotice = "No active service alerts."
)

// StopSummaries renders each stop as a short sentence
func StopSummaries(stops []transit.FollowStop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.SpokenSummary())
	}
	return out
}

// RunItinerary is the whole itinerary of a run as one utterance
func RunItinerary(run string, stops []transit.FollowStop) string {
	if len(stops) == 0 {
		return "No stops for run " + run
	}
	return strings.Join(StopSummaries(stops), Separator)
}

// AlertsBulletin reads every alert header as one utterance
func AlertsBulletin(alerts []transit.ServiceAlert) string {
	headers := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if h := strings.TrimSpace(a.SpokenSummary()); h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return noAlertsNotice
	}
	return strings.Join(headers, Separator)
}

// MapAnnouncement describes the station the map is centered on, or a
// generic prompt when there is none
func MapAnnouncement(station *models.Station) string {
	if station == nil {
		return mapFallback
	}
	return "Map centered near " + station.Name + ". " +
		strings.Join(station.Routes, ", ") + " Line. Say a station name to hear arrivals."
}
