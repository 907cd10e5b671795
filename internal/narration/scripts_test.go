package narration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/randytsao24/ctaglass/internal/models"
	"github.com/randytsao24/ctaglass/internal/transit"
)

func TestRunItinerary(t *testing.T) {
	assert.Equal(t, "No stops for run 123", RunItinerary("123", nil))

	at := time.Date(2026, 3, 1, 15, 4, 0, 0, transit.Chicago())
	stops := []transit.FollowStop{
		{StopID: "40170", StopName: "Clark/Lake", ArrivalTime: &at},
		{StopID: "40490", StopName: "Washington"},
	}
	assert.Equal(t, "Clark/Lake at 3:04 PM. Washington", RunItinerary("123", stops))
	assert.Equal(t, []string{"Clark/Lake at 3:04 PM", "Washington"}, StopSummaries(stops))
}

func TestAlertsBulletin(t *testing.T) {
	assert.Equal(t, "No active service alerts.", AlertsBulletin(nil))

	alerts := []transit.ServiceAlert{
		{ID: "1", Header: "Elevator at Clark/Lake temporarily out of service"},
		{ID: "2", Header: "  "},
		{ID: "3", Header: "Red Line trains running with delays"},
	}
	assert.Equal(t, "Elevator at Clark/Lake temporarily out of service. Red Line trains running with delays", AlertsBulletin(alerts))
}

func TestMapAnnouncement(t *testing.T) {
	assert.Equal(t, "Map view ready. Select a station to hear arrivals and directions on your glasses.", MapAnnouncement(nil))

	station := &models.Station{Name: "Clark/Lake", Routes: []string{"Blue", "Brown", "Green"}}
	assert.Equal(t, "Map centered near Clark/Lake. Blue, Brown, Green Line. Say a station name to hear arrivals.", MapAnnouncement(station))
}

func TestGuideSteps(t *testing.T) {
	assert.Len(t, GuideSteps, 6)
	assert.Len(t, Chunk(GuideSteps, InstructionPacing.ChunkSize), 6)
	assert.Equal(t, Pacing{ChunkSize: 2, Delay: 3500 * time.Millisecond}, StopListPacing)
	assert.Equal(t, Pacing{ChunkSize: 1, Delay: 4500 * time.Millisecond}, InstructionPacing)
}
