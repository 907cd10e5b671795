package handlers

import (
	"context"

	"github.com/randytsao24/ctaglass/internal/models"
	"github.com/randytsao24/ctaglass/internal/narration"
	"github.com/randytsao24/ctaglass/internal/transit"
	"github.com/randytsao24/ctaglass/internal/wearable"
)

// StationDirectory abstracts the station table.
type StationDirectory interface {
	Count() int
	All() []models.Station
	ByMapID(mapID string) (models.Station, bool)
	ByName(name string) (models.Station, bool)
	ForRoutes(routes []string) []models.Station
	Nearest(point models.Coordinate) (models.StationWithDistance, bool)
	FindNearby(point models.Coordinate, radiusMeters float64) []models.StationWithDistance
	FindClosest(point models.Coordinate, limit int) []models.StationWithDistance
}

// TrainProvider abstracts the Train Tracker API for testability.
type TrainProvider interface {
	HasAPIKey() bool
	FetchArrivals(ctx context.Context, mapID string) ([]transit.Arrival, error)
	FetchFollowThisTrain(ctx context.Context, runNumber string) ([]transit.FollowStop, error)
}

// BusProvider abstracts the Bus Tracker API for testability.
type BusProvider interface {
	HasAPIKey() bool
	FetchPredictions(ctx context.Context, stopID, route string) ([]transit.BusArrival, error)
}

// AlertProvider abstracts the service alerts data source.
type AlertProvider interface {
	Enabled() bool
	GetAlerts(ctx context.Context, routes []string) ([]transit.ServiceAlert, error)
}

// RunTracker abstracts the recent-run history and run discovery.
type RunTracker interface {
	Remember(ctx context.Context, run string) []string
	Recent() []string
	ActiveRuns(ctx context.Context) ([]transit.ActiveRun, error)
}

// Wearable abstracts the glasses link controller.
type Wearable interface {
	Status() wearable.Status
	StartPairing(ctx context.Context) error
	Disconnect(ctx context.Context) error
	ContinueWithoutPairing(ctx context.Context) error
}

// Narrator abstracts the speech dispatcher.
type Narrator interface {
	Speak(text string)
	SpeakSequence(items []string, p narration.Pacing) *narration.Sequence
	Cancel() bool
}
