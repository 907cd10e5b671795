package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/randytsao24/ctaglass/internal/api/handlers"
	"github.com/randytsao24/ctaglass/internal/app"
)

const (
	// DefaultRequestTimeout bounds one request, upstream calls included
	DefaultRequestTimeout = 15 * time.Second

	compressMinSize = 1024
)

// Services are the handler dependencies
type Services struct {
	Stations handlers.StationDirectory
	Trains   handlers.TrainProvider
	Buses    handlers.BusProvider
	Alerts   handlers.AlertProvider
	Runs     handlers.RunTracker
	Glasses  handlers.Wearable
	Narrator handlers.Narrator
}

// ServicesFrom takes the handler dependencies from a wired application
func ServicesFrom(a *app.Application) Services {
	return Services{
		Stations: a.Stations,
		Trains:   a.Trains,
		Buses:    a.Buses,
		Alerts:   a.Alerts,
		Runs:     a.Runs,
		Glasses:  a.Glasses,
		Narrator: a.Narrator,
	}
}

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(svc Services, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	mux := http.NewServeMux()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(svc.Glasses)
	rootHandler := handlers.NewRootHandler()
	locationHandler := handlers.NewLocationHandler(svc.Stations)
	transitHandler := handlers.NewTransitHandler(svc.Trains, svc.Buses, svc.Alerts, svc.Runs, svc.Stations, svc.Narrator)
	wearableHandler := handlers.NewWearableHandler(svc.Glasses)
	narrationHandler := handlers.NewNarrationHandler(svc.Narrator, svc.Glasses, svc.Trains, svc.Alerts, svc.Stations)

	// Core routes
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("/", rootHandler.NotFound)

	// Station directory
	mux.HandleFunc("GET /transit/stations", locationHandler.GetStations)
	mux.HandleFunc("GET /transit/stations/info", locationHandler.GetLocationInfo)
	mux.HandleFunc("GET /transit/stations/nearest", locationHandler.GetNearestStation)
	mux.HandleFunc("GET /transit/stations/near", locationHandler.GetNearbyStations)
	mux.HandleFunc("GET /transit/stations/closest", locationHandler.GetClosestStations)
	mux.HandleFunc("GET /transit/stations/search", locationHandler.SearchStations)

	// Train routes
	mux.HandleFunc("GET /transit/train/station/{mapId}", transitHandler.GetTrainArrivals)
	mux.HandleFunc("GET /transit/train/follow/{run}", transitHandler.FollowTrain)
	mux.HandleFunc("GET /transit/train/runs/active", transitHandler.GetActiveRuns)
	mux.HandleFunc("GET /transit/train/runs/recent", transitHandler.GetRecentRuns)

	// Bus and alerts
	mux.HandleFunc("GET /transit/bus/stop/{stopId}", transitHandler.GetBusPredictions)
	mux.HandleFunc("GET /transit/alerts", transitHandler.GetServiceAlerts)

	// Glasses link
	mux.HandleFunc("GET /wearable/status", wearableHandler.GetStatus)
	mux.HandleFunc("POST /wearable/pair", wearableHandler.Pair)
	mux.HandleFunc("POST /wearable/disconnect", wearableHandler.Disconnect)
	mux.HandleFunc("POST /wearable/skip", wearableHandler.ContinueWithoutPairing)

	// Narration
	mux.HandleFunc("POST /narration/speak", narrationHandler.Speak)
	mux.HandleFunc("POST /narration/guide", narrationHandler.Guide)
	mux.HandleFunc("POST /narration/run/{run}", narrationHandler.SpeakRun)
	mux.HandleFunc("POST /narration/alerts", narrationHandler.SpeakAlerts)
	mux.HandleFunc("POST /narration/map", narrationHandler.AnnounceMap)
	mux.HandleFunc("POST /narration/cancel", narrationHandler.Cancel)

	// Apply middleware stack
	handler := Chain(mux,
		Recovery(logger),
		RequestLogging(logger),
		CORS,
		Compression(compressMinSize),
		Timeout(requestTimeout),
	)

	return handler
}
