// Package app wires configuration and services into one Application value
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randytsao24/ctaglass/internal/config"
	"github.com/randytsao24/ctaglass/internal/location"
	"github.com/randytsao24/ctaglass/internal/logging"
	"github.com/randytsao24/ctaglass/internal/narration"
	"github.com/randytsao24/ctaglass/internal/runs"
	"github.com/randytsao24/ctaglass/internal/store"
	"github.com/randytsao24/ctaglass/internal/transit"
	"github.com/randytsao24/ctaglass/internal/wearable"
)

// Application holds the dependencies shared by the HTTP handlers and the
// server process.
type Application struct {
	Config *config.Config
	Logger *slog.Logger

	Stations *location.Directory
	Trains   *transit.TrainService
	Buses    *transit.BusService
	Alerts   *transit.AlertService
	Runs     *runs.Tracker
	Glasses  *wearable.Controller
	Narrator *narration.Dispatcher

	db *store.DB
}

// New builds every service from cfg. The wearable controller is created
// but not started; call Run for that.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stations, err := location.NewDirectory()
	if err != nil {
		return nil, fmt.Errorf("load station directory: %w", err)
	}

	db, err := store.Connect(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		logging.SafeCloseWithLogging(db, logger, "close database after schema failure")
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	trains := transit.NewTrainService(cfg.TrainAPIKey, cfg.TrainBaseURL, cfg.ProbeStations, cfg.HTTPTimeout, logger)
	buses := transit.NewBusService(cfg.BusAPIKey, cfg.BusBaseURL, cfg.HTTPTimeout, logger)
	alerts := transit.NewAlertService(cfg.AlertsURL, stations, cfg.HTTPTimeout, cfg.CacheTTL, logger)

	tracker, err := runs.NewTracker(ctx, trains, db, logger)
	if err != nil {
		alerts.Close()
		logging.SafeCloseWithLogging(db, logger, "close database after load failure")
		return nil, fmt.Errorf("load recent runs: %w", err)
	}

	glasses := wearable.NewController(newSubsystem(cfg, logger), cfg.PairingTimeout, logger)

	logger.Info("application initialized",
		slog.Int("stations", stations.Count()),
		slog.Bool("train_key", trains.HasAPIKey()),
		slog.Bool("bus_key", buses.HasAPIKey()),
		slog.Bool("alerts", alerts.Enabled()),
		slog.Bool("simulated_glasses", cfg.SimulatedGlasses))

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Stations: stations,
		Trains:   trains,
		Buses:    buses,
		Alerts:   alerts,
		Runs:     tracker,
		Glasses:  glasses,
		Narrator: narration.NewDispatcher(glasses, logger),
		db:       db,
	}, nil
}

// Run drives the wearable controller until ctx is cancelled
func (a *Application) Run(ctx context.Context) {
	a.Glasses.Run(ctx)
}

// Close stops narration and releases the cache and database. Cancel the
// context given to Run first.
func (a *Application) Close() {
	a.Narrator.Close()
	a.Alerts.Close()
	logging.SafeCloseWithLogging(a.db, a.Logger, "close database")
}

// newSubsystem picks the glasses backend. Only the simulator ships with
// the server; without it every pairing attempt reports the SDK as
// unavailable.
func newSubsystem(cfg *config.Config, logger *slog.Logger) wearable.Subsystem {
	if cfg.SimulatedGlasses {
		return wearable.NewSimulatedGlasses(cfg.SimulatedLinkDelay, logger)
	}
	return wearable.Unavailable{}
}
