package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/ctaglass/internal/config"
	"github.com/randytsao24/ctaglass/internal/wearable"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "3000",
		Env:                "test",
		LogLevel:           "info",
		TrainBaseURL:       "http://127.0.0.1:1",
		BusBaseURL:         "http://127.0.0.1:1",
		HTTPTimeout:        time.Second,
		CacheTTL:           time.Minute,
		DatabasePath:       filepath.Join(t.TempDir(), "ctaglass.db"),
		ProbeStations:      []string{"40170"},
		PairingTimeout:     time.Second,
		SimulatedLinkDelay: 10 * time.Millisecond,
	}
}

func startApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		a.Close()
	})
	return a
}

func TestNewWiresServices(t *testing.T) {
	a := startApp(t, testConfig(t))

	assert.Positive(t, a.Stations.Count())
	assert.False(t, a.Trains.HasAPIKey())
	assert.False(t, a.Buses.HasAPIKey())
	assert.False(t, a.Alerts.Enabled())
	assert.Empty(t, a.Runs.Recent())
	assert.Equal(t, wearable.Idle(), a.Glasses.Status().State)
}

func TestRecentRunsSurviveRestart(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	first.Runs.Remember(context.Background(), "101")
	first.Runs.Remember(context.Background(), "202")
	first.Close()

	second := startApp(t, cfg)
	assert.Equal(t, []string{"202", "101"}, second.Runs.Recent())
}

func TestWithoutSimulatorPairingFails(t *testing.T) {
	a := startApp(t, testConfig(t))

	require.NoError(t, a.Glasses.StartPairing(context.Background()))
	require.Eventually(t, func() bool {
		return a.Glasses.Status().State.Phase == wearable.PhaseFailed
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSimulatedGlassesPair(t *testing.T) {
	cfg := testConfig(t)
	cfg.SimulatedGlasses = true
	a := startApp(t, cfg)

	require.NoError(t, a.Glasses.StartPairing(context.Background()))
	require.Eventually(t, a.Glasses.IsConnected, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 85, a.Glasses.Status().BatteryLevel)
}

func TestNewFailsOnUnusableDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabasePath = t.TempDir()

	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
