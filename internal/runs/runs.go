// Package runs keeps the recently followed run numbers and exposes live
// run discovery.
package runs

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/randytsao24/ctaglass/internal/logging"
	"github.com/randytsao24/ctaglass/internal/transit"
)

// MaxRecent is the length cap of the recent-run history
const MaxRecent = 5

// AddToRecent returns list with run moved (or inserted) at the front and
// truncated to MaxRecent. list is not modified.
func AddToRecent(list []string, run string) []string {
	run = strings.TrimSpace(run)
	if run == "" {
		return append([]string{}, list...)
	}

	out := make([]string, 0, min(len(list)+1, MaxRecent))
	out = append(out, run)
	for _, r := range list {
		if len(out) == MaxRecent {
			break
		}
		if r != run {
			out = append(out, r)
		}
	}
	return out
}

// RecentStore persists the recent-run list
type RecentStore interface {
	LoadRecentRuns(ctx context.Context) ([]string, error)
	SaveRecentRuns(ctx context.Context, runs []string) error
}

// RunSource discovers runs currently in service
type RunSource interface {
	FetchActiveRunNumbers(ctx context.Context) ([]transit.ActiveRun, error)
}

// Tracker owns the recent-run history
type Tracker struct {
	mu     sync.Mutex
	recent []string
	source RunSource
	store  RecentStore
	logger *slog.Logger
}

// NewTracker loads the saved history from store. A nil store keeps the
// history in memory only.
func NewTracker(ctx context.Context, source RunSource, store RecentStore, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = &MemoryStore{}
	}

	saved, err := store.LoadRecentRuns(ctx)
	if err != nil {
		return nil, err
	}

	// Normalize whatever was saved: dedupe, cap, oldest last
	recent := []string{}
	for i := len(saved) - 1; i >= 0; i-- {
		recent = AddToRecent(recent, saved[i])
	}

	return &Tracker{
		recent: recent,
		source: source,
		store:  store,
		logger: logger.With(slog.String("component", "run_tracker")),
	}, nil
}

// Remember moves run to the front of the history and persists it. A failed
// save is logged and the in-memory history is still updated.
func (t *Tracker) Remember(ctx context.Context, run string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.recent = AddToRecent(t.recent, run)
	if err := t.store.SaveRecentRuns(ctx, t.recent); err != nil {
		logging.LogError(t.logger, "failed to save recent runs", err, slog.String("run", run))
	}
	return append([]string{}, t.recent...)
}

// Recent returns the history, most recent first
func (t *Tracker) Recent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.recent...)
}

// ActiveRuns returns the runs currently in service
func (t *Tracker) ActiveRuns(ctx context.Context) ([]transit.ActiveRun, error) {
	return t.source.FetchActiveRunNumbers(ctx)
}

// MemoryStore is a RecentStore that keeps the list in process
type MemoryStore struct {
	mu   sync.Mutex
	runs []string
}

func (m *MemoryStore) LoadRecentRuns(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.runs...), nil
}

func (m *MemoryStore) SaveRecentRuns(_ context.Context, runs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append([]string{}, runs...)
	return nil
}
