// Package catchup tracks the high-watermark of processed event timestamps
// so that a state-store loss does not cause old events to be re-processed.
package catchup

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultPersistInterval is how often the scheduled watermark is
	// written out.
	DefaultPersistInterval = 10 * time.Second
	// DefaultFederationDelayTolerance is subtracted from the watermark
	// before persisting, so late-federated but genuinely new events are
	// not mistaken for old ones.
	DefaultFederationDelayTolerance = 90 * time.Second
)

// Store persists the caught-up-until timestamp (unix milliseconds).
type Store interface {
	Load(ctx context.Context) (ms int64, found bool, err error)
	Save(ctx context.Context, ms int64) error
}

// Marker is the in-memory view of the catch-up watermark plus the
// scheduled next persist value.
type Marker struct {
	store     Store
	interval  time.Duration
	tolerance time.Duration

	mu           sync.Mutex
	cached       int64
	scheduled    int64
	hasScheduled bool
}

// New creates a marker. Zero durations fall back to the defaults.
func New(store Store, interval, tolerance time.Duration) *Marker {
	if interval <= 0 {
		interval = DefaultPersistInterval
	}
	if tolerance <= 0 {
		tolerance = DefaultFederationDelayTolerance
	}
	return &Marker{store: store, interval: interval, tolerance: tolerance}
}

// Load initializes the cached value from the store. A missing document
// leaves the marker at 0, so every event appears uncaught-up until the
// first persist.
func (m *Marker) Load(ctx context.Context) error {
	ms, found, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if found {
		m.cached = ms
	}
	return nil
}

// CatchUp schedules a future persist covering the given origin timestamp.
func (m *Marker) CatchUp(originTSMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasScheduled || originTSMs > m.scheduled {
		m.scheduled = originTSMs
	}
	m.hasScheduled = true
}

// IsCaughtUp reports whether the event at the given origin timestamp has
// already been processed according to the persisted watermark.
func (m *Marker) IsCaughtUp(originTSMs int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached >= originTSMs
}

// Run drives the background persister until ctx is cancelled.
func (m *Marker) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Persist(ctx)
		}
	}
}

// Persist writes out the scheduled watermark, if any. The mutex is held
// only to swap the schedule out; the store write happens outside it.
// Failures are logged and the schedule is restored for the next tick.
func (m *Marker) Persist(ctx context.Context) {
	m.mu.Lock()
	if !m.hasScheduled {
		m.mu.Unlock()
		return
	}
	scheduled := m.scheduled
	m.hasScheduled = false
	value := scheduled - m.tolerance.Milliseconds()
	if value < m.cached {
		value = m.cached
	}
	m.mu.Unlock()

	if err := m.store.Save(ctx, value); err != nil {
		slog.Warn("persisting the catch-up marker failed", "error", err)
		m.mu.Lock()
		if !m.hasScheduled || scheduled > m.scheduled {
			m.scheduled = scheduled
			m.hasScheduled = true
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	if value > m.cached {
		m.cached = value
	}
	m.mu.Unlock()
}
