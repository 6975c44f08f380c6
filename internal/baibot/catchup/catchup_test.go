package catchup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/etkecc/baibot/internal/baibot/catchup"
)

type fakeStore struct {
	mu      sync.Mutex
	value   int64
	found   bool
	saveErr error
	saves   int
}

func (s *fakeStore) Load(context.Context) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.found, nil
}

func (s *fakeStore) Save(_ context.Context, ms int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.value = ms
	s.found = true
	s.saves++
	return nil
}

const tolerance = 90 * time.Second

func TestPersistAppliesTolerance(t *testing.T) {
	store := &fakeStore{}
	m := catchup.New(store, time.Hour, tolerance)

	m.CatchUp(1_000_000)
	m.CatchUp(2_000_000)
	m.CatchUp(1_500_000)
	m.Persist(context.Background())

	want := int64(2_000_000) - tolerance.Milliseconds()
	if store.value != want {
		t.Errorf("stored %d, want %d", store.value, want)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

func TestPersistNeverRegresses(t *testing.T) {
	store := &fakeStore{value: 5_000_000, found: true}
	m := catchup.New(store, time.Hour, tolerance)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// The scheduled value minus tolerance is below the stored watermark.
	m.CatchUp(5_010_000)
	m.Persist(context.Background())

	if store.value != 5_000_000 {
		t.Errorf("stored %d, watermark must not move backwards", store.value)
	}
}

func TestIsCaughtUpAfterRestart(t *testing.T) {
	const eventTS = int64(10_000_000)

	store := &fakeStore{}
	m := catchup.New(store, time.Hour, tolerance)
	m.CatchUp(eventTS)
	m.Persist(context.Background())

	// Simulated restart: a fresh marker loads the persisted value.
	restarted := catchup.New(store, time.Hour, tolerance)
	if err := restarted.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// An event 120 s older than the original re-arrives.
	if !restarted.IsCaughtUp(eventTS - 120_000) {
		t.Error("a pre-watermark event must be treated as caught up")
	}
	// A genuinely new event is not caught up.
	if restarted.IsCaughtUp(eventTS + 1) {
		t.Error("a post-watermark event must not be treated as caught up")
	}
}

func TestFreshMarkerIsUncaughtUp(t *testing.T) {
	m := catchup.New(&fakeStore{}, time.Hour, tolerance)
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.IsCaughtUp(1) {
		t.Error("a fresh marker must treat every event as uncaught-up")
	}
}

func TestPersistFailureRetriesNextTick(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("store down")}
	m := catchup.New(store, time.Hour, tolerance)

	m.CatchUp(3_000_000)
	m.Persist(context.Background())
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()

	m.Persist(context.Background())
	want := int64(3_000_000) - tolerance.Milliseconds()
	if store.value != want {
		t.Errorf("stored %d after retry, want %d", store.value, want)
	}
}

func TestPersistWithoutScheduleIsNoop(t *testing.T) {
	store := &fakeStore{}
	m := catchup.New(store, time.Hour, tolerance)
	m.Persist(context.Background())
	if store.saves != 0 {
		t.Errorf("saves = %d, want 0", store.saves)
	}
}
