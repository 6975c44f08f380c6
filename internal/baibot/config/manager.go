package config

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/etkecc/baibot/common/cache"
)

const roomCacheSize = 256

// GlobalStore persists the single global configuration document.
type GlobalStore interface {
	Load(ctx context.Context) (payload string, found bool, err error)
	Save(ctx context.Context, payload string) error
}

// RoomStore persists per-room configuration documents.
type RoomStore interface {
	Load(ctx context.Context, roomID string) (payload string, found bool, err error)
	Save(ctx context.Context, roomID, payload string) error
}

// GlobalManager caches the global configuration and serializes all access
// through one mutex so the cache and the store never disagree.
type GlobalManager struct {
	mu      sync.Mutex
	store   GlobalStore
	initial GlobalConfig
	cached  *GlobalConfig
}

// NewGlobalManager creates a manager that seeds the store with initial when
// no document exists yet.
func NewGlobalManager(store GlobalStore, initial GlobalConfig) *GlobalManager {
	return &GlobalManager{store: store, initial: initial}
}

// Get returns the global configuration, creating it from the initial seed
// on first access. Callers must not mutate the result; use Update.
func (m *GlobalManager) Get(ctx context.Context) (*GlobalConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx)
}

func (m *GlobalManager) getLocked(ctx context.Context) (*GlobalConfig, error) {
	if m.cached != nil {
		return m.cached, nil
	}
	payload, found, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("config: load global config: %w", err)
	}
	if !found {
		cfg := m.initial
		if err := m.saveLocked(ctx, &cfg); err != nil {
			return nil, err
		}
		m.cached = &cfg
		return m.cached, nil
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode global config: %w", err)
	}
	m.cached = &cfg
	return m.cached, nil
}

// Update runs a read-modify-write sequence under the mutex and persists the
// result. The cache is only replaced after a successful save.
func (m *GlobalManager) Update(ctx context.Context, mutate func(*GlobalConfig) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.getLocked(ctx)
	if err != nil {
		return err
	}
	next := *current
	if err := mutate(&next); err != nil {
		return err
	}
	if err := m.saveLocked(ctx, &next); err != nil {
		return err
	}
	m.cached = &next
	return nil
}

func (m *GlobalManager) saveLocked(ctx context.Context, cfg *GlobalConfig) error {
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode global config: %w", err)
	}
	if err := m.store.Save(ctx, string(payload)); err != nil {
		return fmt.Errorf("config: persist global config: %w", err)
	}
	return nil
}

// RoomManager caches per-room configurations in a bounded LRU and
// serializes all access through one mutex.
type RoomManager struct {
	mu    sync.Mutex
	store RoomStore
	cache *cache.LRU[string, *RoomConfig]
}

// NewRoomManager creates a manager over the given store.
func NewRoomManager(store RoomStore) *RoomManager {
	return &RoomManager{store: store, cache: cache.NewLRU[string, *RoomConfig](roomCacheSize)}
}

// Get returns the room configuration, creating an empty one on first
// access. Callers must not mutate the result; use Update.
func (m *RoomManager) Get(ctx context.Context, roomID string) (*RoomConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(ctx, roomID)
}

func (m *RoomManager) getLocked(ctx context.Context, roomID string) (*RoomConfig, error) {
	if cfg, ok := m.cache.Get(roomID); ok {
		return cfg, nil
	}
	payload, found, err := m.store.Load(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("config: load room config for %s: %w", roomID, err)
	}
	if !found {
		return m.forceCreateLocked(ctx, roomID)
	}
	var cfg RoomConfig
	if err := yaml.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode room config for %s: %w", roomID, err)
	}
	m.cache.Put(roomID, &cfg)
	return &cfg, nil
}

// ForceCreate persists a fresh empty configuration for the room, replacing
// whatever is stored. Used when the bot joins a room.
func (m *RoomManager) ForceCreate(ctx context.Context, roomID string) (*RoomConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forceCreateLocked(ctx, roomID)
}

func (m *RoomManager) forceCreateLocked(ctx context.Context, roomID string) (*RoomConfig, error) {
	cfg := &RoomConfig{}
	if err := m.saveLocked(ctx, roomID, cfg); err != nil {
		return nil, err
	}
	m.cache.Put(roomID, cfg)
	return cfg, nil
}

// Update runs a read-modify-write sequence under the mutex and persists the
// result. The cache is only replaced after a successful save.
func (m *RoomManager) Update(ctx context.Context, roomID string, mutate func(*RoomConfig) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.getLocked(ctx, roomID)
	if err != nil {
		return err
	}
	next := *current
	if err := mutate(&next); err != nil {
		return err
	}
	if err := m.saveLocked(ctx, roomID, &next); err != nil {
		return err
	}
	m.cache.Put(roomID, &next)
	return nil
}

func (m *RoomManager) saveLocked(ctx context.Context, roomID string, cfg *RoomConfig) error {
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode room config for %s: %w", roomID, err)
	}
	if err := m.store.Save(ctx, roomID, string(payload)); err != nil {
		return fmt.Errorf("config: persist room config for %s: %w", roomID, err)
	}
	return nil
}
