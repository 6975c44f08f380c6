package matrix

// Global and per-room configuration, plus the catch-up marker, are kept in
// Matrix account data as opaque carrier documents. Each carrier holds a
// single payload string, optionally encrypted with AES-256-GCM and base64
// armored.

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/common/crypto"
)

const (
	// AccountDataGlobalConfig is the event type of the global config carrier.
	AccountDataGlobalConfig = "cc.etke.baibot.global_config"
	// AccountDataRoomConfig is the event type of the room config carrier.
	AccountDataRoomConfig = "cc.etke.baibot.room_config"
	// AccountDataCatchUpMarker is the event type of the catch-up marker carrier.
	AccountDataCatchUpMarker = "cc.etke.baibot.catch_up_marker"
)

type carrier struct {
	Payload string `json:"payload"`
}

// AccountDataStore reads and writes carrier documents, transparently
// encrypting payloads when a key is configured.
type AccountDataStore struct {
	client *Client
	// key is the optional 32-byte AES-256-GCM key. Nil disables encryption.
	key []byte
}

// NewAccountDataStore creates a store over the client. A nil key stores
// payloads in plaintext.
func NewAccountDataStore(client *Client, key []byte) (*AccountDataStore, error) {
	if key != nil && len(key) != crypto.KeySize {
		return nil, crypto.ErrInvalidKeySize
	}
	return &AccountDataStore{client: client, key: key}, nil
}

func (s *AccountDataStore) seal(payload string) (string, error) {
	if s.key == nil {
		return payload, nil
	}
	sealed, err := crypto.Encrypt(s.key, []byte(payload))
	if err != nil {
		return "", fmt.Errorf("matrix: encrypt payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *AccountDataStore) open(payload string) (string, error) {
	if s.key == nil {
		return payload, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("matrix: decode payload: %w", err)
	}
	plain, err := crypto.Decrypt(s.key, sealed)
	if err != nil {
		return "", fmt.Errorf("matrix: decrypt payload: %w", err)
	}
	return string(plain), nil
}

func (s *AccountDataStore) loadGlobal(ctx context.Context, eventType string) (string, bool, error) {
	var doc carrier
	err := s.client.client.GetAccountData(ctx, eventType, &doc)
	if err != nil {
		if errors.Is(err, mautrix.MNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("matrix: get account data %s: %w", eventType, err)
	}
	payload, err := s.open(doc.Payload)
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (s *AccountDataStore) saveGlobal(ctx context.Context, eventType, payload string) error {
	sealed, err := s.seal(payload)
	if err != nil {
		return err
	}
	if err := s.client.client.SetAccountData(ctx, eventType, &carrier{Payload: sealed}); err != nil {
		return fmt.Errorf("matrix: set account data %s: %w", eventType, err)
	}
	return nil
}

// GlobalConfigStore implements the global configuration persistence
// contract on top of user account data.
type GlobalConfigStore struct {
	store *AccountDataStore
}

// NewGlobalConfigStore wraps the account-data store for the global config
// carrier.
func NewGlobalConfigStore(store *AccountDataStore) *GlobalConfigStore {
	return &GlobalConfigStore{store: store}
}

func (s *GlobalConfigStore) Load(ctx context.Context) (string, bool, error) {
	return s.store.loadGlobal(ctx, AccountDataGlobalConfig)
}

func (s *GlobalConfigStore) Save(ctx context.Context, payload string) error {
	return s.store.saveGlobal(ctx, AccountDataGlobalConfig, payload)
}

// RoomConfigStore implements the per-room configuration persistence
// contract on top of room account data.
type RoomConfigStore struct {
	store *AccountDataStore
}

// NewRoomConfigStore wraps the account-data store for the room config
// carrier.
func NewRoomConfigStore(store *AccountDataStore) *RoomConfigStore {
	return &RoomConfigStore{store: store}
}

func (s *RoomConfigStore) Load(ctx context.Context, roomID string) (string, bool, error) {
	var doc carrier
	err := s.store.client.client.GetRoomAccountData(ctx, id.RoomID(roomID), AccountDataRoomConfig, &doc)
	if err != nil {
		if errors.Is(err, mautrix.MNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("matrix: get room account data: %w", err)
	}
	payload, err := s.store.open(doc.Payload)
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (s *RoomConfigStore) Save(ctx context.Context, roomID, payload string) error {
	sealed, err := s.store.seal(payload)
	if err != nil {
		return err
	}
	err = s.store.client.client.SetRoomAccountData(ctx, id.RoomID(roomID), AccountDataRoomConfig, &carrier{Payload: sealed})
	if err != nil {
		return fmt.Errorf("matrix: set room account data: %w", err)
	}
	return nil
}

// CatchUpMarkerStore persists the catch-up watermark in user account data.
type CatchUpMarkerStore struct {
	store *AccountDataStore
}

// NewCatchUpMarkerStore wraps the account-data store for the catch-up
// marker carrier.
func NewCatchUpMarkerStore(store *AccountDataStore) *CatchUpMarkerStore {
	return &CatchUpMarkerStore{store: store}
}

func (s *CatchUpMarkerStore) Load(ctx context.Context) (int64, bool, error) {
	payload, found, err := s.store.loadGlobal(ctx, AccountDataCatchUpMarker)
	if err != nil || !found {
		return 0, false, err
	}
	ms, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("matrix: malformed catch-up marker %q: %w", payload, err)
	}
	return ms, true, nil
}

func (s *CatchUpMarkerStore) Save(ctx context.Context, ms int64) error {
	return s.store.saveGlobal(ctx, AccountDataCatchUpMarker, strconv.FormatInt(ms, 10))
}
