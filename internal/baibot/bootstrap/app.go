package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/etkecc/baibot/internal/baibot/bot"
	"github.com/etkecc/baibot/internal/baibot/catchup"
	"github.com/etkecc/baibot/internal/baibot/config"
	"github.com/etkecc/baibot/internal/baibot/matrix"
	"github.com/etkecc/baibot/internal/baibot/registry"
	"github.com/etkecc/baibot/internal/baibot/store"
)

// App holds the assembled application.
type App struct {
	cfg    *Config
	store  *store.Store
	client *matrix.Client
	bot    *bot.Bot
	marker *catchup.Marker
}

// New wires the whole application from a validated configuration. Nothing
// talks to the homeserver yet; that happens in Run.
func New(cfg *Config) (*App, error) {
	if err := os.MkdirAll(cfg.Persistence.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("bootstrap: create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open store: %w", err)
	}

	client, err := matrix.New(&matrix.Config{
		Homeserver:           cfg.Homeserver,
		UserID:               cfg.User.ID,
		Password:             cfg.User.Password,
		AccessToken:          cfg.User.AccessToken,
		DeviceID:             cfg.User.DeviceID,
		RecoveryPassphrase:   cfg.User.EncryptionRecoveryPassphrase,
		RecoveryResetAllowed: cfg.User.EncryptionRecoveryResetAllowed,
		DB:                   st.DB(),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	configData, err := matrix.NewAccountDataStore(client, cfg.ConfigEncryptionKey())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: config account data: %w", err)
	}
	sessionData, err := matrix.NewAccountDataStore(client, cfg.SessionEncryptionKey())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: session account data: %w", err)
	}

	checker, err := config.NewChecker(cfg.Access.AdminPatterns)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: access checker: %w", err)
	}

	reg, err := registry.New(cfg.Agents.StaticDefinitions)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("bootstrap: static agents: %w", err)
	}

	globals := config.NewGlobalManager(matrix.NewGlobalConfigStore(configData), cfg.InitialGlobalConfig)
	rooms := config.NewRoomManager(matrix.NewRoomConfigStore(configData))
	marker := catchup.New(matrix.NewCatchUpMarkerStore(sessionData), 0, 0)

	b := bot.New(client, reg, globals, rooms, checker, marker, st, cfg.BotConfig())

	return &App{
		cfg:    cfg,
		store:  st,
		client: client,
		bot:    b,
		marker: marker,
	}, nil
}

// Run logs in, loads the catch-up marker, starts syncing, and drives the
// bot's background loops until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.client.Login(ctx); err != nil {
		return err
	}
	if err := a.marker.Load(ctx); err != nil {
		return fmt.Errorf("bootstrap: load catch-up marker: %w", err)
	}
	if err := a.client.PrepareProfile(ctx, a.cfg.User.DisplayName); err != nil {
		return fmt.Errorf("bootstrap: prepare profile: %w", err)
	}

	slog.Info("starting", "bot_id", a.cfg.UniqueBotID, "user_id", a.cfg.User.ID, "homeserver", a.cfg.Homeserver)
	a.client.Start(a.bot.Handlers())
	a.bot.Run(ctx)
	return nil
}

// Stop shuts down the sync loop and closes the database.
func (a *App) Stop() {
	a.client.Stop()
	if err := a.store.Close(); err != nil {
		slog.Error("closing store", "error", err)
	}
	slog.Info("stopped")
}
