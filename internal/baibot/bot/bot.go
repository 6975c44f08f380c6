// Package bot wires event intake, routing, and orchestration together:
// it receives Matrix events, resolves their thread context, routes them
// through the controller, and drives the provider pipelines.
package bot

import (
	"context"
	"log/slog"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/internal/baibot/catchup"
	"github.com/etkecc/baibot/internal/baibot/config"
	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/matrix"
	"github.com/etkecc/baibot/internal/baibot/registry"
	"github.com/etkecc/baibot/internal/baibot/store"
)

// Messenger is the transport surface the bot drives. *matrix.Client
// implements it; tests substitute a fake.
type Messenger interface {
	UserID() id.UserID
	JoinRoom(ctx context.Context, roomID id.RoomID) error
	LeaveRoom(ctx context.Context, roomID id.RoomID) error
	SendMarkdown(ctx context.Context, roomID id.RoomID, markdown string, opts matrix.SendOptions) (id.EventID, error)
	React(ctx context.Context, roomID id.RoomID, eventID id.EventID, key string) (id.EventID, error)
	Redact(ctx context.Context, roomID id.RoomID, eventID id.EventID, reason string) error
	Typing(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration)
	DownloadMedia(ctx context.Context, uri id.ContentURIString) ([]byte, error)
	SendAudio(ctx context.Context, roomID id.RoomID, data []byte, mime, body string, opts matrix.SendOptions) (id.EventID, error)
	SendImage(ctx context.Context, roomID id.RoomID, data []byte, mime, body string, sticker bool, opts matrix.SendOptions) (id.EventID, error)
	FetchEvent(ctx context.Context, roomID id.RoomID, eventID id.EventID) (*event.Event, error)
	ThreadMessages(ctx context.Context, roomID id.RoomID, root id.EventID) ([]*event.Event, error)
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
}

// InstanceSource supplies the live agent instances for a room.
// *registry.Registry implements it.
type InstanceSource interface {
	Instances(room *config.RoomConfig, global *config.GlobalConfig) []registry.Instance
}

// UsageRecorder persists and reports provider-call accounting.
// *store.Store implements it.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, entry store.UsageEntry) error
	RoomUsage(ctx context.Context, roomID string, since time.Time) ([]store.UsageSummary, error)
}

// Config carries the bot-level knobs from bootstrap.
type Config struct {
	CommandPrefix string
	// PostJoinSelfIntroduction posts a short introduction after joining a
	// room.
	PostJoinSelfIntroduction bool
	// AggregatorExpiration is how long a room's pending completion waits for
	// rapid-fire follow-ups before dispatch.
	AggregatorExpiration time.Duration
	// AggregatorInterval is how often the pending map is scanned.
	AggregatorInterval time.Duration
}

// Bot is the orchestrator.
type Bot struct {
	messenger Messenger
	registry  InstanceSource
	globals   *config.GlobalManager
	rooms     *config.RoomManager
	checker   *config.Checker
	marker    *catchup.Marker
	usage     UsageRecorder
	cfg       Config

	agg *aggregator
}

// New wires the orchestrator. All collaborators are required except usage,
// which may be nil to disable accounting.
func New(messenger Messenger, reg InstanceSource, globals *config.GlobalManager, rooms *config.RoomManager, checker *config.Checker, marker *catchup.Marker, usage UsageRecorder, cfg Config) *Bot {
	b := &Bot{
		messenger: messenger,
		registry:  reg,
		globals:   globals,
		rooms:     rooms,
		checker:   checker,
		marker:    marker,
		usage:     usage,
		cfg:       cfg,
	}
	b.agg = newAggregator(cfg.AggregatorExpiration, cfg.AggregatorInterval, func(ctx context.Context, p pendingWork) {
		b.runChatCompletion(ctx, p.mctx, p.variant)
	})
	return b
}

// Handlers returns the transport subscriptions.
func (b *Bot) Handlers() matrix.Handlers {
	return matrix.Handlers{
		OnMessage:  b.handleMessage,
		OnReaction: b.handleReaction,
		OnInvite:   b.handleInvite,
		OnJoin:     b.handleJoin,
	}
}

// Run drives the background loops until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	go b.marker.Run(ctx)
	b.agg.Run(ctx)
}

// roomEnv bundles the per-event configuration view: both overlays, the
// layered context, and the live agent instances.
type roomEnv struct {
	global    *config.GlobalConfig
	room      *config.RoomConfig
	cfgCtx    config.RoomConfigContext
	instances []registry.Instance
}

func (b *Bot) roomEnv(ctx context.Context, roomID id.RoomID) (*roomEnv, error) {
	global, err := b.globals.Get(ctx)
	if err != nil {
		return nil, err
	}
	room, err := b.rooms.Get(ctx, string(roomID))
	if err != nil {
		return nil, err
	}
	return &roomEnv{
		global:    global,
		room:      room,
		cfgCtx:    config.RoomConfigContext{Room: room, Global: global},
		instances: b.registry.Instances(room, global),
	}, nil
}

func (b *Bot) recordUsage(ctx context.Context, mctx controller.MessageContext, purpose string, res *registry.Resolution) {
	if b.usage == nil {
		return
	}
	entry := store.UsageEntry{
		RoomID:  string(mctx.RoomID),
		Sender:  string(mctx.Sender),
		Purpose: purpose,
		AgentID: res.Instance.ID.String(),
	}
	if modelID, ok := res.Instance.Controller.TextGenerationModelID(); ok {
		entry.ModelID = modelID
	}
	if err := b.usage.RecordUsage(ctx, entry); err != nil {
		slog.Warn("recording usage failed", "error", err)
	}
}
