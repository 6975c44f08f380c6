package bot

import (
	"context"
	"log/slog"

	"maunium.net/go/mautrix/event"

	"github.com/etkecc/baibot/common/trace"
	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/matrix"
)

const (
	transcribingEmoji = "🦻"
	speakEmoji        = "🗣️"
)

func (b *Bot) handleInvite(ctx context.Context, evt *event.Event) {
	global, err := b.globals.Get(ctx)
	if err != nil {
		slog.Error("loading global config for invitation failed", "room", evt.RoomID, "error", err)
		return
	}
	allowed, err := b.checker.SenderCanUseBot(string(evt.Sender), global)
	if err != nil {
		slog.Error("checking invitation sender failed", "sender", evt.Sender, "error", err)
		return
	}
	if !allowed {
		slog.Info("rejecting invitation from a disallowed sender", "room", evt.RoomID, "sender", evt.Sender)
		if err := b.messenger.LeaveRoom(ctx, evt.RoomID); err != nil {
			slog.Warn("rejecting the invitation failed", "room", evt.RoomID, "error", err)
		}
		return
	}
	slog.Info("accepting invitation", "room", evt.RoomID, "sender", evt.Sender)
	if err := b.messenger.JoinRoom(ctx, evt.RoomID); err != nil {
		slog.Error("joining the room failed", "room", evt.RoomID, "error", err)
	}
}

func (b *Bot) handleJoin(ctx context.Context, evt *event.Event) {
	slog.Info("joined room", "room", evt.RoomID)
	// A fresh join always starts from an empty room configuration, even if
	// a previous membership left one behind.
	if _, err := b.rooms.ForceCreate(ctx, string(evt.RoomID)); err != nil {
		slog.Error("creating the room configuration failed", "room", evt.RoomID, "error", err)
	}
	if b.cfg.PostJoinSelfIntroduction {
		if _, err := b.messenger.SendMarkdown(ctx, evt.RoomID, b.introduction(), matrix.SendOptions{}); err != nil {
			slog.Warn("posting the introduction failed", "room", evt.RoomID, "error", err)
		}
	}
	b.marker.CatchUp(evt.Timestamp)
}

func (b *Bot) handleMessage(ctx context.Context, evt *event.Event) {
	if b.marker.IsCaughtUp(evt.Timestamp) {
		return
	}
	defer b.marker.CatchUp(evt.Timestamp)

	// One trace id per incoming event, carried through to the provider call.
	ctx = trace.WithTraceID(ctx, trace.GenerateID())

	env, err := b.roomEnv(ctx, evt.RoomID)
	if err != nil {
		slog.Error("loading the room environment failed", "room", evt.RoomID, "error", err)
		return
	}
	allowed, err := b.checker.SenderCanUseBot(string(evt.Sender), env.global)
	if err != nil {
		slog.Error("checking the sender failed", "sender", evt.Sender, "error", err)
		return
	}
	if !allowed {
		slog.Debug("ignoring message from a disallowed sender", "room", evt.RoomID, "sender", evt.Sender)
		return
	}

	tc, err := resolveThreadContext(ctx, b.messenger.UserID(), evt, b.messenger.FetchEvent)
	if err != nil {
		slog.Warn("resolving the thread context failed", "room", evt.RoomID, "event", evt.ID, "error", err)
		return
	}
	if tc == nil {
		return
	}
	payload, ok := payloadOf(evt)
	if !ok {
		return
	}

	prefixReq, _ := env.cfgCtx.PrefixRequirementType()
	canManage, err := b.checker.SenderCanManageRoomLocalAgents(string(evt.Sender), env.global)
	if err != nil {
		slog.Error("checking the sender's manager role failed", "sender", evt.Sender, "error", err)
		return
	}

	mctx := controller.MessageContext{
		RoomID:    evt.RoomID,
		Sender:    evt.Sender,
		EventID:   evt.ID,
		BotUserID: b.messenger.UserID(),
		OriginTS:  evt.Timestamp,

		Payload:    payload,
		Thread:     tc.info,
		IsTopLevel: tc.topLevel,

		PrefixRequirement:              prefixReq,
		SenderIsAdmin:                  b.checker.SenderIsAdmin(string(evt.Sender)),
		SenderCanManageRoomLocalAgents: canManage,
	}

	variant := controller.Determine(b.cfg.CommandPrefix, tc.first, mctx)
	switch variant.Kind {
	case controller.KindIgnore:
		return
	case controller.KindChatCompletion:
		// Completions go through the aggregator so rapid-fire messages in
		// one room collapse into a single provider call.
		b.agg.Add(mctx, variant)
	default:
		go b.execute(context.WithoutCancel(ctx), mctx, variant)
	}
}

func (b *Bot) handleReaction(ctx context.Context, evt *event.Event) {
	if b.marker.IsCaughtUp(evt.Timestamp) {
		return
	}
	defer b.marker.CatchUp(evt.Timestamp)

	ctx = trace.WithTraceID(ctx, trace.GenerateID())

	reaction := evt.Content.AsReaction()
	if reaction == nil || reaction.RelatesTo.Key != speakEmoji {
		return
	}
	global, err := b.globals.Get(ctx)
	if err != nil {
		slog.Error("loading global config for reaction failed", "room", evt.RoomID, "error", err)
		return
	}
	allowed, err := b.checker.SenderCanUseBot(string(evt.Sender), global)
	if err != nil || !allowed {
		return
	}
	go b.performReactionTTS(context.WithoutCancel(ctx), evt.RoomID, reaction.RelatesTo.EventID, evt.Sender)
}
