package bot

import (
	"context"
	"strings"
	"time"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/internal/baibot/controller"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

// fetchFunc retrieves a single event, typically through the client's
// bounded cache.
type fetchFunc func(ctx context.Context, roomID id.RoomID, eventID id.EventID) (*event.Event, error)

// threadContext is the resolver output: where the conversation lives and
// what its first message looks like to the router.
type threadContext struct {
	info     controller.ThreadInfo
	first    controller.FirstMessage
	topLevel bool
}

// resolveThreadContext classifies an incoming event against its thread.
// A nil result means the event is not actionable: a non-thread reply, or a
// thread rooted in a redacted or unknown message.
func resolveThreadContext(ctx context.Context, botID id.UserID, evt *event.Event, fetch fetchFunc) (*threadContext, error) {
	rel := messageRelation(evt)
	if rel == nil {
		payload, ok := payloadOf(evt)
		if !ok {
			return nil, nil
		}
		return &threadContext{
			info:     controller.ThreadInfo{Root: evt.ID, Latest: evt.ID},
			first:    controller.FirstMessage{IsMentioningBot: mentionsUser(evt, botID), Payload: payload},
			topLevel: true,
		}, nil
	}
	if rel.Type != event.RelThread {
		return nil, nil
	}

	info := controller.ThreadInfo{Root: rel.EventID, Latest: evt.ID}
	if mentionsUser(evt, botID) {
		return &threadContext{
			info:  info,
			first: controller.FirstMessage{Payload: controller.MessagePayload{Kind: controller.PayloadSyntheticThreadMention}},
		}, nil
	}

	root, err := fetch(ctx, evt.RoomID, rel.EventID)
	if err != nil {
		return nil, err
	}
	if root.Type == event.EventEncrypted {
		return &threadContext{
			info:  info,
			first: controller.FirstMessage{Payload: controller.MessagePayload{Kind: controller.PayloadEncrypted}},
		}, nil
	}
	if root.Sender == botID {
		// A user message in a thread the bot started is a follow-up reply.
		return &threadContext{
			info:  info,
			first: controller.FirstMessage{Payload: controller.MessagePayload{Kind: controller.PayloadSyntheticReply}},
		}, nil
	}
	payload, ok := payloadOf(root)
	if !ok {
		return nil, nil
	}
	return &threadContext{
		info:  info,
		first: controller.FirstMessage{IsMentioningBot: mentionsUser(root, botID), Payload: payload},
	}, nil
}

// payloadOf normalizes an event into the router's payload shape. The second
// return value is false for redacted events and unhandled message types.
func payloadOf(evt *event.Event) (controller.MessagePayload, bool) {
	if evt.Type == event.EventEncrypted {
		return controller.MessagePayload{Kind: controller.PayloadEncrypted}, true
	}
	msg := evt.Content.AsMessage()
	if msg == nil || msg.MsgType == "" {
		return controller.MessagePayload{}, false
	}
	switch msg.MsgType {
	case event.MsgText, event.MsgEmote:
		return controller.MessagePayload{Kind: controller.PayloadText, Body: msg.Body}, true
	case event.MsgNotice:
		return controller.MessagePayload{Kind: controller.PayloadNotice, Body: msg.Body}, true
	case event.MsgAudio:
		return controller.MessagePayload{Kind: controller.PayloadAudio, Body: msg.Body, Mime: mimeOf(msg), MediaURL: msg.URL}, true
	case event.MsgImage:
		return controller.MessagePayload{Kind: controller.PayloadImage, Body: msg.Body, Mime: mimeOf(msg), MediaURL: msg.URL}, true
	}
	return controller.MessagePayload{}, false
}

// mentionsUser prefers the typed mentions list and falls back to an MXID
// substring match in the body.
func mentionsUser(evt *event.Event, userID id.UserID) bool {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return false
	}
	if msg.Mentions != nil {
		return msg.Mentions.Has(userID)
	}
	return strings.Contains(msg.Body, string(userID))
}

func messageRelation(evt *event.Event) *event.RelatesTo {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return nil
	}
	return msg.RelatesTo
}

func mimeOf(msg *event.MessageEventContent) string {
	if msg.Info == nil {
		return ""
	}
	return msg.Info.MimeType
}

// rawMessage reduces a timeline event to the assembler's normalized form.
// The second return value is false for events the conversation ignores.
func rawMessage(evt *event.Event) (convo.RawMessage, bool) {
	msg := evt.Content.AsMessage()
	if msg == nil || msg.MsgType == "" {
		return convo.RawMessage{}, false
	}
	rm := convo.RawMessage{
		Sender:    string(evt.Sender),
		Timestamp: time.UnixMilli(evt.Timestamp),
	}
	switch msg.MsgType {
	case event.MsgText, event.MsgEmote:
		rm.Kind = convo.RawText
		rm.Body = msg.Body
	case event.MsgNotice:
		rm.Kind = convo.RawNotice
		rm.Body = msg.Body
	case event.MsgImage:
		rm.Kind = convo.RawImage
		rm.Body = msg.Body
		rm.MediaURL = string(msg.URL)
		rm.Mime = mimeOf(msg)
	case event.MsgAudio:
		// Audio reaches the conversation through its transcription notice.
		rm.Kind = convo.RawAudio
	default:
		return convo.RawMessage{}, false
	}
	return rm, true
}
