package bot

import (
	"context"
	"errors"
	"testing"

	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/internal/baibot/controller"
)

const botUserID = id.UserID("@bot:example.com")

func textEvent(eventID id.EventID, sender id.UserID, body string, rel *event.RelatesTo) *event.Event {
	return &event.Event{
		ID:     eventID,
		Sender: sender,
		RoomID: "!room:example.com",
		Type:   event.EventMessage,
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType:   event.MsgText,
			Body:      body,
			RelatesTo: rel,
		}},
	}
}

func threadRel(root id.EventID) *event.RelatesTo {
	return &event.RelatesTo{Type: event.RelThread, EventID: root}
}

func noFetch(_ context.Context, _ id.RoomID, _ id.EventID) (*event.Event, error) {
	return nil, errors.New("unexpected fetch")
}

func fetchReturning(evt *event.Event) fetchFunc {
	return func(_ context.Context, _ id.RoomID, _ id.EventID) (*event.Event, error) {
		return evt, nil
	}
}

func TestResolveThreadContextTopLevel(t *testing.T) {
	evt := textEvent("$msg", "@user:example.com", "hello", nil)

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, noFetch)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc == nil || !tc.topLevel {
		t.Fatalf("top-level message must resolve to a top-level context: %+v", tc)
	}
	if tc.info.Root != "$msg" || tc.info.Latest != "$msg" {
		t.Errorf("info = %+v", tc.info)
	}
	if tc.first.Payload.Kind != controller.PayloadText || tc.first.Payload.Body != "hello" {
		t.Errorf("first = %+v", tc.first)
	}
}

func TestResolveThreadContextNonThreadReply(t *testing.T) {
	rel := &event.RelatesTo{InReplyTo: &event.InReplyTo{EventID: "$other"}}
	evt := textEvent("$msg", "@user:example.com", "hi", rel)

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, noFetch)
	if err != nil || tc != nil {
		t.Fatalf("non-thread replies must be ignored, got %+v, %v", tc, err)
	}
}

func TestResolveThreadContextMentionInThread(t *testing.T) {
	evt := textEvent("$msg", "@user:example.com", "what do you think?", threadRel("$root"))
	evt.Content.Parsed.(*event.MessageEventContent).Mentions = &event.Mentions{UserIDs: []id.UserID{botUserID}}

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, noFetch)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.first.Payload.Kind != controller.PayloadSyntheticThreadMention {
		t.Errorf("mention deep in a thread = %+v", tc.first)
	}
	if tc.info.Root != "$root" || tc.info.Latest != "$msg" {
		t.Errorf("info = %+v", tc.info)
	}
}

func TestResolveThreadContextBotRootedThread(t *testing.T) {
	root := textEvent("$root", botUserID, "here is my answer", nil)
	evt := textEvent("$msg", "@user:example.com", "tell me more", threadRel("$root"))

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, fetchReturning(root))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.first.Payload.Kind != controller.PayloadSyntheticReply {
		t.Errorf("follow-up in a bot thread = %+v", tc.first)
	}
}

func TestResolveThreadContextUserRootedThread(t *testing.T) {
	root := textEvent("$root", "@user:example.com", "!bai hello", nil)
	evt := textEvent("$msg", "@user:example.com", "and more", threadRel("$root"))

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, fetchReturning(root))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// The router sees the thread's first message, not the newest one.
	if tc.first.Payload.Kind != controller.PayloadText || tc.first.Payload.Body != "!bai hello" {
		t.Errorf("first = %+v", tc.first)
	}
	if tc.topLevel {
		t.Error("threaded continuation must not be top-level")
	}
}

func TestResolveThreadContextEncryptedRoot(t *testing.T) {
	root := &event.Event{ID: "$root", Type: event.EventEncrypted}
	evt := textEvent("$msg", "@user:example.com", "hello?", threadRel("$root"))

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, fetchReturning(root))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.first.Payload.Kind != controller.PayloadEncrypted {
		t.Errorf("encrypted root = %+v", tc.first)
	}
	if tc.first.IsMentioningBot {
		t.Error("encrypted roots carry no mention state")
	}
}

func TestResolveThreadContextRedactedRoot(t *testing.T) {
	root := &event.Event{ID: "$root", Type: event.EventMessage, Content: event.Content{}}
	evt := textEvent("$msg", "@user:example.com", "hello?", threadRel("$root"))

	tc, err := resolveThreadContext(context.Background(), botUserID, evt, fetchReturning(root))
	if err != nil || tc != nil {
		t.Fatalf("redacted roots must be ignored, got %+v, %v", tc, err)
	}
}

func TestMentionFallsBackToSubstring(t *testing.T) {
	evt := textEvent("$msg", "@user:example.com", "hey @bot:example.com!", nil)
	if !mentionsUser(evt, botUserID) {
		t.Error("substring fallback must detect the MXID")
	}

	evt = textEvent("$msg", "@user:example.com", "hey @bot:example.com!", nil)
	evt.Content.Parsed.(*event.MessageEventContent).Mentions = &event.Mentions{}
	if mentionsUser(evt, botUserID) {
		t.Error("an explicit empty mentions list wins over the substring fallback")
	}
}
