package bot

import (
	"context"
	"testing"
	"time"

	"github.com/etkecc/baibot/internal/baibot/controller"
)

func TestAggregatorLastWriterWins(t *testing.T) {
	var dispatched []pendingWork
	a := newAggregator(3*time.Second, time.Second, func(_ context.Context, p pendingWork) {
		dispatched = append(dispatched, p)
	})

	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	a.Add(controller.MessageContext{RoomID: "!a:x", EventID: "$1"}, controller.Variant{Kind: controller.KindChatCompletion})
	now = now.Add(time.Second)
	a.Add(controller.MessageContext{RoomID: "!a:x", EventID: "$2"}, controller.Variant{Kind: controller.KindChatCompletion})
	a.Add(controller.MessageContext{RoomID: "!b:x", EventID: "$3"}, controller.Variant{Kind: controller.KindChatCompletion})

	// Nothing has expired yet.
	now = now.Add(time.Second)
	a.scan(context.Background())
	if len(dispatched) != 0 {
		t.Fatalf("dispatched before expiration: %v", dispatched)
	}

	// The replaced entry's timer restarted, so only the older room fires
	// first once enough time passes for both.
	now = now.Add(5 * time.Second)
	a.scan(context.Background())
	if len(dispatched) != 2 {
		t.Fatalf("got %d dispatches, want 2", len(dispatched))
	}
	for _, p := range dispatched {
		if p.mctx.RoomID == "!a:x" && p.mctx.EventID != "$2" {
			t.Errorf("room !a:x dispatched %s, want the replacing event $2", p.mctx.EventID)
		}
	}

	// A second scan must not re-dispatch.
	a.scan(context.Background())
	if len(dispatched) != 2 {
		t.Errorf("re-dispatched already handled entries: %d", len(dispatched))
	}
}

func TestAggregatorAddDuringWindowIsNextWindows(t *testing.T) {
	var dispatched []pendingWork
	a := newAggregator(time.Second, time.Second, func(_ context.Context, p pendingWork) {
		dispatched = append(dispatched, p)
	})

	now := time.Unix(2000, 0)
	a.now = func() time.Time { return now }

	a.Add(controller.MessageContext{RoomID: "!a:x", EventID: "$1"}, controller.Variant{})
	now = now.Add(2 * time.Second)
	a.scan(context.Background())
	if len(dispatched) != 1 || dispatched[0].mctx.EventID != "$1" {
		t.Fatalf("first window = %v", dispatched)
	}

	// An add after collection belongs to the next window.
	a.Add(controller.MessageContext{RoomID: "!a:x", EventID: "$2"}, controller.Variant{})
	a.scan(context.Background())
	if len(dispatched) != 1 {
		t.Fatalf("fresh entry dispatched early")
	}
	now = now.Add(2 * time.Second)
	a.scan(context.Background())
	if len(dispatched) != 2 || dispatched[1].mctx.EventID != "$2" {
		t.Fatalf("second window = %v", dispatched)
	}
}
