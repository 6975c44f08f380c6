package bot

import (
	"context"
	"sync"
	"time"

	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/internal/baibot/controller"
)

const (
	// DefaultAggregatorExpiration is how long a pending completion waits for
	// rapid-fire follow-ups before dispatch.
	DefaultAggregatorExpiration = 3 * time.Second
	// DefaultAggregatorInterval is how often the pending map is scanned.
	DefaultAggregatorInterval = time.Second
)

// pendingWork is one room's batched completion request.
type pendingWork struct {
	receivedAt time.Time
	mctx       controller.MessageContext
	variant    controller.Variant
}

// aggregator batches rapid-fire messages per room: within the expiration
// window the newest message replaces the pending one, and only a single
// dispatch happens per room per window.
type aggregator struct {
	expiration time.Duration
	interval   time.Duration
	dispatch   func(ctx context.Context, p pendingWork)

	mu      sync.Mutex
	pending map[id.RoomID]pendingWork
	now     func() time.Time
}

func newAggregator(expiration, interval time.Duration, dispatch func(ctx context.Context, p pendingWork)) *aggregator {
	if expiration <= 0 {
		expiration = DefaultAggregatorExpiration
	}
	if interval <= 0 {
		interval = DefaultAggregatorInterval
	}
	return &aggregator{
		expiration: expiration,
		interval:   interval,
		dispatch:   dispatch,
		pending:    make(map[id.RoomID]pendingWork),
		now:        time.Now,
	}
}

// Add inserts or replaces the room's pending entry. Last writer wins within
// the window.
func (a *aggregator) Add(mctx controller.MessageContext, variant controller.Variant) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[mctx.RoomID] = pendingWork{receivedAt: a.now(), mctx: mctx, variant: variant}
}

// Run drives the scanner until ctx is cancelled.
func (a *aggregator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.scan(ctx)
		}
	}
}

// scan collects expired entries under the mutex and dispatches them after
// releasing it. Adds that race with a scan belong to the next window.
func (a *aggregator) scan(ctx context.Context) {
	cutoff := a.now().Add(-a.expiration)

	a.mu.Lock()
	var expired []pendingWork
	for roomID, p := range a.pending {
		if p.receivedAt.Before(cutoff) || p.receivedAt.Equal(cutoff) {
			expired = append(expired, p)
			delete(a.pending, roomID)
		}
	}
	a.mu.Unlock()

	for _, p := range expired {
		a.dispatch(ctx, p)
	}
}
