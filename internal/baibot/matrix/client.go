// Package matrix wraps the mautrix client with the transport surface the
// bot needs: sync with reconnection, markdown sends, threads, reactions,
// media, and account-data persistence.
package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/format"
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/common/cache"
	"github.com/etkecc/baibot/common/retry"
)

const (
	eventCacheSize       = 512
	displayNameCacheSize = 128
	threadPageLimit      = 100
)

// Config holds the Matrix connection settings.
type Config struct {
	Homeserver string
	UserID     string
	Password   string
	// AccessToken skips password login when set.
	AccessToken string
	DeviceID    string
	// RecoveryPassphrase unlocks the account's encryption recovery.
	RecoveryPassphrase string
	// RecoveryResetAllowed permits resetting the recovery data when the
	// passphrase cannot unlock it.
	RecoveryResetAllowed bool
	// DB persists the sync token across restarts. When nil, history is
	// replayed on every restart.
	DB *sql.DB
}

// Handlers receives the event subscriptions the bot cares about.
type Handlers struct {
	OnMessage  func(ctx context.Context, evt *event.Event)
	OnReaction func(ctx context.Context, evt *event.Event)
	OnInvite   func(ctx context.Context, evt *event.Event)
	OnJoin     func(ctx context.Context, evt *event.Event)
}

// Client wraps the mautrix client.
type Client struct {
	client   *mautrix.Client
	config   *Config
	stopCh   chan struct{}
	handlers Handlers

	events       *cache.Loader[*event.Event]
	displayNames *cache.Loader[string]
}

// New creates the client and attaches the persistent sync store.
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("matrix: create client: %w", err)
	}

	c := &Client{
		client:       client,
		config:       config,
		stopCh:       make(chan struct{}),
		events:       cache.NewLoader[*event.Event](eventCacheSize),
		displayNames: cache.NewLoader[string](displayNameCacheSize),
	}

	if config.DB != nil {
		client.Store = newDBSyncStore(config.DB)
	} else {
		slog.Warn("no database configured for the sync store, history will replay on restart")
	}
	return c, nil
}

// UserID returns the bot's own user id.
func (c *Client) UserID() id.UserID {
	return id.UserID(c.config.UserID)
}

// Login performs a password login unless an access token is already set.
func (c *Client) Login(ctx context.Context) error {
	if c.config.RecoveryPassphrase != "" {
		// The client runs without an encryption machine, so the recovery
		// passphrase cannot be used yet. Encrypted rooms receive the
		// unencrypted fallback reply.
		slog.Warn("encryption recovery configured but end-to-end encryption is not active",
			"reset_allowed", c.config.RecoveryResetAllowed)
	}
	if c.config.AccessToken != "" {
		return nil
	}
	resp, err := c.client.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: c.config.UserID,
		},
		Password:         c.config.Password,
		DeviceID:         id.DeviceID(c.config.DeviceID),
		StoreCredentials: true,
	})
	if err != nil {
		return fmt.Errorf("matrix: login: %w", err)
	}
	slog.Info("logged in", "user_id", resp.UserID, "device_id", resp.DeviceID)
	return nil
}

const (
	syncBackoffMin = 2 * time.Second
	syncBackoffMax = 5 * time.Minute
	// syncStableWindow is how long a sync connection must hold before a
	// later failure starts the back-off ladder over.
	syncStableWindow = time.Minute
)

// reconnectDelay returns the wait before the next sync attempt. The ladder
// doubles up to the cap across consecutive quick failures and restarts once
// a connection held for the stable window.
func reconnectDelay(previous, connectedFor time.Duration) time.Duration {
	if previous <= 0 || connectedFor >= syncStableWindow {
		return syncBackoffMin
	}
	next := previous * 2
	if next > syncBackoffMax {
		next = syncBackoffMax
	}
	return next
}

// Start registers the handlers and begins syncing in the background with
// exponential back-off reconnection.
func (c *Client) Start(handlers Handlers) {
	c.handlers = handlers

	syncer := c.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, c.dispatchMessage)
	syncer.OnEventType(event.EventReaction, c.dispatchReaction)
	syncer.OnEventType(event.StateMember, c.dispatchMembership)

	go func() {
		var backoff time.Duration
		for {
			started := time.Now()
			if err := c.client.Sync(); err != nil {
				select {
				case <-c.stopCh:
					return
				default:
				}
				backoff = reconnectDelay(backoff, time.Since(started))
				slog.Error("sync stopped, reconnecting", "error", err, "backoff", backoff)
				select {
				case <-c.stopCh:
					return
				case <-time.After(backoff):
				}
				continue
			}
			return
		}
	}()
}

// Stop terminates the sync loop.
func (c *Client) Stop() {
	close(c.stopCh)
	c.client.StopSync()
}

func (c *Client) dispatchMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == c.UserID() {
		return
	}
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(ctx, evt)
	}
}

func (c *Client) dispatchReaction(ctx context.Context, evt *event.Event) {
	if evt.Sender == c.UserID() {
		return
	}
	if c.handlers.OnReaction != nil {
		c.handlers.OnReaction(ctx, evt)
	}
}

func (c *Client) dispatchMembership(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != c.config.UserID {
		return
	}
	member := evt.Content.AsMember()
	if member == nil {
		return
	}
	switch member.Membership {
	case event.MembershipInvite:
		if c.handlers.OnInvite != nil {
			c.handlers.OnInvite(ctx, evt)
		}
	case event.MembershipJoin:
		if evt.Sender == c.UserID() && c.handlers.OnJoin != nil {
			c.handlers.OnJoin(ctx, evt)
		}
	}
}

// JoinRoom joins the given room; already being a member is not an error.
func (c *Client) JoinRoom(ctx context.Context, roomID id.RoomID) error {
	if _, err := c.client.JoinRoomByID(ctx, roomID); err != nil {
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("join rejected, possibly already a member", "room", roomID)
			return nil
		}
		return fmt.Errorf("matrix: join %s: %w", roomID, err)
	}
	return nil
}

// LeaveRoom leaves (or rejects the invitation to) the given room.
func (c *Client) LeaveRoom(ctx context.Context, roomID id.RoomID) error {
	if _, err := c.client.LeaveRoom(ctx, roomID); err != nil {
		return fmt.Errorf("matrix: leave %s: %w", roomID, err)
	}
	return nil
}

// SendOptions shapes an outgoing message: notice vs text and its relation
// to the surrounding conversation.
type SendOptions struct {
	Notice bool
	// ThreadRoot threads the message under the given root.
	ThreadRoot id.EventID
	// LastInThread is the thread's latest event, used for the reply
	// fallback on threaded sends.
	LastInThread id.EventID
	// ReplyTo makes the message a plain (top-level) reply.
	ReplyTo id.EventID
	// Mentions is the typed mention list to attach.
	Mentions []id.UserID
}

func (o SendOptions) relation() *event.RelatesTo {
	if o.ThreadRoot != "" {
		rel := &event.RelatesTo{Type: event.RelThread, EventID: o.ThreadRoot, IsFallingBack: true}
		last := o.LastInThread
		if last == "" {
			last = o.ThreadRoot
		}
		rel.InReplyTo = &event.InReplyTo{EventID: last}
		return rel
	}
	if o.ReplyTo != "" {
		return &event.RelatesTo{InReplyTo: &event.InReplyTo{EventID: o.ReplyTo}}
	}
	return nil
}

// SendMarkdown renders the markdown body and sends it as a text or notice
// message per the options.
func (c *Client) SendMarkdown(ctx context.Context, roomID id.RoomID, markdown string, opts SendOptions) (id.EventID, error) {
	content := format.RenderMarkdown(markdown, true, false)
	if opts.Notice {
		content.MsgType = event.MsgNotice
	}
	content.RelatesTo = opts.relation()
	if len(opts.Mentions) > 0 {
		content.Mentions = &event.Mentions{UserIDs: opts.Mentions}
	}

	resp, err := c.client.SendMessageEvent(ctx, roomID, event.EventMessage, &content)
	if err != nil {
		return "", fmt.Errorf("matrix: send message: %w", err)
	}
	return resp.EventID, nil
}

// React posts a reaction to the given event and returns the reaction's
// event id so it can be redacted later.
func (c *Client) React(ctx context.Context, roomID id.RoomID, eventID id.EventID, key string) (id.EventID, error) {
	resp, err := c.client.SendReaction(ctx, roomID, eventID, key)
	if err != nil {
		return "", fmt.Errorf("matrix: react: %w", err)
	}
	return resp.EventID, nil
}

// Redact removes an event, with an optional reason.
func (c *Client) Redact(ctx context.Context, roomID id.RoomID, eventID id.EventID, reason string) error {
	if _, err := c.client.RedactEvent(ctx, roomID, eventID, mautrix.ReqRedact{Reason: reason}); err != nil {
		return fmt.Errorf("matrix: redact: %w", err)
	}
	return nil
}

// Typing toggles the bot's typing notification in a room.
func (c *Client) Typing(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) {
	if _, err := c.client.UserTyping(ctx, roomID, typing, timeout); err != nil {
		slog.Warn("setting the typing notice failed", "room", roomID, "error", err)
	}
}

// UploadMedia uploads raw bytes and returns the content URI.
func (c *Client) UploadMedia(ctx context.Context, data []byte, mime string) (id.ContentURIString, error) {
	resp, err := c.client.UploadBytes(ctx, data, mime)
	if err != nil {
		return "", fmt.Errorf("matrix: upload media: %w", err)
	}
	return resp.ContentURI.CUString(), nil
}

// DownloadMedia fetches the media behind an mxc URI.
func (c *Client) DownloadMedia(ctx context.Context, uri id.ContentURIString) ([]byte, error) {
	parsed, err := uri.Parse()
	if err != nil {
		return nil, fmt.Errorf("matrix: parse media uri: %w", err)
	}
	data, err := c.client.DownloadBytes(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("matrix: download media: %w", err)
	}
	return data, nil
}

// SendAudio uploads and sends an audio message.
func (c *Client) SendAudio(ctx context.Context, roomID id.RoomID, data []byte, mime, body string, opts SendOptions) (id.EventID, error) {
	uri, err := c.UploadMedia(ctx, data, mime)
	if err != nil {
		return "", err
	}
	content := event.MessageEventContent{
		MsgType:   event.MsgAudio,
		Body:      body,
		URL:       uri,
		Info:      &event.FileInfo{MimeType: mime, Size: len(data)},
		RelatesTo: opts.relation(),
	}
	resp, err := c.client.SendMessageEvent(ctx, roomID, event.EventMessage, &content)
	if err != nil {
		return "", fmt.Errorf("matrix: send audio: %w", err)
	}
	return resp.EventID, nil
}

// SendImage uploads and sends an image message. Sticker selects the
// sticker event type instead of a regular image message.
func (c *Client) SendImage(ctx context.Context, roomID id.RoomID, data []byte, mime, body string, sticker bool, opts SendOptions) (id.EventID, error) {
	uri, err := c.UploadMedia(ctx, data, mime)
	if err != nil {
		return "", err
	}
	content := event.MessageEventContent{
		MsgType:   event.MsgImage,
		Body:      body,
		URL:       uri,
		Info:      &event.FileInfo{MimeType: mime, Size: len(data)},
		RelatesTo: opts.relation(),
	}
	eventType := event.EventMessage
	if sticker {
		eventType = event.EventSticker
	}
	resp, err := c.client.SendMessageEvent(ctx, roomID, eventType, &content)
	if err != nil {
		return "", fmt.Errorf("matrix: send image: %w", err)
	}
	return resp.EventID, nil
}

// FetchEvent retrieves a single event, de-duplicating concurrent fetches
// for the same event through a bounded cache.
func (c *Client) FetchEvent(ctx context.Context, roomID id.RoomID, eventID id.EventID) (*event.Event, error) {
	key := string(roomID) + "/" + string(eventID)
	return c.events.GetOrCompute(key, func() (*event.Event, error) {
		evt, err := c.client.GetEvent(ctx, roomID, eventID)
		if err != nil {
			return nil, fmt.Errorf("matrix: fetch event %s: %w", eventID, err)
		}
		if evt.Type.Class == event.MessageEventType {
			// GetEvent returns raw content; parse it so AsMessage works.
			_ = evt.Content.ParseRaw(evt.Type)
		}
		return evt, nil
	})
}

// ThreadMessages pages through the room timeline and returns the thread
// root followed by all messages related to it, in chronological order.
func (c *Client) ThreadMessages(ctx context.Context, roomID id.RoomID, root id.EventID) ([]*event.Event, error) {
	rootEvt, err := c.FetchEvent(ctx, roomID, root)
	if err != nil {
		return nil, err
	}
	out := []*event.Event{rootEvt}

	from := ""
	for {
		resp, err := c.client.Messages(ctx, roomID, from, "", mautrix.DirectionForward, nil, threadPageLimit)
		if err != nil {
			return nil, fmt.Errorf("matrix: page thread %s: %w", root, err)
		}
		for _, evt := range resp.Chunk {
			if evt.Type.Class == event.MessageEventType {
				_ = evt.Content.ParseRaw(evt.Type)
			}
			rel := relationOf(evt)
			if rel != nil && rel.Type == event.RelThread && rel.EventID == root {
				out = append(out, evt)
			}
		}
		if resp.End == "" || len(resp.Chunk) == 0 {
			break
		}
		from = resp.End
	}
	return out, nil
}

func relationOf(evt *event.Event) *event.RelatesTo {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return nil
	}
	return msg.RelatesTo
}

// DisplayName resolves a user's display name through a bounded cache.
func (c *Client) DisplayName(ctx context.Context, userID id.UserID) (string, error) {
	return c.displayNames.GetOrCompute(string(userID), func() (string, error) {
		profile, err := c.client.GetProfile(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("matrix: get profile: %w", err)
		}
		return profile.DisplayName, nil
	})
}

// PrepareProfile makes sure the bot's display name matches the configured
// one, retrying indefinitely with back-off. Transient homeserver failures
// at startup must not kill the bot.
func (c *Client) PrepareProfile(ctx context.Context, displayName string) error {
	if displayName == "" {
		return nil
	}
	return retry.DoIndefinitely(ctx, 3*time.Second, 30*time.Second, func() error {
		profile, err := c.client.GetProfile(ctx, c.UserID())
		if err != nil {
			return err
		}
		if profile.DisplayName == displayName {
			return nil
		}
		if err := c.client.SetDisplayName(ctx, displayName); err != nil {
			return err
		}
		// The own name may already be cached from an earlier lookup.
		c.displayNames.Invalidate(string(c.UserID()))
		return nil
	})
}
