// Package controller classifies incoming events into actions. The router
// is a pure function over the first thread message and the message
// context; it performs no I/O.
package controller

import (
	"maunium.net/go/mautrix/id"

	"github.com/etkecc/baibot/internal/baibot/config"
)

// PayloadKind tags the normalized payload of an event.
type PayloadKind string

const (
	PayloadText   PayloadKind = "text"
	PayloadNotice PayloadKind = "notice"
	PayloadAudio  PayloadKind = "audio"
	PayloadImage  PayloadKind = "image"
	// PayloadEncrypted marks an event that could not be decrypted.
	PayloadEncrypted PayloadKind = "encrypted"
	// PayloadSyntheticReply marks a reply-to-bot trigger fabricated by the
	// thread-context resolver.
	PayloadSyntheticReply PayloadKind = "synthetic_reply"
	// PayloadSyntheticThreadMention marks a bot mention deeper in a thread,
	// fabricated by the thread-context resolver.
	PayloadSyntheticThreadMention PayloadKind = "synthetic_thread_mention"
)

// MessagePayload is the normalized payload of an event.
type MessagePayload struct {
	Kind PayloadKind
	Body string
	// Mime and MediaURL are set for audio and image payloads.
	Mime     string
	MediaURL id.ContentURIString
}

// ThreadInfo locates a reply thread: its root and the event the bot should
// respond to.
type ThreadInfo struct {
	Root   id.EventID
	Latest id.EventID
}

// IsThreaded reports whether the conversation spans more than the root.
func (t ThreadInfo) IsThreaded() bool {
	return t.Root != t.Latest
}

// FirstMessage is the thread's first message as seen by the router.
type FirstMessage struct {
	IsMentioningBot bool
	Payload         MessagePayload
}

// MessageContext carries everything the router and the orchestration need
// to know about one incoming event.
type MessageContext struct {
	RoomID    id.RoomID
	Sender    id.UserID
	EventID   id.EventID
	BotUserID id.UserID
	// OriginTS is the origin-server timestamp in unix milliseconds.
	OriginTS int64

	Payload MessagePayload
	Thread  ThreadInfo
	// IsTopLevel is true when the event is not part of a reply thread.
	IsTopLevel bool

	// PrefixRequirement is the effective room policy for plain text.
	PrefixRequirement config.PrefixRequirementType

	// SenderIsAdmin and related predicates are resolved before routing so
	// the router itself stays pure.
	SenderIsAdmin                  bool
	SenderCanManageRoomLocalAgents bool
}
