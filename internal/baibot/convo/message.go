// Package convo materializes provider-agnostic conversations from room
// thread history: normalization, access filtering, transcription unwrapping,
// consecutive-turn combining, and token-budget context shortening.
package convo

import "time"

// RawKind classifies a normalized room message.
type RawKind int

const (
	RawText RawKind = iota
	RawNotice
	RawImage
	RawAudio
	RawReaction
	RawEncrypted
)

// RawMessage is a room timeline message reduced to the fields the assembler
// cares about. Media bodies are fetched lazily through a MediaFetchFunc.
type RawMessage struct {
	Sender    string
	Kind      RawKind
	Body      string
	MediaURL  string
	Mime      string
	Timestamp time.Time
	Mentions  []string
}

// Author is the role a message plays in an LLM conversation.
type Author string

const (
	AuthorPrompt    Author = "prompt"
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// ImageAttachment is an inline image payload for vision-capable adapters.
// Adapters without vision input drop attachments with a warning.
type ImageAttachment struct {
	Mime string
	Data []byte
}

// Message is a single provider-neutral conversation entry.
type Message struct {
	Author    Author
	Text      string
	Images    []ImageAttachment
	Timestamp time.Time
}

// IsTextOnly reports whether the message carries no attachments.
func (m Message) IsTextOnly() bool {
	return len(m.Images) == 0
}

// Conversation is what adapters receive: an optional system prompt plus the
// chronologically ordered messages.
type Conversation struct {
	Prompt   string
	Messages []Message
}

// StartTime returns the timestamp of the oldest message, used for the
// conversation-start prompt variable. Zero when the conversation is empty.
func (c Conversation) StartTime() time.Time {
	if len(c.Messages) == 0 {
		return time.Time{}
	}
	return c.Messages[0].Timestamp
}
