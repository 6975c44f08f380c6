package convo

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// MediaFetchFunc downloads the media body behind an mxc:// URL.
type MediaFetchFunc func(ctx context.Context, mediaURL string) ([]byte, error)

// AssembleParams controls the thread-to-conversation translation.
type AssembleParams struct {
	// BotUserID is the bot's own MXID; its messages become Assistant turns.
	BotUserID string

	// AllowedSenders is the union of the admin and allowed-user patterns.
	// Messages from senders matching neither are dropped.
	AllowedSenders []*regexp.Regexp

	// PrefixesToStrip are command-prefix literals removed once from the
	// start of the first retained message.
	PrefixesToStrip []string

	// FetchMedia resolves image bodies. When nil, images are dropped.
	FetchMedia MediaFetchFunc
}

// Assemble filters and converts a thread's normalized messages into
// provider-neutral conversation entries, in the original order.
func Assemble(ctx context.Context, raw []RawMessage, params AssembleParams) []Message {
	out := make([]Message, 0, len(raw))
	first := true

	for _, rm := range raw {
		fromBot := rm.Sender == params.BotUserID
		if !fromBot && !senderAllowed(rm.Sender, params.AllowedSenders) {
			continue
		}

		switch rm.Kind {
		case RawText:
			body := rm.Body
			if first {
				body = stripPrefixOnce(body, params.PrefixesToStrip)
			}
			author := AuthorUser
			if fromBot {
				author = AuthorAssistant
			}
			out = append(out, Message{Author: author, Text: body, Timestamp: rm.Timestamp})
			first = false

		case RawNotice:
			if !fromBot {
				continue
			}
			// Only the bot's own transcription notices carry user speech;
			// all other notices are tooltips or error reports.
			text, ok := ParseTranscription(rm.Body)
			if !ok {
				continue
			}
			out = append(out, Message{Author: AuthorUser, Text: text, Timestamp: rm.Timestamp})
			first = false

		case RawImage:
			if fromBot || params.FetchMedia == nil {
				continue
			}
			data, err := params.FetchMedia(ctx, rm.MediaURL)
			if err != nil {
				slog.Warn("conversation: image fetch failed, dropping attachment", "url", rm.MediaURL, "err", err)
				continue
			}
			out = append(out, Message{
				Author:    AuthorUser,
				Text:      rm.Body,
				Images:    []ImageAttachment{{Mime: rm.Mime, Data: data}},
				Timestamp: rm.Timestamp,
			})
			first = false

		default:
			// Audio is represented by its transcription notice; reactions
			// and undecryptable messages carry no conversational content.
		}
	}
	return out
}

func senderAllowed(sender string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

func stripPrefixOnce(body string, prefixes []string) string {
	for _, prefix := range prefixes {
		if rest, ok := strings.CutPrefix(body, prefix); ok {
			return strings.TrimLeft(rest, " ")
		}
	}
	return body
}
