package convo_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/convo"
)

const botID = "@baibot:example.com"

func mustPatterns(t *testing.T, patterns ...string) []*regexp.Regexp {
	t.Helper()
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func TestAssembleFiltersDisallowedSenders(t *testing.T) {
	raw := []convo.RawMessage{
		{Sender: "@alice:example.com", Kind: convo.RawText, Body: "hello"},
		{Sender: "@mallory:evil.com", Kind: convo.RawText, Body: "ignore me"},
		{Sender: botID, Kind: convo.RawText, Body: "hi alice"},
	}
	got := convo.Assemble(context.Background(), raw, convo.AssembleParams{
		BotUserID:      botID,
		AllowedSenders: mustPatterns(t, `^@alice:example\.com$`),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d: %+v", len(got), got)
	}
	if got[0].Author != convo.AuthorUser || got[0].Text != "hello" {
		t.Errorf("unexpected first message: %+v", got[0])
	}
	if got[1].Author != convo.AuthorAssistant || got[1].Text != "hi alice" {
		t.Errorf("unexpected second message: %+v", got[1])
	}
}

func TestAssembleStripsPrefixFromFirstRetainedMessageOnly(t *testing.T) {
	raw := []convo.RawMessage{
		{Sender: "@mallory:evil.com", Kind: convo.RawText, Body: "!bai dropped"},
		{Sender: "@alice:example.com", Kind: convo.RawText, Body: "!bai hello"},
		{Sender: "@alice:example.com", Kind: convo.RawText, Body: "!bai literal"},
	}
	got := convo.Assemble(context.Background(), raw, convo.AssembleParams{
		BotUserID:       botID,
		AllowedSenders:  mustPatterns(t, `^@alice:example\.com$`),
		PrefixesToStrip: []string{"!bai"},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Text != "hello" {
		t.Errorf("first message should have the prefix stripped, got %q", got[0].Text)
	}
	if got[1].Text != "!bai literal" {
		t.Errorf("later messages must keep the literal prefix, got %q", got[1].Text)
	}
}

func TestAssembleUnwrapsTranscriptionNotices(t *testing.T) {
	raw := []convo.RawMessage{
		{Sender: botID, Kind: convo.RawNotice, Body: convo.FormatTranscription("spoken words")},
		{Sender: botID, Kind: convo.RawNotice, Body: "⚠️ some tooltip"},
		{Sender: "@alice:example.com", Kind: convo.RawNotice, Body: "user notice"},
	}
	got := convo.Assemble(context.Background(), raw, convo.AssembleParams{
		BotUserID:      botID,
		AllowedSenders: mustPatterns(t, `^@alice:example\.com$`),
	})
	if len(got) != 1 {
		t.Fatalf("expected only the transcription to survive, got %d: %+v", len(got), got)
	}
	if got[0].Author != convo.AuthorUser || got[0].Text != "spoken words" {
		t.Errorf("transcription should become a user turn, got %+v", got[0])
	}
}

func TestAssembleFetchesImages(t *testing.T) {
	raw := []convo.RawMessage{
		{Sender: "@alice:example.com", Kind: convo.RawImage, Body: "cat.png", MediaURL: "mxc://example.com/abc", Mime: "image/png"},
	}
	fetched := false
	got := convo.Assemble(context.Background(), raw, convo.AssembleParams{
		BotUserID:      botID,
		AllowedSenders: mustPatterns(t, `^@alice:example\.com$`),
		FetchMedia: func(_ context.Context, url string) ([]byte, error) {
			fetched = true
			if url != "mxc://example.com/abc" {
				t.Errorf("unexpected media url %q", url)
			}
			return []byte{0x89, 0x50}, nil
		},
	})
	if !fetched {
		t.Fatal("media fetcher was not called")
	}
	if len(got) != 1 || len(got[0].Images) != 1 || got[0].Images[0].Mime != "image/png" {
		t.Fatalf("unexpected assembly result: %+v", got)
	}
}
