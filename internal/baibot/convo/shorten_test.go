package convo_test

import (
	"strings"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/convo"
)

func TestShortenKeepsEverythingWithinBudget(t *testing.T) {
	msgs := []convo.Message{
		textMsg(convo.AuthorUser, "hello"),
		textMsg(convo.AuthorAssistant, "hi"),
		textMsg(convo.AuthorUser, "how are you"),
	}
	got, err := convo.Shorten("gpt-4o", "be nice", msgs, 100, 10_000)
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if len(got) != len(msgs) {
		t.Errorf("expected all %d messages kept, got %d", len(msgs), len(got))
	}
}

func TestShortenReturnsSuffix(t *testing.T) {
	long := strings.Repeat("many words fill the context window ", 40)
	msgs := []convo.Message{
		textMsg(convo.AuthorUser, long),
		textMsg(convo.AuthorAssistant, long),
		textMsg(convo.AuthorUser, "short question"),
		textMsg(convo.AuthorAssistant, "short answer"),
	}
	got, err := convo.Shorten("gpt-4o", "", msgs, 0, 120)
	if err != nil {
		t.Fatalf("Shorten: %v", err)
	}
	if len(got) == 0 || len(got) >= len(msgs) {
		t.Fatalf("expected a strict non-empty suffix, got %d of %d", len(got), len(msgs))
	}
	// The output must be the trailing slice of the input in original order.
	for i, m := range got {
		want := msgs[len(msgs)-len(got)+i]
		if m.Text != want.Text {
			t.Errorf("output[%d] = %q, want %q", i, m.Text, want.Text)
		}
	}
}

func TestShortenUnknownModelFallsBack(t *testing.T) {
	msgs := []convo.Message{textMsg(convo.AuthorUser, "hello")}
	got, err := convo.Shorten("mattshumer/reflection-70b:free", "", msgs, 0, 1000)
	if err != nil {
		t.Fatalf("Shorten with unknown model: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 message, got %d", len(got))
	}
}

func TestShortenPromptTooLarge(t *testing.T) {
	msgs := []convo.Message{textMsg(convo.AuthorUser, "hello")}
	if _, err := convo.Shorten("gpt-4o", strings.Repeat("prompt ", 100), msgs, 0, 10); err == nil {
		t.Error("expected an error when the prompt alone exceeds the window")
	}
}
