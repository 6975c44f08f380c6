package compat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/adapter/compat"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := compat.New(&adapter.Config{APIKey: "k"})
	if err == nil {
		t.Error("expected an error for a missing base URL")
	}
}

func TestSupports(t *testing.T) {
	a, err := compat.New(&adapter.Config{
		BaseURL:        "http://127.0.0.1:8080/v1",
		APIKey:         "k",
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "m"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !a.Supports(agent.PurposeTextGeneration) {
		t.Error("text-generation must be supported")
	}
	if a.Supports(agent.PurposeTextToSpeech) {
		t.Error("text-to-speech must not be supported without a section")
	}
}

func TestUnsupportedOperations(t *testing.T) {
	a, err := compat.New(&adapter.Config{
		BaseURL:        "http://127.0.0.1:8080/v1",
		APIKey:         "k",
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "m"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var unsupported *adapter.UnsupportedError
	if _, err := a.EditImage(context.Background(), "p", nil, adapter.ImageGenerationParams{}); !errors.As(err, &unsupported) {
		t.Errorf("EditImage error = %v, want UnsupportedError", err)
	}
	if _, err := a.TextToSpeech(context.Background(), "hi", adapter.TextToSpeechParams{}); !errors.As(err, &unsupported) {
		t.Errorf("TextToSpeech error = %v, want UnsupportedError", err)
	}
	if _, err := a.SpeechToText(context.Background(), "audio/ogg", nil, adapter.SpeechToTextParams{}); !errors.As(err, &unsupported) {
		t.Errorf("SpeechToText error = %v, want UnsupportedError", err)
	}
}

func TestTransportErrorsRedactAPIKey(t *testing.T) {
	// Some vendors authenticate in the URL itself. A transport failure echoes
	// the full request URL, so the key must be stripped from the message.
	const key = "sk-secret-key-123"
	a, err := compat.New(&adapter.Config{
		BaseURL:        "htp://api.example.com/" + key + "/v1",
		APIKey:         key,
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "m"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	conversation := convo.Conversation{Messages: []convo.Message{{Author: convo.AuthorUser, Text: "hi"}}}
	_, err = a.GenerateText(context.Background(), conversation, adapter.TextGenerationParams{})
	if err == nil {
		t.Fatal("expected a transport error for the bogus scheme")
	}
	if strings.Contains(err.Error(), key) {
		t.Errorf("error leaks the API key: %v", err)
	}
	if !strings.Contains(err.Error(), "[REDACTED]") {
		t.Errorf("error must carry the redaction placeholder: %v", err)
	}
}

func TestTextToSpeechDelegate(t *testing.T) {
	a, err := compat.New(&adapter.Config{
		BaseURL:      "http://127.0.0.1:8080/v1",
		APIKey:       "k",
		TextToSpeech: &adapter.TextToSpeechConfig{ModelID: "tts-1", Voice: "alloy"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !a.Supports(agent.PurposeTextToSpeech) {
		t.Error("text-to-speech must be supported with a section")
	}
	if voice, ok := a.TextToSpeechVoice(); !ok || voice != "alloy" {
		t.Errorf("TextToSpeechVoice = %q, %v", voice, ok)
	}
}
