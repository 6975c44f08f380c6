package anthropic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/adapter/anthropic"
	"github.com/etkecc/baibot/internal/baibot/agent"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := anthropic.New(&adapter.Config{BaseURL: "https://api.anthropic.com"})
	if err == nil {
		t.Error("expected an error for a missing API key")
	}
}

func TestSupportsOnlyTextGeneration(t *testing.T) {
	a, err := anthropic.New(&adapter.Config{
		APIKey:         "k",
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "claude-sonnet-4-5"},
		SpeechToText:   &adapter.SpeechToTextConfig{ModelID: "whisper-1"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !a.Supports(agent.PurposeTextGeneration) {
		t.Error("text-generation must be supported")
	}
	// A speech_to_text section in the config must not make the purpose
	// supported; there is no such endpoint in this family.
	if a.Supports(agent.PurposeSpeechToText) {
		t.Error("speech-to-text must not be supported")
	}
	if a.Supports(agent.PurposeImageGeneration) {
		t.Error("image-generation must not be supported")
	}
}

func TestUnsupportedOperations(t *testing.T) {
	a, err := anthropic.New(&adapter.Config{
		APIKey:         "k",
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "claude-sonnet-4-5"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var unsupported *adapter.UnsupportedError
	if _, err := a.SpeechToText(context.Background(), "audio/ogg", nil, adapter.SpeechToTextParams{}); !errors.As(err, &unsupported) {
		t.Errorf("SpeechToText error = %v, want UnsupportedError", err)
	}
	if _, err := a.TextToSpeech(context.Background(), "hi", adapter.TextToSpeechParams{}); !errors.As(err, &unsupported) {
		t.Errorf("TextToSpeech error = %v, want UnsupportedError", err)
	}
	if _, err := a.GenerateImage(context.Background(), "p", adapter.ImageGenerationParams{}); !errors.As(err, &unsupported) {
		t.Errorf("GenerateImage error = %v, want UnsupportedError", err)
	}
}
