package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/adapter/openai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := openai.New(&adapter.Config{})
	if err == nil {
		t.Error("expected an error for a missing API key")
	}
}

func TestPingInconclusiveWithoutTextGeneration(t *testing.T) {
	a, err := openai.New(&adapter.Config{
		APIKey:       "k",
		TextToSpeech: &adapter.TextToSpeechConfig{ModelID: "tts-1", Voice: "alloy"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if res != adapter.PingInconclusive {
		t.Errorf("Ping = %v, want inconclusive without a text-generation section", res)
	}
}

func TestPingPropagatesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	a, err := openai.New(&adapter.Config{
		BaseURL:        srv.URL,
		APIKey:         "sk-wrong",
		TextGeneration: &adapter.TextGenerationConfig{ModelID: "gpt-4o"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = a.Ping(context.Background())
	if err == nil {
		t.Fatal("expected the provider error")
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("error must carry the provider message: %v", err)
	}
	// The caller sees the provider error as-is, without an extra layer.
	if strings.Contains(err.Error(), "openai: ping") {
		t.Errorf("error must not be wrapped: %v", err)
	}
}
