package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/etkecc/baibot/internal/baibot/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "baibot.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baibot.db")

	s, err := store.New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Close()

	// A second open must not re-apply migrations.
	s, err = store.New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s.Close()
}

func TestRecordAndSummarizeUsage(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	entries := []store.UsageEntry{
		{RoomID: "!a:example.com", Sender: "@u:example.com", Purpose: "text-generation", AgentID: "static/gpt", ModelID: "gpt-4o"},
		{RoomID: "!a:example.com", Sender: "@u:example.com", Purpose: "text-generation", AgentID: "static/gpt", ModelID: "gpt-4o"},
		{RoomID: "!a:example.com", Sender: "@u:example.com", Purpose: "speech-to-text", AgentID: "static/whisper"},
		{RoomID: "!b:example.com", Sender: "@u:example.com", Purpose: "text-generation", AgentID: "static/gpt"},
	}
	for _, e := range entries {
		if err := s.RecordUsage(ctx, e); err != nil {
			t.Fatalf("RecordUsage: %v", err)
		}
	}

	summaries, err := s.RoomUsage(ctx, "!a:example.com", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("RoomUsage: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].Purpose != "text-generation" || summaries[0].Count != 2 {
		t.Errorf("top summary = %+v", summaries[0])
	}
	if summaries[1].Purpose != "speech-to-text" || summaries[1].Count != 1 {
		t.Errorf("second summary = %+v", summaries[1])
	}

	// Nothing recorded in the window.
	future, err := s.RoomUsage(ctx, "!a:example.com", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("RoomUsage: %v", err)
	}
	if len(future) != 0 {
		t.Errorf("expected no summaries, got %v", future)
	}
}
