package agent_test

import (
	"testing"

	"github.com/etkecc/baibot/internal/baibot/agent"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		wantKind agent.IdentifierKind
		wantName string
		wantErr  bool
	}{
		{input: "static/x", wantKind: agent.KindStatic, wantName: "x"},
		{input: "global/x", wantKind: agent.KindGlobal, wantName: "x"},
		{input: "room-local/x", wantKind: agent.KindRoomLocal, wantName: "x"},
		{input: "static/my-agent.v2", wantKind: agent.KindStatic, wantName: "my-agent.v2"},
		{input: "static/", wantErr: true},
		{input: "static", wantErr: true},
		{input: "", wantErr: true},
		{input: "local/x", wantErr: true},
		{input: "static/a/b", wantErr: true},
		{input: "static/a b", wantErr: true},
		{input: "Static/x", wantErr: true},
	}

	for _, tt := range tests {
		got, err := agent.ParseIdentifier(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseIdentifier(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseIdentifier(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got.Kind != tt.wantKind || got.Name != tt.wantName {
			t.Errorf("ParseIdentifier(%q) = %v, want {%s %s}", tt.input, got, tt.wantKind, tt.wantName)
		}
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	for _, s := range []string{"static/x", "global/gpt-4o", "room-local/voice.1"} {
		id, err := agent.ParseIdentifier(s)
		if err != nil {
			t.Fatalf("ParseIdentifier(%q): %v", s, err)
		}
		if id.String() != s {
			t.Errorf("round trip of %q yielded %q", s, id.String())
		}
	}
}

func TestPurposeRoundTrip(t *testing.T) {
	for _, p := range agent.KnownPurposes {
		parsed, err := agent.ParsePurpose(p.String())
		if err != nil {
			t.Fatalf("ParsePurpose(%q): %v", p, err)
		}
		if parsed != p {
			t.Errorf("ParsePurpose(%q) = %q", p, parsed)
		}
	}
	if _, err := agent.ParsePurpose("catchall"); err == nil {
		t.Error("ParsePurpose accepted an unknown purpose")
	}
}

func TestProviderRoundTrip(t *testing.T) {
	for _, p := range agent.KnownProviders {
		parsed, err := agent.ParseProvider(p.String())
		if err != nil {
			t.Fatalf("ParseProvider(%q): %v", p, err)
		}
		if parsed != p {
			t.Errorf("ParseProvider(%q) = %q", p, parsed)
		}
	}
	if _, err := agent.ParseProvider("OpenAI"); err == nil {
		t.Error("ParseProvider accepted a non-lowercase provider")
	}
}

func TestProviderFamilies(t *testing.T) {
	if agent.ProviderOpenAI.Family() != agent.FamilyStrict {
		t.Error("openai should use the strict family")
	}
	if agent.ProviderAnthropic.Family() != agent.FamilyAnthropic {
		t.Error("anthropic should use the anthropic family")
	}
	for _, p := range []agent.Provider{agent.ProviderGroq, agent.ProviderLocalAI, agent.ProviderMistral, agent.ProviderOpenAICompatible, agent.ProviderOpenRouter} {
		if p.Family() != agent.FamilyPermissive {
			t.Errorf("%s should use the permissive family", p)
		}
	}
}
