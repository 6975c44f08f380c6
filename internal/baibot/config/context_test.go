package config_test

import (
	"testing"

	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
)

func boolPtr(v bool) *bool      { return &v }
func strPtr(v string) *string   { return &v }
func f64Ptr(v float64) *float64 { return &v }

func autoUsagePtr(v config.AutoUsage) *config.AutoUsage { return &v }

func TestContextLayering(t *testing.T) {
	ctx := config.RoomConfigContext{
		Room: &config.RoomConfig{
			Settings: config.Settings{
				TextGeneration: config.TextGenerationSettings{
					ContextManagementEnabled: boolPtr(false),
				},
			},
		},
		Global: &config.GlobalConfig{
			FallbackRoomSettings: config.Settings{
				TextGeneration: config.TextGenerationSettings{
					ContextManagementEnabled: boolPtr(true),
					AutoUsage:                autoUsagePtr(config.AutoUsageOnlyForVoice),
				},
			},
		},
	}

	if v, src := ctx.ContextManagementEnabled(); v != false || src != config.SourceRoom {
		t.Errorf("ContextManagementEnabled = %v, %s; want false from room", v, src)
	}
	if v, src := ctx.AutoUsage(); v != config.AutoUsageOnlyForVoice || src != config.SourceGlobal {
		t.Errorf("AutoUsage = %s, %s; want only_for_voice from global", v, src)
	}
	if v, src := ctx.PrefixRequirementType(); v != config.PrefixRequirementNo || src != config.SourceDefault {
		t.Errorf("PrefixRequirementType = %s, %s; want default no", v, src)
	}
	if v, src := ctx.TextToSpeechBotMessagesFlowType(); v != config.TextToSpeechFlowOnDemand || src != config.SourceDefault {
		t.Errorf("bot TTS flow = %s, %s; want default on_demand", v, src)
	}
}

func TestContextOptionalOverrides(t *testing.T) {
	empty := config.RoomConfigContext{}
	if v, src := empty.PromptOverride(); v != nil || src != config.SourceDefault {
		t.Errorf("PromptOverride on empty context = %v, %s", v, src)
	}

	ctx := config.RoomConfigContext{
		Global: &config.GlobalConfig{
			FallbackRoomSettings: config.Settings{
				TextGeneration: config.TextGenerationSettings{
					TemperatureOverride: f64Ptr(0.2),
				},
			},
		},
	}
	if v, src := ctx.TemperatureOverride(); v == nil || *v != 0.2 || src != config.SourceGlobal {
		t.Errorf("TemperatureOverride = %v, %s", v, src)
	}
}

func TestHandlerMapRoundTrip(t *testing.T) {
	var m config.HandlerMap
	for _, p := range agent.KnownPurposes {
		if m.ForPurpose(p) != nil {
			t.Errorf("%s: fresh map must have no handler", p)
		}
		id := "static/" + string(p)
		m.SetForPurpose(p, strPtr(id))
		if got := m.ForPurpose(p); got == nil || *got != id {
			t.Errorf("%s: ForPurpose = %v, want %q", p, got, id)
		}
		m.SetForPurpose(p, nil)
		if m.ForPurpose(p) != nil {
			t.Errorf("%s: handler must be unset again", p)
		}
	}
}

func TestParseEnums(t *testing.T) {
	if v, err := config.ParseAutoUsage("only_for_text"); err != nil || v != config.AutoUsageOnlyForText {
		t.Errorf("ParseAutoUsage = %s, %v", v, err)
	}
	if _, err := config.ParseAutoUsage("sometimes"); err == nil {
		t.Error("ParseAutoUsage must reject unknown values")
	}
	if v, err := config.ParseSpeechToTextFlowType("only_transcribe"); err != nil || v != config.SpeechToTextFlowOnlyTranscribe {
		t.Errorf("ParseSpeechToTextFlowType = %s, %v", v, err)
	}
	if _, err := config.ParseTextToSpeechFlowType("ondemand"); err == nil {
		t.Error("ParseTextToSpeechFlowType must reject unknown values")
	}
	if _, err := config.ParsePrefixRequirementType("command_prefix"); err != nil {
		t.Errorf("ParsePrefixRequirementType: %v", err)
	}
}
