package config

import "github.com/etkecc/baibot/internal/baibot/agent"

// Source reports which layer supplied an effective value.
type Source string

const (
	SourceRoom    Source = "room"
	SourceGlobal  Source = "global"
	SourceDefault Source = "default"
)

// Hard-coded defaults, the bottom layer of the stack.
const (
	DefaultContextManagementEnabled         = true
	DefaultPrefixRequirementType            = PrefixRequirementNo
	DefaultAutoUsage                        = AutoUsageAlways
	DefaultSpeechToTextFlowType             = SpeechToTextFlowTranscribeAndGenerateText
	DefaultTranscriptMessageType            = TranscriptMessageTypeNotice
	DefaultTextToSpeechBotMessagesFlowType  = TextToSpeechFlowOnDemand
	DefaultTextToSpeechUserMessagesFlowType = TextToSpeechFlowNever
)

// RoomConfigContext evaluates the room overlay and the global overlay
// together. Accessors return the effective value per field along with the
// layer that supplied it, which the status command surfaces.
type RoomConfigContext struct {
	Room   *RoomConfig
	Global *GlobalConfig
}

func layered[T any](room, global *T, def T) (T, Source) {
	if room != nil {
		return *room, SourceRoom
	}
	if global != nil {
		return *global, SourceGlobal
	}
	return def, SourceDefault
}

// layeredOpt resolves a field whose default is "unset".
func layeredOpt[T any](room, global *T) (*T, Source) {
	if room != nil {
		return room, SourceRoom
	}
	if global != nil {
		return global, SourceGlobal
	}
	return nil, SourceDefault
}

func (c RoomConfigContext) roomSettings() *Settings {
	if c.Room == nil {
		return &Settings{}
	}
	return &c.Room.Settings
}

func (c RoomConfigContext) globalSettings() *Settings {
	if c.Global == nil {
		return &Settings{}
	}
	return &c.Global.FallbackRoomSettings
}

func (c RoomConfigContext) ContextManagementEnabled() (bool, Source) {
	return layered(
		c.roomSettings().TextGeneration.ContextManagementEnabled,
		c.globalSettings().TextGeneration.ContextManagementEnabled,
		DefaultContextManagementEnabled,
	)
}

func (c RoomConfigContext) PrefixRequirementType() (PrefixRequirementType, Source) {
	return layered(
		c.roomSettings().TextGeneration.PrefixRequirementType,
		c.globalSettings().TextGeneration.PrefixRequirementType,
		DefaultPrefixRequirementType,
	)
}

func (c RoomConfigContext) AutoUsage() (AutoUsage, Source) {
	return layered(
		c.roomSettings().TextGeneration.AutoUsage,
		c.globalSettings().TextGeneration.AutoUsage,
		DefaultAutoUsage,
	)
}

func (c RoomConfigContext) PromptOverride() (*string, Source) {
	return layeredOpt(
		c.roomSettings().TextGeneration.PromptOverride,
		c.globalSettings().TextGeneration.PromptOverride,
	)
}

func (c RoomConfigContext) TemperatureOverride() (*float64, Source) {
	return layeredOpt(
		c.roomSettings().TextGeneration.TemperatureOverride,
		c.globalSettings().TextGeneration.TemperatureOverride,
	)
}

func (c RoomConfigContext) SpeechToTextFlowType() (SpeechToTextFlowType, Source) {
	return layered(
		c.roomSettings().SpeechToText.FlowType,
		c.globalSettings().SpeechToText.FlowType,
		DefaultSpeechToTextFlowType,
	)
}

func (c RoomConfigContext) SpeechToTextLanguage() (*string, Source) {
	return layeredOpt(
		c.roomSettings().SpeechToText.Language,
		c.globalSettings().SpeechToText.Language,
	)
}

func (c RoomConfigContext) TranscriptMessageType() (TranscriptMessageType, Source) {
	return layered(
		c.roomSettings().SpeechToText.MessageTypeForNonThreadedTranscripts,
		c.globalSettings().SpeechToText.MessageTypeForNonThreadedTranscripts,
		DefaultTranscriptMessageType,
	)
}

func (c RoomConfigContext) TextToSpeechBotMessagesFlowType() (TextToSpeechFlowType, Source) {
	return layered(
		c.roomSettings().TextToSpeech.BotMessagesFlowType,
		c.globalSettings().TextToSpeech.BotMessagesFlowType,
		DefaultTextToSpeechBotMessagesFlowType,
	)
}

func (c RoomConfigContext) TextToSpeechUserMessagesFlowType() (TextToSpeechFlowType, Source) {
	return layered(
		c.roomSettings().TextToSpeech.UserMessagesFlowType,
		c.globalSettings().TextToSpeech.UserMessagesFlowType,
		DefaultTextToSpeechUserMessagesFlowType,
	)
}

func (c RoomConfigContext) TextToSpeechSpeedOverride() (*float64, Source) {
	return layeredOpt(
		c.roomSettings().TextToSpeech.SpeedOverride,
		c.globalSettings().TextToSpeech.SpeedOverride,
	)
}

func (c RoomConfigContext) TextToSpeechVoiceOverride() (*string, Source) {
	return layeredOpt(
		c.roomSettings().TextToSpeech.VoiceOverride,
		c.globalSettings().TextToSpeech.VoiceOverride,
	)
}

// RoomHandler returns the room-layer handler entry for a purpose, nil when
// unset.
func (c RoomConfigContext) RoomHandler(p agent.Purpose) *string {
	return c.roomSettings().Handler.ForPurpose(p)
}

// GlobalHandler returns the global-layer handler entry for a purpose, nil
// when unset.
func (c RoomConfigContext) GlobalHandler(p agent.Purpose) *string {
	return c.globalSettings().Handler.ForPurpose(p)
}
