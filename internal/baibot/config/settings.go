// Package config models the layered room configuration: a per-room
// settings overlay on top of a global overlay on top of hard-coded
// defaults. Every field is optional at the room and global layers so that
// "unset" stays distinguishable from "explicitly set to the default".
package config

import (
	"fmt"

	"github.com/etkecc/baibot/internal/baibot/agent"
)

// PrefixRequirementType controls whether plain text messages trigger the
// bot or only command-prefixed ones.
type PrefixRequirementType string

const (
	PrefixRequirementNo            PrefixRequirementType = "no"
	PrefixRequirementCommandPrefix PrefixRequirementType = "command_prefix"
)

// AutoUsage controls when an incoming message auto-generates a text reply.
type AutoUsage string

const (
	AutoUsageNever        AutoUsage = "never"
	AutoUsageAlways       AutoUsage = "always"
	AutoUsageOnlyForVoice AutoUsage = "only_for_voice"
	AutoUsageOnlyForText  AutoUsage = "only_for_text"
)

// SpeechToTextFlowType controls what happens to incoming voice messages.
type SpeechToTextFlowType string

const (
	SpeechToTextFlowIgnore                    SpeechToTextFlowType = "ignore"
	SpeechToTextFlowTranscribeAndGenerateText SpeechToTextFlowType = "transcribe_and_generate_text"
	SpeechToTextFlowOnlyTranscribe            SpeechToTextFlowType = "only_transcribe"
)

// TextToSpeechFlowType controls when replies get a spoken rendition.
type TextToSpeechFlowType string

const (
	TextToSpeechFlowNever    TextToSpeechFlowType = "never"
	TextToSpeechFlowOnDemand TextToSpeechFlowType = "on_demand"
	TextToSpeechFlowAlways   TextToSpeechFlowType = "always"
)

// TranscriptMessageType selects the Matrix message type used for
// transcripts of non-threaded only-transcribed voice messages.
type TranscriptMessageType string

const (
	TranscriptMessageTypeNotice TranscriptMessageType = "notice"
	TranscriptMessageTypeText   TranscriptMessageType = "text"
)

func ParsePrefixRequirementType(s string) (PrefixRequirementType, error) {
	switch v := PrefixRequirementType(s); v {
	case PrefixRequirementNo, PrefixRequirementCommandPrefix:
		return v, nil
	}
	return "", fmt.Errorf("config: unknown prefix requirement type %q", s)
}

func ParseAutoUsage(s string) (AutoUsage, error) {
	switch v := AutoUsage(s); v {
	case AutoUsageNever, AutoUsageAlways, AutoUsageOnlyForVoice, AutoUsageOnlyForText:
		return v, nil
	}
	return "", fmt.Errorf("config: unknown auto usage value %q", s)
}

func ParseSpeechToTextFlowType(s string) (SpeechToTextFlowType, error) {
	switch v := SpeechToTextFlowType(s); v {
	case SpeechToTextFlowIgnore, SpeechToTextFlowTranscribeAndGenerateText, SpeechToTextFlowOnlyTranscribe:
		return v, nil
	}
	return "", fmt.Errorf("config: unknown speech-to-text flow type %q", s)
}

func ParseTextToSpeechFlowType(s string) (TextToSpeechFlowType, error) {
	switch v := TextToSpeechFlowType(s); v {
	case TextToSpeechFlowNever, TextToSpeechFlowOnDemand, TextToSpeechFlowAlways:
		return v, nil
	}
	return "", fmt.Errorf("config: unknown text-to-speech flow type %q", s)
}

func ParseTranscriptMessageType(s string) (TranscriptMessageType, error) {
	switch v := TranscriptMessageType(s); v {
	case TranscriptMessageTypeNotice, TranscriptMessageTypeText:
		return v, nil
	}
	return "", fmt.Errorf("config: unknown transcript message type %q", s)
}

// HandlerMap assigns an agent identifier string to each purpose. A nil
// entry means "unset"; referential validity is checked at resolution time,
// not at write time.
type HandlerMap struct {
	CatchAll        *string `yaml:"catch_all,omitempty" json:"catch_all,omitempty"`
	TextGeneration  *string `yaml:"text_generation,omitempty" json:"text_generation,omitempty"`
	SpeechToText    *string `yaml:"speech_to_text,omitempty" json:"speech_to_text,omitempty"`
	TextToSpeech    *string `yaml:"text_to_speech,omitempty" json:"text_to_speech,omitempty"`
	ImageGeneration *string `yaml:"image_generation,omitempty" json:"image_generation,omitempty"`
}

// ForPurpose returns the handler entry for the given purpose.
func (m HandlerMap) ForPurpose(p agent.Purpose) *string {
	switch p {
	case agent.PurposeCatchAll:
		return m.CatchAll
	case agent.PurposeTextGeneration:
		return m.TextGeneration
	case agent.PurposeSpeechToText:
		return m.SpeechToText
	case agent.PurposeTextToSpeech:
		return m.TextToSpeech
	case agent.PurposeImageGeneration:
		return m.ImageGeneration
	}
	return nil
}

// SetForPurpose assigns (or unsets, with nil) the handler entry for the
// given purpose.
func (m *HandlerMap) SetForPurpose(p agent.Purpose, id *string) {
	switch p {
	case agent.PurposeCatchAll:
		m.CatchAll = id
	case agent.PurposeTextGeneration:
		m.TextGeneration = id
	case agent.PurposeSpeechToText:
		m.SpeechToText = id
	case agent.PurposeTextToSpeech:
		m.TextToSpeech = id
	case agent.PurposeImageGeneration:
		m.ImageGeneration = id
	}
}

// TextGenerationSettings is the per-layer text-generation overlay.
type TextGenerationSettings struct {
	ContextManagementEnabled *bool                  `yaml:"context_management_enabled,omitempty" json:"context_management_enabled,omitempty"`
	PrefixRequirementType    *PrefixRequirementType `yaml:"prefix_requirement_type,omitempty" json:"prefix_requirement_type,omitempty"`
	AutoUsage                *AutoUsage             `yaml:"auto_usage,omitempty" json:"auto_usage,omitempty"`
	PromptOverride           *string                `yaml:"prompt_override,omitempty" json:"prompt_override,omitempty"`
	TemperatureOverride      *float64               `yaml:"temperature_override,omitempty" json:"temperature_override,omitempty"`
}

// SpeechToTextSettings is the per-layer speech-to-text overlay.
type SpeechToTextSettings struct {
	FlowType *SpeechToTextFlowType `yaml:"flow_type,omitempty" json:"flow_type,omitempty"`
	// Language is a 2-letter language code hint passed to the provider.
	Language *string `yaml:"language,omitempty" json:"language,omitempty"`

	MessageTypeForNonThreadedTranscripts *TranscriptMessageType `yaml:"msg_type_for_non_threaded_only_transcribed_messages,omitempty" json:"msg_type_for_non_threaded_only_transcribed_messages,omitempty"`
}

// TextToSpeechSettings is the per-layer text-to-speech overlay.
type TextToSpeechSettings struct {
	BotMessagesFlowType  *TextToSpeechFlowType `yaml:"bot_msgs_flow_type,omitempty" json:"bot_msgs_flow_type,omitempty"`
	UserMessagesFlowType *TextToSpeechFlowType `yaml:"user_msgs_flow_type,omitempty" json:"user_msgs_flow_type,omitempty"`
	SpeedOverride        *float64              `yaml:"speed_override,omitempty" json:"speed_override,omitempty"`
	VoiceOverride        *string               `yaml:"voice_override,omitempty" json:"voice_override,omitempty"`
}

// Settings is one overlay layer: the handler map plus the per-capability
// setting groups.
type Settings struct {
	Handler        HandlerMap             `yaml:"handler,omitempty" json:"handler,omitempty"`
	TextGeneration TextGenerationSettings `yaml:"text_generation,omitempty" json:"text_generation,omitempty"`
	SpeechToText   SpeechToTextSettings   `yaml:"speech_to_text,omitempty" json:"speech_to_text,omitempty"`
	TextToSpeech   TextToSpeechSettings   `yaml:"text_to_speech,omitempty" json:"text_to_speech,omitempty"`
}
