// Package adapter defines the capability contract every provider adapter
// fulfills, the per-call parameter shapes, and the shared adapter
// configuration with its schema validation and per-provider seeds.
package adapter

import (
	"context"
	"fmt"

	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/convo"
)

// PingResult reports the outcome of a connectivity check.
type PingResult int

const (
	// PingSuccessful means a request round-tripped to the provider.
	PingSuccessful PingResult = iota
	// PingInconclusive means the adapter has no text-generation
	// configuration, which is the capability the check uses.
	PingInconclusive
)

// TextGenerationParams carries per-request text-generation knobs resolved
// from the configuration stack.
type TextGenerationParams struct {
	ContextManagementEnabled bool
	PromptOverride           *string
	TemperatureOverride      *float64
	// PromptVariables are substituted into the prompt at send time.
	PromptVariables map[string]string
}

// SpeechToTextParams carries per-request transcription knobs.
type SpeechToTextParams struct {
	// Language is an optional 2-letter language code hint.
	Language string
}

// TextToSpeechParams carries per-request synthesis knobs.
type TextToSpeechParams struct {
	Speed *float64
	Voice *string
}

// ImageGenerationParams carries per-request image-generation knobs.
// The two switching allowances let sticker requests downgrade to a cheaper
// model or quality when the configured one does not support the request.
type ImageGenerationParams struct {
	Size                    *string
	CheaperModelSwitching   bool
	CheaperQualitySwitching bool
}

// GeneratedImage is the result of an image generation or edit call.
type GeneratedImage struct {
	Data []byte
	Mime string
	// RevisedPrompt is the provider's rewritten prompt, when reported.
	RevisedPrompt string
}

// SourceImage is an input to an image-edit call.
type SourceImage struct {
	Data []byte
	Mime string
}

// GeneratedSpeech is the result of a text-to-speech call.
type GeneratedSpeech struct {
	Data []byte
	Mime string
}

// Controller is the common capability surface of all adapter families.
// Operations outside the adapter's configured capability set fail with an
// UnsupportedError without contacting the network.
type Controller interface {
	Supports(purpose agent.Purpose) bool

	// Ping checks connectivity with a minimal text-generation request.
	// It returns PingInconclusive when no text-generation is configured.
	Ping(ctx context.Context) (PingResult, error)

	GenerateText(ctx context.Context, conversation convo.Conversation, params TextGenerationParams) (string, error)
	SpeechToText(ctx context.Context, mime string, media []byte, params SpeechToTextParams) (string, error)
	TextToSpeech(ctx context.Context, text string, params TextToSpeechParams) (*GeneratedSpeech, error)
	GenerateImage(ctx context.Context, prompt string, params ImageGenerationParams) (*GeneratedImage, error)
	EditImage(ctx context.Context, prompt string, images []SourceImage, params ImageGenerationParams) (*GeneratedImage, error)

	// Configuration getters used for status rendering and prompt variables.
	// The boolean is false when the underlying setting is unconfigured.
	TextGenerationModelID() (string, bool)
	TextGenerationPrompt() (string, bool)
	TextGenerationTemperature() (float64, bool)
	TextToSpeechVoice() (string, bool)
	TextToSpeechSpeed() (float64, bool)
}

// UnsupportedError is returned when an adapter lacks the configuration for
// the requested capability.
type UnsupportedError struct {
	Purpose agent.Purpose
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("the agent does not support the %s capability", e.Purpose)
}

// Unsupported builds an UnsupportedError for the given purpose.
func Unsupported(purpose agent.Purpose) error {
	return &UnsupportedError{Purpose: purpose}
}
